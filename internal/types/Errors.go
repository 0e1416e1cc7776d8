package types

import "errors"

// Error kinds surfaced by every contract. A failing entry point returns one of these (usually wrapped
// with context) and the host reverts the whole transaction.
var (
	ErrAlreadyInitialized    = errors.New("AlreadyInitialized")
	ErrNotInitialized        = errors.New("NotInitialized")
	ErrNotOwner              = errors.New("NotOwner")
	ErrUnauthorized          = errors.New("Unauthorized")
	ErrWrongAsset            = errors.New("WrongAsset")
	ErrZeroAmount            = errors.New("ZeroAmount")
	ErrSwapFailed            = errors.New("SwapFailed")
	ErrInsufficientLiquidity = errors.New("InsufficientLiquidity")
	ErrInsufficientBalance   = errors.New("InsufficientBalance")
	ErrAllocationMismatch    = errors.New("AllocationMismatch")
	ErrInvalidParameter      = errors.New("InvalidParameter")
	ErrUnknownContract       = errors.New("UnknownContract")
	ErrPanic                 = errors.New("Panic")
)

var errorKinds = []error{
	ErrAlreadyInitialized,
	ErrNotInitialized,
	ErrNotOwner,
	ErrUnauthorized,
	ErrWrongAsset,
	ErrZeroAmount,
	ErrSwapFailed,
	ErrInsufficientLiquidity,
	ErrInsufficientBalance,
	ErrAllocationMismatch,
	ErrInvalidParameter,
	ErrUnknownContract,
	ErrPanic,
}

// ErrorKind returns the name of the first known error kind wrapped by err, "" for nil and
// "Unknown" for anything else.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "Unknown"
}

// KindError returns the sentinel error named kind, or nil when kind is not a known error kind.
func KindError(kind string) error {
	for _, k := range errorKinds {
		if k.Error() == kind {
			return k
		}
	}
	return nil
}
