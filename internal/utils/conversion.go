/*
This file contains the integer helpers used for every basis-point split and pro-rata share in the protocol.
Intermediate products are computed on SDK math Ints so amount * weight never overflows 64 bits.
*/

package utils

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrOverflow        = errors.New("result overflows uint64")
	ErrInvalidBasisPts = errors.New("basis points exceed 10000")
)

// BasisPoints is 100% expressed in basis points.
const BasisPoints uint64 = 10000

// MulDiv returns floor(a * b / c).
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivisionByZero
	}
	product := sdkmath.NewIntFromUint64(a).Mul(sdkmath.NewIntFromUint64(b))
	result := product.Quo(sdkmath.NewIntFromUint64(c))
	if !result.IsUint64() {
		return 0, fmt.Errorf("%w: %s * %d / %d", ErrOverflow, product.String(), b, c)
	}
	return result.Uint64(), nil
}

// ApplyBasisPoints returns floor(amount * bps / 10000). bps may exceed 10000 only when the caller
// explicitly wants a multiplier; percentages should be validated before reaching here.
func ApplyBasisPoints(amount, bps uint64) (uint64, error) {
	return MulDiv(amount, bps, BasisPoints)
}

// ProRata returns floor(holding * part / total), the share of a holding owned by part out of total.
func ProRata(holding, part, total uint64) (uint64, error) {
	if total == 0 {
		return 0, fmt.Errorf("%w: total supply is zero", ErrDivisionByZero)
	}
	return MulDiv(holding, part, total)
}

// MinimumOut returns the least acceptable output for a quote under a slippage tolerance in basis points.
func MinimumOut(quote, slippageBps uint64) (uint64, error) {
	if slippageBps > BasisPoints {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBasisPts, slippageBps)
	}
	return MulDiv(quote, BasisPoints-slippageBps, BasisPoints)
}

// CheckedAdd adds two amounts, failing on overflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return sum, nil
}
