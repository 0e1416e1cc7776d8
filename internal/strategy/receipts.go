package strategy

import (
	"fmt"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/types"
)

// ReceiptIssuer is a token contract that mints and burns receipts for the strategies it approved.
type ReceiptIssuer interface {
	Mint(call *host.Call, to types.Identity, amount uint64) error
	Burn(call *host.Call, amount uint64) error
}

// checkReceiptToken validates a new receipt token before it is recorded.
func (s *Strategy) checkReceiptToken(call *host.Call, receiptToken types.ContractID) error {
	if receiptToken == s.id {
		return fmt.Errorf("%w: receipt token cannot be the strategy itself", types.ErrInvalidParameter)
	}
	if s.receiptAssetFor(receiptToken) != s.AssetID() {
		if outstanding := call.Ledger().Supply(s.AssetID()); outstanding > 0 {
			return fmt.Errorf("%w: %d receipts of %s are outstanding", types.ErrInvalidParameter, outstanding, s.AssetID())
		}
	}
	if receiptToken == (types.ContractID{}) {
		return nil
	}
	contract, err := call.Resolve(receiptToken)
	if err != nil {
		return err
	}
	if _, ok := contract.(ReceiptIssuer); !ok {
		return fmt.Errorf("%w: contract %s cannot issue receipts", types.ErrInvalidParameter, receiptToken)
	}
	return nil
}

// mintReceipts issues amount receipts to the recipient, through the receipt token when one is set.
func (s *Strategy) mintReceipts(call *host.Call, to types.Identity, amount uint64) error {
	if s.receiptToken == (types.ContractID{}) {
		return call.Ledger().Mint(s.AssetID(), amount, to)
	}
	issuer, nested, err := s.receiptIssuer(call)
	if err != nil {
		return err
	}
	if err := issuer.Mint(nested, to, amount); err != nil {
		return fmt.Errorf("receipt token %s refused mint: %w", s.receiptToken, err)
	}
	return nil
}

// burnReceipts destroys amount receipts held by the strategy.
func (s *Strategy) burnReceipts(call *host.Call, amount uint64) error {
	if s.receiptToken == (types.ContractID{}) {
		return call.Ledger().Burn(s.AssetID(), amount, call.SelfIdentity())
	}
	issuer, nested, err := s.receiptIssuer(call)
	if err != nil {
		return err
	}
	if err := issuer.Burn(nested, amount); err != nil {
		return fmt.Errorf("receipt token %s refused burn: %w", s.receiptToken, err)
	}
	return nil
}

func (s *Strategy) receiptIssuer(call *host.Call) (ReceiptIssuer, *host.Call, error) {
	contract, err := call.Resolve(s.receiptToken)
	if err != nil {
		return nil, nil, err
	}
	issuer, ok := contract.(ReceiptIssuer)
	if !ok {
		return nil, nil, fmt.Errorf("%w: contract %s cannot issue receipts", types.ErrInvalidParameter, s.receiptToken)
	}
	nested, err := call.Invoke(s.receiptToken, nil)
	if err != nil {
		return nil, nil, err
	}
	return issuer, nested, nil
}
