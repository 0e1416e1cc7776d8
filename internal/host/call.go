package host

import (
	"context"
	"fmt"

	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/types"
)

// Call is the execution context handed to a contract entry point.
type Call struct {
	ctx   context.Context
	chain *Chain

	// Self is the contract being executed.
	Self types.ContractID
	// Caller is the identity that invoked Self: a wallet for top-level transactions or a contract for nested calls.
	Caller types.Identity
	// Payment is the asset attached to the call, already credited to Self. Nil when nothing was attached.
	Payment *types.Coin

	events *[]types.Event
}

func (c *Call) Context() context.Context { return c.ctx }

// Ledger exposes the chain ledger for balance reads and for minting or burning assets owned by Self.
func (c *Call) Ledger() *ledger.Ledger { return c.chain.ledger }

// SelfIdentity is Self as a ledger identity.
func (c *Call) SelfIdentity() types.Identity { return types.ContractIdentity(c.Self) }

// Emit appends an event to the transaction's receipt.
func (c *Call) Emit(name string, data map[string]any) {
	*c.events = append(*c.events, types.Event{Contract: c.Self, Name: name, Data: data})
}

// Transfer sends amount of asset from Self to the recipient.
func (c *Call) Transfer(to types.Identity, asset types.AssetID, amount uint64) error {
	return c.chain.ledger.Transfer(asset, amount, c.SelfIdentity(), to)
}

// Resolve returns the deployed contract registered under id.
func (c *Call) Resolve(id types.ContractID) (Stateful, error) {
	contract, ok := c.chain.contracts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownContract, id)
	}
	return contract, nil
}

// Invoke prepares a nested call from Self into target, moving the payment from Self to target.
// The nested call shares the enclosing transaction: its failure reverts everything.
func (c *Call) Invoke(target types.ContractID, payment *types.Coin) (*Call, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := c.Resolve(target); err != nil {
		return nil, err
	}
	nested := &Call{
		ctx:     c.ctx,
		chain:   c.chain,
		Self:    target,
		Caller:  c.SelfIdentity(),
		Payment: payment,
		events:  c.events,
	}
	if err := nested.collectPayment(); err != nil {
		return nil, err
	}
	return nested, nil
}

// RequirePayment returns the attached payment, failing with ErrWrongAsset when nothing or another
// asset was attached and with ErrZeroAmount when the amount is zero.
func (c *Call) RequirePayment(asset types.AssetID) (uint64, error) {
	if c.Payment == nil || c.Payment.Asset != asset {
		return 0, fmt.Errorf("%w: expected payment in %s", types.ErrWrongAsset, asset)
	}
	if c.Payment.Amount == 0 {
		return 0, fmt.Errorf("%w: payment amount", types.ErrZeroAmount)
	}
	return c.Payment.Amount, nil
}

func (c *Call) collectPayment() error {
	if c.Payment == nil || c.Payment.Amount == 0 {
		return nil
	}
	if err := c.chain.ledger.Transfer(c.Payment.Asset, c.Payment.Amount, c.Caller, c.SelfIdentity()); err != nil {
		return fmt.Errorf("attach payment: %w", err)
	}
	return nil
}
