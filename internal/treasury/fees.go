package treasury

import (
	"fmt"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/ownership"
	"github.com/sprout-finance/sprout/internal/types"
)

// Constructor sets the fee owner and the strategy allowed to push fees. It runs once.
func (t *Treasury) Constructor(call *host.Call, owner, strategy types.Identity) error {
	if t.constructed == ownership.Initialized {
		return fmt.Errorf("%w: treasury already constructed", types.ErrAlreadyInitialized)
	}
	if strategy.IsZero() {
		return fmt.Errorf("%w: strategy cannot be unset", types.ErrInvalidParameter)
	}
	if err := t.feeOwner.InitializeWith(owner); err != nil {
		return err
	}
	t.constructed = ownership.Initialized
	t.strategy = strategy

	call.Emit("TreasuryConstructed", map[string]any{"owner": owner.String(), "strategy": strategy.String()})
	return nil
}

// InitializeOwner makes the caller the fee owner when no owner has been set yet.
func (t *Treasury) InitializeOwner(call *host.Call) error {
	if err := t.feeOwner.InitializeOwner(call.Caller); err != nil {
		return err
	}
	call.Emit("OwnershipSet", map[string]any{"owner": call.Caller.String()})
	return nil
}

// SetOwner transfers fee ownership.
func (t *Treasury) SetOwner(call *host.Call, newOwner types.Identity) error {
	if err := t.feeOwner.SetOwner(call.Caller, newOwner); err != nil {
		return err
	}
	call.Emit("OwnershipTransferred", map[string]any{"previous": call.Caller.String(), "owner": newOwner.String()})
	return nil
}

// Owner returns the fee owner.
func (t *Treasury) Owner() (types.Identity, bool) { return t.feeOwner.Owner() }

// GetStrategy returns the identity allowed to call ReceiveFees.
func (t *Treasury) GetStrategy() types.Identity { return t.strategy }

// SetStrategy rotates the identity allowed to push fees.
func (t *Treasury) SetStrategy(call *host.Call, strategy types.Identity) error {
	if err := t.feeOwner.RequireOwner(call.Caller); err != nil {
		return err
	}
	if strategy.IsZero() {
		return fmt.Errorf("%w: strategy cannot be unset", types.ErrInvalidParameter)
	}
	t.strategy = strategy
	call.Emit("StrategySet", map[string]any{"strategy": strategy.String()})
	return nil
}

// ReceiveFees accepts a base-asset payment from the configured strategy. The value is kept as the
// treasury's balance.
func (t *Treasury) ReceiveFees(call *host.Call) error {
	if err := ownership.RequireIdentity(call.Caller, t.strategy, types.ErrUnauthorized); err != nil {
		return err
	}
	amount, err := call.RequirePayment(t.baseAsset)
	if err != nil {
		return err
	}

	call.Emit("FeesReceived", map[string]any{"from": call.Caller.String(), "amount": amount})
	t.logger.Debug().Uint64("amount", amount).Msg("Fees received")
	return nil
}

// WithdrawFees sends the whole base-asset balance to the owner and returns the amount sent.
func (t *Treasury) WithdrawFees(call *host.Call) (uint64, error) {
	owner, _ := t.feeOwner.Owner()
	if err := ownership.RequireIdentity(call.Caller, owner, types.ErrUnauthorized); err != nil {
		return 0, err
	}
	balance := t.FeeBalance(call.Ledger())
	if balance == 0 {
		return 0, fmt.Errorf("%w: treasury holds no fees", types.ErrZeroAmount)
	}
	if err := call.Transfer(call.Caller, t.baseAsset, balance); err != nil {
		return 0, err
	}

	call.Emit("FeesWithdrawn", map[string]any{"to": call.Caller.String(), "amount": balance})
	t.logger.Info().Uint64("amount", balance).Str("to", call.Caller.String()).Msg("Fees withdrawn")
	return balance, nil
}

// FeeBalance returns the base-asset balance the owner can withdraw.
func (t *Treasury) FeeBalance(l *ledger.Ledger) uint64 {
	return l.Balance(t.Identity(), t.baseAsset)
}
