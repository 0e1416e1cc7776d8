package strategy

import (
	"fmt"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/types"
	"github.com/sprout-finance/sprout/internal/utils"
)

// Withdraw redeems the attached receipts for their pro-rata share of every basket asset, converts the
// non-base shares to base asset, routes the withdrawal fee to the fee treasury, burns the receipts and
// pays the rest to the caller. The returned plan carries the realized amounts.
func (s *Strategy) Withdraw(call *host.Call) (WithdrawPlan, error) {
	receipts, err := call.RequirePayment(s.AssetID())
	if err != nil {
		return WithdrawPlan{}, err
	}
	// The payment has already moved to the strategy; it is still part of the outstanding supply.
	plan, err := s.planWithdraw(call.Ledger(), receipts)
	if err != nil {
		return WithdrawPlan{}, err
	}

	proceeds := plan.BaseShare
	if len(plan.Swaps) > 0 {
		ex, err := s.exchange(call)
		if err != nil {
			return WithdrawPlan{}, err
		}
		for i := range plan.Swaps {
			received, err := s.executeLeg(call, ex, &plan.Swaps[i])
			if err != nil {
				return WithdrawPlan{}, err
			}
			if proceeds, err = utils.CheckedAdd(proceeds, received); err != nil {
				return WithdrawPlan{}, err
			}
		}
	}

	fee, err := s.feeFor(proceeds)
	if err != nil {
		return WithdrawPlan{}, err
	}
	if s.feeTreasury.IsZero() {
		// Nowhere to send it; the fee stays in the basket for the remaining holders.
		s.logger.Debug().Uint64("fee", fee).Msg("No fee treasury configured")
	} else if fee > 0 {
		if err := s.routeFee(call, fee); err != nil {
			return WithdrawPlan{}, err
		}
	}

	net := proceeds - fee
	if net == 0 {
		return WithdrawPlan{}, fmt.Errorf("%w: redemption of %d receipts yields nothing", types.ErrZeroAmount, receipts)
	}
	if err := s.burnReceipts(call, receipts); err != nil {
		return WithdrawPlan{}, err
	}
	if err := call.Transfer(call.Caller, s.baseAsset, net); err != nil {
		return WithdrawPlan{}, err
	}

	plan.Proceeds, plan.Fee, plan.Net = proceeds, fee, net
	call.Emit("Withdraw", map[string]any{
		"withdrawer": call.Caller.String(),
		"receipts":   receipts,
		"proceeds":   proceeds,
		"fee":        fee,
		"net":        net,
	})
	s.logger.Info().
		Str("withdrawer", call.Caller.String()).
		Uint64("receipts", receipts).
		Uint64("proceeds", proceeds).
		Uint64("fee", fee).
		Msg("Withdrawal executed")
	return plan, nil
}

// routeFee pays fee to the treasury: contracts through their ReceiveFees entry point, addresses by transfer.
func (s *Strategy) routeFee(call *host.Call, fee uint64) error {
	treasury, isContract := s.feeTreasury.AsContract()
	if !isContract {
		return call.Transfer(s.feeTreasury, s.baseAsset, fee)
	}

	contract, err := call.Resolve(treasury)
	if err != nil {
		return err
	}
	receiver, ok := contract.(FeeReceiver)
	if !ok {
		return fmt.Errorf("%w: contract %s does not accept fees", types.ErrInvalidParameter, treasury)
	}
	nested, err := call.Invoke(treasury, &types.Coin{Asset: s.baseAsset, Amount: fee})
	if err != nil {
		return err
	}
	if err := receiver.ReceiveFees(nested); err != nil {
		return fmt.Errorf("fee treasury rejected %d: %w", fee, err)
	}
	return nil
}
