package strategy

import (
	"github.com/sprout-finance/sprout/internal/host"
)

// Deposit accepts a base-asset payment, buys the basket assets according to the allocations and mints
// exactly the deposited amount of receipts to the caller. Rounding dust and the base-asset weight stay
// in the strategy as base asset.
func (s *Strategy) Deposit(call *host.Call) (DepositPlan, error) {
	amount, err := call.RequirePayment(s.baseAsset)
	if err != nil {
		return DepositPlan{}, err
	}
	plan, err := s.planDeposit(amount)
	if err != nil {
		return DepositPlan{}, err
	}

	if len(plan.Swaps) > 0 {
		ex, err := s.exchange(call)
		if err != nil {
			return DepositPlan{}, err
		}
		for i := range plan.Swaps {
			if _, err := s.executeLeg(call, ex, &plan.Swaps[i]); err != nil {
				return DepositPlan{}, err
			}
		}
	}

	if err := s.mintReceipts(call, call.Caller, plan.Receipts); err != nil {
		return DepositPlan{}, err
	}

	call.Emit("Deposit", map[string]any{
		"depositor": call.Caller.String(),
		"amount":    amount,
		"receipts":  plan.Receipts,
		"swaps":     len(plan.Swaps),
	})
	s.logger.Info().
		Str("depositor", call.Caller.String()).
		Uint64("amount", amount).
		Int("swaps", len(plan.Swaps)).
		Msg("Deposit executed")
	return plan, nil
}
