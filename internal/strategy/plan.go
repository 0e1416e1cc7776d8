/*

This file contains the planning step shared by execution and previews. A plan is computed from the allocation
table and the strategy's balances only; executing it performs the swaps, previewing it prices them with a quoter.

*/

package strategy

import (
	"fmt"

	"github.com/sprout-finance/sprout/internal/amm"
	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/types"
	"github.com/sprout-finance/sprout/internal/utils"
)

// SwapLeg is one conversion between the base asset and a basket asset.
type SwapLeg struct {
	Pool     types.PoolID  `json:"pool"`
	AssetIn  types.AssetID `json:"asset_in"`
	AssetOut types.AssetID `json:"asset_out"`
	AmountIn uint64        `json:"amount_in"`
	Quote    uint64        `json:"quote,omitempty"`
	MinOut   uint64        `json:"min_out,omitempty"`
	Received uint64        `json:"received,omitempty"`
}

// DepositPlan splits a deposit across the basket.
type DepositPlan struct {
	Amount       uint64    `json:"amount"`
	Swaps        []SwapLeg `json:"swaps"`
	RetainedBase uint64    `json:"retained_base"` // base-asset weight plus rounding dust
	Receipts     uint64    `json:"receipts"`
}

// WithdrawPlan is the pro-rata share of the basket owed for a redemption.
type WithdrawPlan struct {
	Receipts  uint64       `json:"receipts"`
	Supply    uint64       `json:"supply"`
	Shares    []types.Coin `json:"shares"`
	BaseShare uint64       `json:"base_share"`
	Swaps     []SwapLeg    `json:"swaps"`

	// Filled by PreviewWithdraw from quotes; execution uses realized amounts.
	Proceeds uint64 `json:"proceeds,omitempty"`
	Fee      uint64 `json:"fee,omitempty"`
	Net      uint64 `json:"net,omitempty"`
}

func (s *Strategy) planDeposit(amount uint64) (DepositPlan, error) {
	if !s.AllocationsInitialized() {
		return DepositPlan{}, fmt.Errorf("%w: token allocations not set", types.ErrNotInitialized)
	}
	plan := DepositPlan{Amount: amount, Receipts: amount}
	var swapped uint64
	for _, alloc := range s.allocations {
		if alloc.Token == s.baseAsset || alloc.Percentage == 0 {
			continue
		}
		share, err := utils.ApplyBasisPoints(amount, uint64(alloc.Percentage))
		if err != nil {
			return DepositPlan{}, fmt.Errorf("allocation of %s: %w", alloc.Token, err)
		}
		if share == 0 {
			continue
		}
		plan.Swaps = append(plan.Swaps, SwapLeg{
			Pool:     alloc.PoolID,
			AssetIn:  s.baseAsset,
			AssetOut: alloc.Token,
			AmountIn: share,
		})
		swapped += share
	}
	plan.RetainedBase = amount - swapped
	return plan, nil
}

func (s *Strategy) planWithdraw(l *ledger.Ledger, receipts uint64) (WithdrawPlan, error) {
	supply := s.TotalSupply(l)
	if receipts > supply {
		return WithdrawPlan{}, fmt.Errorf("%w: %d receipts requested, %d outstanding", types.ErrInsufficientLiquidity, receipts, supply)
	}
	plan := WithdrawPlan{Receipts: receipts, Supply: supply}
	for _, asset := range s.basketAssets() {
		share, err := utils.ProRata(l.Balance(s.Identity(), asset), receipts, supply)
		if err != nil {
			return WithdrawPlan{}, fmt.Errorf("share of %s: %w", asset, err)
		}
		plan.Shares = append(plan.Shares, types.Coin{Asset: asset, Amount: share})
		if asset == s.baseAsset {
			plan.BaseShare = share
			continue
		}
		if share == 0 {
			continue
		}
		alloc, _ := s.TokenAllocation(asset)
		plan.Swaps = append(plan.Swaps, SwapLeg{
			Pool:     alloc.PoolID,
			AssetIn:  asset,
			AssetOut: s.baseAsset,
			AmountIn: share,
		})
	}
	return plan, nil
}

// PreviewDeposit prices a deposit of amount without executing it.
func (s *Strategy) PreviewDeposit(q amm.Quoter, amount uint64) (DepositPlan, error) {
	if amount == 0 {
		return DepositPlan{}, fmt.Errorf("%w: deposit amount", types.ErrZeroAmount)
	}
	plan, err := s.planDeposit(amount)
	if err != nil {
		return DepositPlan{}, err
	}
	for i := range plan.Swaps {
		if err := s.priceLeg(q, &plan.Swaps[i]); err != nil {
			return DepositPlan{}, err
		}
	}
	return plan, nil
}

// PreviewWithdraw prices a redemption of receipts, including the fee, without executing it.
func (s *Strategy) PreviewWithdraw(l *ledger.Ledger, q amm.Quoter, receipts uint64) (WithdrawPlan, error) {
	if receipts == 0 {
		return WithdrawPlan{}, fmt.Errorf("%w: withdrawal amount", types.ErrZeroAmount)
	}
	plan, err := s.planWithdraw(l, receipts)
	if err != nil {
		return WithdrawPlan{}, err
	}
	proceeds := plan.BaseShare
	for i := range plan.Swaps {
		if err := s.priceLeg(q, &plan.Swaps[i]); err != nil {
			return WithdrawPlan{}, err
		}
		if proceeds, err = utils.CheckedAdd(proceeds, plan.Swaps[i].Quote); err != nil {
			return WithdrawPlan{}, err
		}
	}
	plan.Proceeds = proceeds
	if plan.Fee, err = s.feeFor(proceeds); err != nil {
		return WithdrawPlan{}, err
	}
	plan.Net = proceeds - plan.Fee
	return plan, nil
}

func (s *Strategy) priceLeg(q amm.Quoter, leg *SwapLeg) error {
	quote, err := q.Quote(leg.Pool, leg.AssetIn, leg.AmountIn)
	if err != nil {
		return fmt.Errorf("%w: quote %s in %s: %w", types.ErrSwapFailed, leg.AssetIn, leg.Pool, err)
	}
	minOut, err := utils.MinimumOut(quote, s.slippage)
	if err != nil {
		return err
	}
	leg.Quote = quote
	leg.MinOut = minOut
	return nil
}

// feeFor returns the withdrawal fee charged on proceeds.
func (s *Strategy) feeFor(proceeds uint64) (uint64, error) {
	return utils.ApplyBasisPoints(proceeds, s.withdrawalFee)
}
