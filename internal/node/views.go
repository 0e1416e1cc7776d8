package node

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/state"
	"github.com/sprout-finance/sprout/internal/strategy"
	"github.com/sprout-finance/sprout/internal/types"
)

// StrategyView is a consistent snapshot of the strategy's configuration and holdings.
type StrategyView struct {
	Contract             types.ContractID        `json:"contract"`
	Owner                types.Identity          `json:"owner"`
	BaseAsset            types.AssetID           `json:"base_asset"`
	ReceiptAsset         types.AssetID           `json:"receipt_asset"`
	ReceiptToken         types.ContractID        `json:"receipt_token"`
	ReceiptTokenApproved bool                    `json:"receipt_token_approved"`
	AMMContract          types.ContractID        `json:"amm_contract"`
	FeeTreasury          types.Identity          `json:"fee_treasury"`
	WithdrawalFeeBps     uint64                  `json:"withdrawal_fee_bps"`
	SlippageToleranceBps uint64                  `json:"slippage_tolerance_bps"`
	TotalSupply          uint64                  `json:"total_supply"`
	Allocations          []types.TokenAllocation `json:"allocations"`
	Holdings             []types.Coin            `json:"holdings"`
}

// TreasuryView is a consistent snapshot of the treasury.
type TreasuryView struct {
	Contract    types.ContractID `json:"contract"`
	ProxyState  string           `json:"proxy_state"`
	ProxyOwner  types.Identity   `json:"proxy_owner"`
	ProxyTarget types.ContractID `json:"proxy_target"`
	Owner       types.Identity   `json:"owner"`
	Strategy    types.Identity   `json:"strategy"`
	FeeBalance  uint64           `json:"fee_balance"`
}

// Strategy returns the strategy snapshot.
func (n *Node) Strategy() (StrategyView, error) {
	var v StrategyView
	err := n.chain.View(func(l *ledger.Ledger) error {
		owner, _ := n.strategy.Owner()
		v = StrategyView{
			Contract:             n.strategy.ID(),
			Owner:                owner,
			BaseAsset:            n.strategy.BaseAsset(),
			ReceiptAsset:         n.strategy.AssetID(),
			ReceiptToken:         n.strategy.SproutReceiptToken(),
			ReceiptTokenApproved: n.receiptTokenApproved(),
			AMMContract:          n.strategy.AMMContract(),
			FeeTreasury:          n.strategy.FeeTreasuryContract(),
			WithdrawalFeeBps:     n.strategy.WithdrawalFee(),
			SlippageToleranceBps: n.strategy.SlippageTolerance(),
			TotalSupply:          n.strategy.TotalSupply(l),
			Allocations:          n.strategy.TargetTokens(),
			Holdings:             sortedCoins(n.strategy.Holdings(l)),
		}
		return nil
	})
	return v, err
}

// receiptTokenApproved reports whether the strategy may issue receipts through its configured token.
// A strategy issuing its own asset needs no approval.
func (n *Node) receiptTokenApproved() bool {
	switch n.strategy.SproutReceiptToken() {
	case types.ContractID{}:
		return true
	case n.token.ID():
		return n.token.IsStrategyApproved(n.strategy.ID())
	default:
		return false
	}
}

// PoolView is one AMM pool and its reserves.
type PoolView struct {
	Pool     types.PoolID `json:"pool"`
	Reserve0 uint64       `json:"reserve_0"`
	Reserve1 uint64       `json:"reserve_1"`
}

// Pools lists the node AMM's pools ordered by pool key.
func (n *Node) Pools() ([]PoolView, error) {
	var pools []PoolView
	err := n.chain.View(func(*ledger.Ledger) error {
		ids := n.engine.Pools()
		pools = make([]PoolView, 0, len(ids))
		for _, id := range ids {
			r0, r1, err := n.engine.Reserves(id)
			if err != nil {
				return err
			}
			pools = append(pools, PoolView{Pool: id, Reserve0: r0, Reserve1: r1})
		}
		return nil
	})
	return pools, err
}

// Allocation returns the allocation of one asset.
func (n *Node) Allocation(asset types.AssetID) (types.TokenAllocation, bool, error) {
	var (
		alloc types.TokenAllocation
		ok    bool
	)
	err := n.chain.View(func(*ledger.Ledger) error {
		alloc, ok = n.strategy.TokenAllocation(asset)
		return nil
	})
	return alloc, ok, err
}

// Treasury returns the treasury snapshot.
func (n *Node) Treasury() (TreasuryView, error) {
	var v TreasuryView
	err := n.chain.View(func(l *ledger.Ledger) error {
		proxyState, proxyOwner := n.treasury.ProxyOwner()
		target, _ := n.treasury.ProxyTarget()
		owner, _ := n.treasury.Owner()
		v = TreasuryView{
			Contract:    n.treasury.ID(),
			ProxyState:  proxyState.String(),
			ProxyOwner:  proxyOwner,
			ProxyTarget: target,
			Owner:       owner,
			Strategy:    n.treasury.GetStrategy(),
			FeeBalance:  n.treasury.FeeBalance(l),
		}
		return nil
	})
	return v, err
}

// Balances returns every non-zero balance held by an identity.
func (n *Node) Balances(who types.Identity) ([]types.Coin, error) {
	var coins []types.Coin
	err := n.chain.View(func(l *ledger.Ledger) error {
		coins = sortedCoins(l.Balances(who))
		return nil
	})
	return coins, err
}

// Height returns the number of executed transactions.
func (n *Node) Height() uint64 { return n.chain.Height() }

// PreviewDeposit prices a deposit against the node's AMM without executing it.
func (n *Node) PreviewDeposit(amount uint64) (strategy.DepositPlan, error) {
	var plan strategy.DepositPlan
	err := n.chain.View(func(*ledger.Ledger) error {
		if err := n.requireEngineAMM(); err != nil {
			return err
		}
		var err error
		plan, err = n.strategy.PreviewDeposit(n.engine, amount)
		return err
	})
	return plan, err
}

// PreviewWithdraw prices a redemption against the node's AMM without executing it.
func (n *Node) PreviewWithdraw(receipts uint64) (strategy.WithdrawPlan, error) {
	var plan strategy.WithdrawPlan
	err := n.chain.View(func(l *ledger.Ledger) error {
		if err := n.requireEngineAMM(); err != nil {
			return err
		}
		var err error
		plan, err = n.strategy.PreviewWithdraw(l, n.engine, receipts)
		return err
	})
	return plan, err
}

func (n *Node) requireEngineAMM() error {
	if n.strategy.AMMContract() != n.engine.ID() {
		return fmt.Errorf("%w: strategy amm %s is not the node engine", types.ErrUnknownContract, n.strategy.AMMContract())
	}
	return nil
}

// RecentActions returns the latest recorded receipts.
func (n *Node) RecentActions(ctx context.Context, limit int) ([]types.ActionReceipt, error) {
	return n.recorder.RecentActions(ctx, limit)
}

// ActionSummary aggregates the recorded receipts.
func (n *Node) ActionSummary(ctx context.Context) (state.Summary, error) {
	return n.recorder.Summary(ctx)
}

func sortedCoins(balances map[types.AssetID]uint64) []types.Coin {
	coins := make([]types.Coin, 0, len(balances))
	for asset, amount := range balances {
		if amount == 0 {
			continue
		}
		coins = append(coins, types.Coin{Asset: asset, Amount: amount})
	}
	slices.SortFunc(coins, func(a, b types.Coin) int {
		return bytes.Compare(a.Asset[:], b.Asset[:])
	})
	return coins
}
