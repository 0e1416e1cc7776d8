package node

import (
	"context"
	"fmt"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/strategy"
	"github.com/sprout-finance/sprout/internal/types"
)

// DepositResult is the receipt of a deposit and the plan it executed.
type DepositResult struct {
	Receipt types.ActionReceipt  `json:"receipt"`
	Plan    strategy.DepositPlan `json:"plan"`
}

// WithdrawResult is the receipt of a withdrawal and the plan it executed.
type WithdrawResult struct {
	Receipt types.ActionReceipt   `json:"receipt"`
	Plan    strategy.WithdrawPlan `json:"plan"`
}

// TxResult is the receipt of a transaction without a richer result.
type TxResult struct {
	Receipt types.ActionReceipt `json:"receipt"`
	Amount  uint64              `json:"amount,omitempty"`
}

// Deposit sends amount of the base asset from caller into the strategy.
func (n *Node) Deposit(ctx context.Context, caller types.Identity, amount uint64) (DepositResult, error) {
	var res DepositResult
	tx := host.Tx{
		Caller:  caller,
		Target:  StrategyContractID,
		Method:  "deposit",
		Payment: &types.Coin{Asset: types.BaseAssetID, Amount: amount},
	}
	receipt, err := n.chain.Execute(ctx, tx, func(call *host.Call) error {
		var err error
		res.Plan, err = n.strategy.Deposit(call)
		return err
	})
	res.Receipt = receipt
	if err != nil {
		return res, err
	}

	n.indicators.ObserveDeposit(amount)
	n.refreshGauges()
	n.logger.Info().Str("caller", caller.String()).Uint64("amount", amount).Uint64("receipts", res.Plan.Receipts).Msg("Deposit executed")
	return res, nil
}

// Withdraw redeems receipts held by caller.
func (n *Node) Withdraw(ctx context.Context, caller types.Identity, receipts uint64) (WithdrawResult, error) {
	var res WithdrawResult
	tx := host.Tx{
		Caller:  caller,
		Target:  StrategyContractID,
		Method:  "withdraw",
		Payment: &types.Coin{Asset: n.strategy.AssetID(), Amount: receipts},
	}
	receipt, err := n.chain.Execute(ctx, tx, func(call *host.Call) error {
		var err error
		res.Plan, err = n.strategy.Withdraw(call)
		return err
	})
	res.Receipt = receipt
	if err != nil {
		return res, err
	}

	n.indicators.ObserveWithdrawal(receipts, res.Plan.Proceeds, res.Plan.Fee)
	n.refreshGauges()
	n.logger.Info().Str("caller", caller.String()).Uint64("receipts", receipts).Uint64("net", res.Plan.Net).Uint64("fee", res.Plan.Fee).Msg("Withdrawal executed")
	return res, nil
}

// WithdrawFees moves the treasury's whole fee balance to its owner.
func (n *Node) WithdrawFees(ctx context.Context, caller types.Identity) (TxResult, error) {
	var res TxResult
	receipt, err := n.chain.Execute(ctx, host.Tx{Caller: caller, Target: TreasuryContractID, Method: "withdraw_fees"}, func(call *host.Call) error {
		var err error
		res.Amount, err = n.treasury.WithdrawFees(call)
		return err
	})
	res.Receipt = receipt
	if err == nil {
		n.refreshGauges()
	}
	return res, err
}

// SetWithdrawalFee updates the strategy withdrawal fee in basis points.
func (n *Node) SetWithdrawalFee(ctx context.Context, caller types.Identity, feeBps uint64) (TxResult, error) {
	return n.strategyTx(ctx, caller, "set_withdrawal_fee", func(call *host.Call) error {
		return n.strategy.SetWithdrawalFee(call, feeBps)
	})
}

// SetSlippageTolerance updates the strategy slippage tolerance in basis points.
func (n *Node) SetSlippageTolerance(ctx context.Context, caller types.Identity, slippageBps uint64) (TxResult, error) {
	return n.strategyTx(ctx, caller, "update_slippage_tolerance", func(call *host.Call) error {
		return n.strategy.UpdateSlippageTolerance(call, slippageBps)
	})
}

// SetFeeTreasury points withdrawal fees at a new recipient.
func (n *Node) SetFeeTreasury(ctx context.Context, caller, recipient types.Identity) (TxResult, error) {
	return n.strategyTx(ctx, caller, "set_fee_treasury_contract", func(call *host.Call) error {
		return n.strategy.SetFeeTreasuryContract(call, recipient)
	})
}

// SetStrategyOwner hands strategy ownership to a new identity.
func (n *Node) SetStrategyOwner(ctx context.Context, caller, newOwner types.Identity) (TxResult, error) {
	return n.strategyTx(ctx, caller, "set_owner", func(call *host.Call) error {
		return n.strategy.SetOwner(call, newOwner)
	})
}

// SetAMMContract points the strategy's swaps at another AMM contract.
func (n *Node) SetAMMContract(ctx context.Context, caller types.Identity, amm types.ContractID) (TxResult, error) {
	return n.strategyTx(ctx, caller, "set_amm_contract", func(call *host.Call) error {
		return n.strategy.SetAMMContract(call, amm)
	})
}

// SetReceiptToken switches the contract issuing strategy receipts.
func (n *Node) SetReceiptToken(ctx context.Context, caller types.Identity, receiptToken types.ContractID) (TxResult, error) {
	return n.strategyTx(ctx, caller, "set_sprout_receipt_token", func(call *host.Call) error {
		return n.strategy.SetSproutReceiptToken(call, receiptToken)
	})
}

// SetTreasuryStrategy changes the identity allowed to push fees into the treasury.
func (n *Node) SetTreasuryStrategy(ctx context.Context, caller, strategyIdentity types.Identity) (TxResult, error) {
	return n.contractTx(ctx, caller, TreasuryContractID, "set_strategy", func(call *host.Call) error {
		return n.treasury.SetStrategy(call, strategyIdentity)
	})
}

// SetProxyTarget upgrades the treasury proxy to a new implementation.
func (n *Node) SetProxyTarget(ctx context.Context, caller types.Identity, target types.ContractID) (TxResult, error) {
	return n.contractTx(ctx, caller, TreasuryContractID, "set_proxy_target", func(call *host.Call) error {
		return n.treasury.SetProxyTarget(call, target)
	})
}

// SetTokenApproval grants or revokes a strategy's right to mint and burn receipt tokens.
func (n *Node) SetTokenApproval(ctx context.Context, caller types.Identity, strategyID types.ContractID, approved bool) (TxResult, error) {
	return n.contractTx(ctx, caller, TokenContractID, "set_strategy", func(call *host.Call) error {
		return n.token.SetStrategy(call, strategyID, approved)
	})
}

func (n *Node) strategyTx(ctx context.Context, caller types.Identity, method string, fn func(call *host.Call) error) (TxResult, error) {
	return n.contractTx(ctx, caller, StrategyContractID, method, fn)
}

func (n *Node) contractTx(ctx context.Context, caller types.Identity, target types.ContractID, method string, fn func(call *host.Call) error) (TxResult, error) {
	receipt, err := n.chain.Execute(ctx, host.Tx{Caller: caller, Target: target, Method: method}, fn)
	return TxResult{Receipt: receipt}, err
}

// Faucet mints test funds to a wallet. Receipt assets cannot be minted this way.
func (n *Node) Faucet(to types.Identity, asset types.AssetID, amount uint64) error {
	if to.IsZero() {
		return fmt.Errorf("%w: faucet recipient cannot be unset", types.ErrInvalidParameter)
	}
	if asset == n.strategy.AssetID() || asset == n.token.AssetID() {
		return fmt.Errorf("%w: receipt assets are only issued by deposits", types.ErrUnauthorized)
	}
	if amount > n.faucetLimit {
		return fmt.Errorf("%w: faucet amount %d exceeds limit %d", types.ErrInvalidParameter, amount, n.faucetLimit)
	}
	if err := n.chain.Mint(to, asset, amount); err != nil {
		return err
	}
	n.logger.Info().Str("to", to.String()).Str("asset", asset.String()).Uint64("amount", amount).Msg("Faucet mint")
	return nil
}
