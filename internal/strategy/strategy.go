// Package strategy implements the Sprout strategy vault: it turns base-asset deposits into a basket of
// assets according to owner-configured allocations, issues a receipt asset 1:1 with deposits, and
// redeems receipts for a pro-rata share of the basket converted back to the base asset.
package strategy

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/logger"
	"github.com/sprout-finance/sprout/internal/ownership"
	"github.com/sprout-finance/sprout/internal/token"
	"github.com/sprout-finance/sprout/internal/types"
)

const (
	DefaultWithdrawalFee     uint64 = 0
	DefaultSlippageTolerance uint64 = 500
)

// Strategy is the vault contract. All of its state lives in this struct.
type Strategy struct {
	id        types.ContractID
	baseAsset types.AssetID

	owner       ownership.Ownable
	constructed ownership.State

	ammContract   types.ContractID
	receiptToken  types.ContractID
	feeTreasury   types.Identity
	withdrawalFee uint64
	slippage      uint64

	allocationState ownership.State
	allocations     []types.TokenAllocation
	allocationIndex map[types.AssetID]int

	logger zerolog.Logger
}

var _ host.Stateful = (*Strategy)(nil)

// Config holds the deployment parameters of a strategy.
type Config struct {
	ID          types.ContractID
	BaseAsset   types.AssetID
	AMMContract types.ContractID
}

// New creates a strategy with default fee and slippage and no allocations.
func New(cfg Config) (*Strategy, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("strategy configuration validation failed: %w", err)
	}
	return &Strategy{
		id:              cfg.ID,
		baseAsset:       cfg.BaseAsset,
		ammContract:     cfg.AMMContract,
		withdrawalFee:   DefaultWithdrawalFee,
		slippage:        DefaultSlippageTolerance,
		allocationIndex: make(map[types.AssetID]int),
		logger:          logger.GetForComponent("strategy"),
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.ID == (types.ContractID{}) {
		return fmt.Errorf("%w: strategy id cannot be empty", types.ErrInvalidParameter)
	}
	if cfg.AMMContract == cfg.ID {
		return fmt.Errorf("%w: amm contract cannot be the strategy itself", types.ErrInvalidParameter)
	}
	return nil
}

func (s *Strategy) Checkpoint() func() {
	saved := *s
	saved.allocations = slices.Clone(s.allocations)
	saved.allocationIndex = maps.Clone(s.allocationIndex)
	return func() { *s = saved }
}

func (s *Strategy) ID() types.ContractID { return s.id }

func (s *Strategy) Identity() types.Identity { return types.ContractIdentity(s.id) }

func (s *Strategy) BaseAsset() types.AssetID { return s.baseAsset }

// AssetID returns the receipt asset: the receipt token's asset when a token is set, otherwise the
// strategy's own default asset.
func (s *Strategy) AssetID() types.AssetID { return s.receiptAssetFor(s.receiptToken) }

func (s *Strategy) receiptAssetFor(receiptToken types.ContractID) types.AssetID {
	if receiptToken == (types.ContractID{}) {
		return token.DeriveAssetID(s.id)
	}
	return token.DeriveAssetID(receiptToken)
}

// TotalSupply returns the outstanding receipt supply.
func (s *Strategy) TotalSupply(l *ledger.Ledger) uint64 { return l.Supply(s.AssetID()) }

// Constructor records the receipt token contract and the fee treasury. It runs once.
func (s *Strategy) Constructor(call *host.Call, receiptToken types.ContractID, feeTreasury types.Identity) error {
	if s.constructed == ownership.Initialized {
		return fmt.Errorf("%w: strategy already constructed", types.ErrAlreadyInitialized)
	}
	if err := s.checkReceiptToken(call, receiptToken); err != nil {
		return err
	}
	s.constructed = ownership.Initialized
	s.receiptToken = receiptToken
	s.feeTreasury = feeTreasury

	call.Emit("StrategyConstructed", map[string]any{
		"receipt_token": receiptToken.String(),
		"fee_treasury":  feeTreasury.String(),
	})
	return nil
}

func (s *Strategy) InitializeOwner(call *host.Call) error {
	if err := s.owner.InitializeOwner(call.Caller); err != nil {
		return err
	}
	call.Emit("OwnershipSet", map[string]any{"owner": call.Caller.String()})
	s.logger.Info().Str("owner", call.Caller.String()).Msg("Strategy owner initialized")
	return nil
}

func (s *Strategy) SetOwner(call *host.Call, newOwner types.Identity) error {
	if err := s.owner.SetOwner(call.Caller, newOwner); err != nil {
		return err
	}
	call.Emit("OwnershipTransferred", map[string]any{"previous": call.Caller.String(), "owner": newOwner.String()})
	return nil
}

func (s *Strategy) Owner() (types.Identity, bool) { return s.owner.Owner() }

func (s *Strategy) SetAMMContract(call *host.Call, amm types.ContractID) error {
	if err := s.owner.RequireOwner(call.Caller); err != nil {
		return err
	}
	if amm == s.id {
		return fmt.Errorf("%w: amm contract cannot be the strategy itself", types.ErrInvalidParameter)
	}
	s.ammContract = amm
	call.Emit("AMMContractSet", map[string]any{"amm": amm.String()})
	return nil
}

func (s *Strategy) AMMContract() types.ContractID { return s.ammContract }

// SetSproutReceiptToken switches the contract that issues receipts. The unset id makes the strategy
// issue its own asset. The switch is refused while receipts of the current asset are outstanding.
func (s *Strategy) SetSproutReceiptToken(call *host.Call, receiptToken types.ContractID) error {
	if err := s.owner.RequireOwner(call.Caller); err != nil {
		return err
	}
	if err := s.checkReceiptToken(call, receiptToken); err != nil {
		return err
	}
	s.receiptToken = receiptToken
	call.Emit("ReceiptTokenSet", map[string]any{"receipt_token": receiptToken.String()})
	return nil
}

func (s *Strategy) SproutReceiptToken() types.ContractID { return s.receiptToken }

// SetFeeTreasuryContract sets where withdrawal fees are sent. An unset identity keeps fees in the basket.
func (s *Strategy) SetFeeTreasuryContract(call *host.Call, treasury types.Identity) error {
	if err := s.owner.RequireOwner(call.Caller); err != nil {
		return err
	}
	s.feeTreasury = treasury
	call.Emit("FeeTreasurySet", map[string]any{"fee_treasury": treasury.String()})
	return nil
}

func (s *Strategy) FeeTreasuryContract() types.Identity { return s.feeTreasury }

// SetWithdrawalFee sets the withdrawal fee in basis points, at most 10000.
func (s *Strategy) SetWithdrawalFee(call *host.Call, feeBps uint64) error {
	if err := s.owner.RequireOwner(call.Caller); err != nil {
		return err
	}
	if feeBps > types.BasisPoints {
		return fmt.Errorf("%w: withdrawal fee %d exceeds %d bps", types.ErrInvalidParameter, feeBps, types.BasisPoints)
	}
	s.withdrawalFee = feeBps
	call.Emit("WithdrawalFeeSet", map[string]any{"fee_bps": feeBps})
	return nil
}

func (s *Strategy) WithdrawalFee() uint64 { return s.withdrawalFee }

// UpdateSlippageTolerance sets the accepted shortfall from a quote, in basis points, at most 10000.
func (s *Strategy) UpdateSlippageTolerance(call *host.Call, slippageBps uint64) error {
	if err := s.owner.RequireOwner(call.Caller); err != nil {
		return err
	}
	if slippageBps > types.BasisPoints {
		return fmt.Errorf("%w: slippage %d exceeds %d bps", types.ErrInvalidParameter, slippageBps, types.BasisPoints)
	}
	s.slippage = slippageBps
	call.Emit("SlippageToleranceSet", map[string]any{"slippage_bps": slippageBps})
	return nil
}

func (s *Strategy) SlippageTolerance() uint64 { return s.slippage }

// Holdings returns the strategy's balance of every basket asset: the allocation tokens and the base asset.
func (s *Strategy) Holdings(l *ledger.Ledger) map[types.AssetID]uint64 {
	out := make(map[types.AssetID]uint64, len(s.allocations)+1)
	for _, asset := range s.basketAssets() {
		out[asset] = l.Balance(s.Identity(), asset)
	}
	return out
}

// basketAssets returns the distinct allocation tokens in initialization order followed by the base asset.
func (s *Strategy) basketAssets() []types.AssetID {
	assets := make([]types.AssetID, 0, len(s.allocations)+1)
	for _, alloc := range s.allocations {
		if alloc.Token != s.baseAsset {
			assets = append(assets, alloc.Token)
		}
	}
	return append(assets, s.baseAsset)
}
