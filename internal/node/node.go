// Package node boots a simulated Sprout chain from a genesis and exposes the contract entry points as
// service methods for the REST API and the run loop.
package node

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprout-finance/sprout/internal/amm"
	"github.com/sprout-finance/sprout/internal/config"
	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/logger"
	"github.com/sprout-finance/sprout/internal/metrics"
	"github.com/sprout-finance/sprout/internal/state"
	"github.com/sprout-finance/sprout/internal/strategy"
	"github.com/sprout-finance/sprout/internal/token"
	"github.com/sprout-finance/sprout/internal/treasury"
	"github.com/sprout-finance/sprout/internal/types"
)

// Contract ids of the deployment. They are derived from fixed names so they are stable across restarts.
var (
	AMMContractID          = ContractIDFor("amm")
	TreasuryContractID     = ContractIDFor("treasury")
	TreasuryImplementation = ContractIDFor("treasury-impl-v1")
	TokenContractID        = ContractIDFor("sprout-token")
	StrategyContractID     = ContractIDFor("strategy")
)

// ContractIDFor derives a contract id from a deployment name.
func ContractIDFor(name string) types.ContractID {
	return types.ContractID(sha256.Sum256([]byte("sprout:contract:" + name)))
}

// Node owns the chain and every deployed contract.
type Node struct {
	logger zerolog.Logger

	chain    *host.Chain
	engine   *amm.Engine
	treasury *treasury.Treasury
	token    *token.SproutToken
	strategy *strategy.Strategy

	owner       types.Identity
	recorder    state.Recorder
	indicators  metrics.Indicators
	faucetLimit uint64

	cycleCount int
}

// Config holds the configuration for creating a new Node instance
type Config struct {
	Genesis     config.Genesis
	Recorder    state.Recorder
	Indicators  metrics.Indicators
	FaucetLimit uint64
	Clock       func() time.Time
}

// NewNode deploys the contracts and replays the genesis as owner transactions.
func NewNode(ctx context.Context, cfg Config) (*Node, error) {
	if err := validateNodeConfig(&cfg); err != nil {
		return nil, fmt.Errorf("node configuration validation failed: %w", err)
	}
	owner, err := cfg.Genesis.OwnerIdentity()
	if err != nil {
		return nil, err
	}

	n := &Node{
		logger:      logger.GetForComponent("node"),
		owner:       owner,
		recorder:    cfg.Recorder,
		indicators:  cfg.Indicators,
		faucetLimit: cfg.FaucetLimit,
	}
	n.chain = host.NewChain(host.Config{Sink: cfg.Recorder, Indicators: cfg.Indicators, Clock: cfg.Clock})

	if err := n.deploy(cfg.Genesis); err != nil {
		return nil, err
	}
	if err := n.fundWallets(cfg.Genesis); err != nil {
		return nil, err
	}
	if err := n.applyGenesis(ctx, cfg.Genesis); err != nil {
		return nil, err
	}
	n.refreshGauges()

	n.logger.Info().
		Str("owner", owner.String()).
		Str("strategy", StrategyContractID.String()).
		Uint64("height", n.chain.Height()).
		Msg("Node booted from genesis")
	return n, nil
}

// validateNodeConfig validates the node configuration and fills defaults
func validateNodeConfig(cfg *Config) error {
	if err := cfg.Genesis.Validate(); err != nil {
		return err
	}
	if cfg.Recorder == nil {
		cfg.Recorder = state.NewNoopRecorder()
	}
	if cfg.Indicators == nil {
		cfg.Indicators = metrics.NoopIndicators{}
	}
	if cfg.FaucetLimit == 0 {
		cfg.FaucetLimit = config.DefaultFaucetLimit
	}
	return nil
}

func (n *Node) deploy(g config.Genesis) error {
	var err error
	n.engine, err = amm.NewEngine(AMMContractID, amm.Config{
		VolatileFeeBps: g.AMM.VolatileFeeBps,
		StableFeeBps:   g.AMM.StableFeeBps,
	})
	if err != nil {
		return err
	}
	n.treasury = treasury.New(TreasuryContractID, types.BaseAssetID)
	n.token = token.New(TokenContractID)
	n.strategy, err = strategy.New(strategy.Config{
		ID:          StrategyContractID,
		BaseAsset:   types.BaseAssetID,
		AMMContract: AMMContractID,
	})
	if err != nil {
		return err
	}

	deployments := []struct {
		id       types.ContractID
		contract host.Stateful
	}{
		{AMMContractID, n.engine},
		{TreasuryContractID, n.treasury},
		{TokenContractID, n.token},
		{StrategyContractID, n.strategy},
	}
	for _, d := range deployments {
		if err := n.chain.Deploy(d.id, d.contract); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) fundWallets(g config.Genesis) error {
	for _, w := range g.Wallets {
		who, err := w.Identity()
		if err != nil {
			return err
		}
		coins, err := w.Coins()
		if err != nil {
			return err
		}
		for _, c := range coins {
			if c.Amount == 0 {
				continue
			}
			if err := n.chain.Mint(who, c.Asset, c.Amount); err != nil {
				return fmt.Errorf("failed to fund wallet %s: %w", w.Address, err)
			}
		}
	}
	return nil
}

// applyGenesis runs the deployment transactions in order. Any failure aborts the boot.
func (n *Node) applyGenesis(ctx context.Context, g config.Genesis) error {
	for _, p := range g.AMM.Pools {
		pool, err := p.PoolID()
		if err != nil {
			return err
		}
		reserve0, reserve1 := p.Reserve0, p.Reserve1
		if err := n.ownerTx(ctx, AMMContractID, "create_pool", func(call *host.Call) error {
			if err := n.engine.CreatePool(call, pool); err != nil {
				return err
			}
			if reserve0 == 0 && reserve1 == 0 {
				return nil
			}
			engine := types.ContractIdentity(AMMContractID)
			if err := call.Ledger().Transfer(pool.Asset0, reserve0, n.owner, engine); err != nil {
				return err
			}
			if err := call.Ledger().Transfer(pool.Asset1, reserve1, n.owner, engine); err != nil {
				return err
			}
			_, _, err := n.engine.AddLiquidity(call, pool)
			return err
		}); err != nil {
			return err
		}
	}

	if err := n.ownerTx(ctx, TreasuryContractID, "initialize", func(call *host.Call) error {
		return n.treasury.Initialize(call, TreasuryImplementation)
	}); err != nil {
		return err
	}
	if err := n.ownerTx(ctx, TreasuryContractID, "constructor", func(call *host.Call) error {
		return n.treasury.Constructor(call, n.owner, types.ContractIdentity(StrategyContractID))
	}); err != nil {
		return err
	}

	if err := n.ownerTx(ctx, TokenContractID, "initialize_owner", n.token.InitializeOwner); err != nil {
		return err
	}
	if err := n.ownerTx(ctx, TokenContractID, "set_strategy", func(call *host.Call) error {
		return n.token.SetStrategy(call, StrategyContractID, true)
	}); err != nil {
		return err
	}

	recipient, useTreasury, err := g.Strategy.FeeRecipientIdentity()
	if err != nil {
		return err
	}
	if useTreasury {
		recipient = types.ContractIdentity(TreasuryContractID)
	}
	allocations := make([]types.TokenAllocation, 0, len(g.Strategy.Allocations))
	for _, a := range g.Strategy.Allocations {
		alloc, err := a.Allocation()
		if err != nil {
			return err
		}
		allocations = append(allocations, alloc)
	}

	steps := []struct {
		method string
		fn     func(call *host.Call) error
	}{
		{"initialize_owner", n.strategy.InitializeOwner},
		{"constructor", func(call *host.Call) error {
			return n.strategy.Constructor(call, TokenContractID, recipient)
		}},
		{"set_withdrawal_fee", func(call *host.Call) error {
			return n.strategy.SetWithdrawalFee(call, g.Strategy.WithdrawalFeeBps)
		}},
		{"update_slippage_tolerance", func(call *host.Call) error {
			return n.strategy.UpdateSlippageTolerance(call, g.Strategy.SlippageToleranceBps)
		}},
		{"initialize_token_allocations", func(call *host.Call) error {
			return n.strategy.InitializeTokenAllocations(call, allocations)
		}},
	}
	for _, step := range steps {
		if err := n.ownerTx(ctx, StrategyContractID, step.method, step.fn); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) ownerTx(ctx context.Context, target types.ContractID, method string, fn func(call *host.Call) error) error {
	_, err := n.chain.Execute(ctx, host.Tx{Caller: n.owner, Target: target, Method: method}, fn)
	if err != nil {
		return fmt.Errorf("genesis %s failed: %w", method, err)
	}
	return nil
}

// Owner returns the genesis owner of every contract.
func (n *Node) Owner() types.Identity { return n.owner }

// Close releases the recorder.
func (n *Node) Close() error {
	return n.recorder.Close()
}
