package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/sprout-finance/sprout/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidGenesis = errors.New("invalid genesis")
)

// Fee recipient modes accepted in the genesis strategy section.
const (
	FeeRecipientTreasury = "treasury"
	FeeRecipientNone     = "none"
)

// Genesis describes the initial state of a simulated chain.
type Genesis struct {
	Owner    string          `yaml:"owner"`
	Wallets  []WalletGenesis `yaml:"wallets"`
	AMM      AMMGenesis      `yaml:"amm"`
	Strategy StrategyGenesis `yaml:"strategy"`
}

// WalletGenesis funds one wallet. Balances are keyed by asset symbol or hex id.
type WalletGenesis struct {
	Address  string            `yaml:"address"`
	Balances map[string]uint64 `yaml:"balances"`
}

// AMMGenesis configures the engine fees and the pools seeded at startup.
type AMMGenesis struct {
	VolatileFeeBps uint64        `yaml:"volatile_fee_bps"`
	StableFeeBps   uint64        `yaml:"stable_fee_bps"`
	Pools          []PoolGenesis `yaml:"pools"`
}

// PoolGenesis names a pool by its asset symbols.
type PoolGenesis struct {
	Asset0   string `yaml:"asset_0"`
	Asset1   string `yaml:"asset_1"`
	Stable   bool   `yaml:"stable"`
	Reserve0 uint64 `yaml:"reserve_0"`
	Reserve1 uint64 `yaml:"reserve_1"`
}

// StrategyGenesis holds the strategy's initial parameters.
type StrategyGenesis struct {
	WithdrawalFeeBps     uint64              `yaml:"withdrawal_fee_bps"`
	SlippageToleranceBps uint64              `yaml:"slippage_tolerance_bps"`
	FeeRecipient         string              `yaml:"fee_recipient"` // "treasury", "none" or an identity
	Allocations          []AllocationGenesis `yaml:"allocations"`
}

// AllocationGenesis is one basket weight. Pool is ignored for the base asset.
type AllocationGenesis struct {
	Token      string      `yaml:"token"`
	Pool       PoolGenesis `yaml:"pool"`
	Percentage uint16      `yaml:"percentage"`
}

// LoadGenesis reads a YAML genesis from path, or returns DefaultGenesis when path is empty.
// Environment overrides are applied afterwards and the result is validated.
func LoadGenesis(path string) (Genesis, error) {
	g := DefaultGenesis()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Genesis{}, fmt.Errorf("failed to read genesis file: %w", err)
		}
		g = Genesis{}
		if err := yaml.Unmarshal(raw, &g); err != nil {
			return Genesis{}, fmt.Errorf("failed to parse genesis file: %w", err)
		}
		log.Info().Str("path", path).Msg("Genesis loaded from file")
	}
	if err := applyEnvOverrides(&g); err != nil {
		return Genesis{}, err
	}
	if err := g.Validate(); err != nil {
		return Genesis{}, err
	}
	return g, nil
}

// applyEnvOverrides lets operators change the owner and the strategy parameters without editing the file.
func applyEnvOverrides(g *Genesis) error {
	if owner := getEnvOrDefault("SPROUT_OWNER", ""); owner != "" {
		g.Owner = owner
	}
	var err error
	if g.Strategy.WithdrawalFeeBps, err = getEnvAsUint64OrDefault("SPROUT_WITHDRAWAL_FEE_BPS", g.Strategy.WithdrawalFeeBps); err != nil {
		return err
	}
	if g.Strategy.SlippageToleranceBps, err = getEnvAsUint64OrDefault("SPROUT_SLIPPAGE_BPS", g.Strategy.SlippageToleranceBps); err != nil {
		return err
	}
	return nil
}

// Validate resolves every symbol and address so a node never boots from a half-valid genesis.
func (g Genesis) Validate() error {
	if _, err := g.OwnerIdentity(); err != nil {
		return err
	}
	for _, w := range g.Wallets {
		if _, err := w.Identity(); err != nil {
			return err
		}
		for symbol := range w.Balances {
			if _, err := ResolveAsset(symbol); err != nil {
				return fmt.Errorf("%w: wallet %s: %v", ErrInvalidGenesis, w.Address, err)
			}
		}
	}
	if g.AMM.VolatileFeeBps >= types.BasisPoints || g.AMM.StableFeeBps >= types.BasisPoints {
		return fmt.Errorf("%w: amm fees must be below %d bps", ErrInvalidGenesis, types.BasisPoints)
	}
	for _, p := range g.AMM.Pools {
		if _, err := p.PoolID(); err != nil {
			return err
		}
	}
	if g.Strategy.WithdrawalFeeBps > types.BasisPoints || g.Strategy.SlippageToleranceBps > types.BasisPoints {
		return fmt.Errorf("%w: strategy fee and slippage are capped at %d bps", ErrInvalidGenesis, types.BasisPoints)
	}
	if _, _, err := g.Strategy.FeeRecipientIdentity(); err != nil {
		return err
	}
	if len(g.Strategy.Allocations) == 0 {
		return fmt.Errorf("%w: strategy needs at least one allocation", ErrInvalidGenesis)
	}
	for _, a := range g.Strategy.Allocations {
		if _, err := a.Allocation(); err != nil {
			return err
		}
	}
	return nil
}

// OwnerIdentity parses the owner address.
func (g Genesis) OwnerIdentity() (types.Identity, error) {
	return parseWallet(g.Owner, "owner")
}

// Identity parses the wallet address.
func (w WalletGenesis) Identity() (types.Identity, error) {
	return parseWallet(w.Address, "wallet")
}

// Coins resolves the wallet balances.
func (w WalletGenesis) Coins() ([]types.Coin, error) {
	coins := make([]types.Coin, 0, len(w.Balances))
	for symbol, amount := range w.Balances {
		asset, err := ResolveAsset(symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: wallet %s: %v", ErrInvalidGenesis, w.Address, err)
		}
		coins = append(coins, types.Coin{Asset: asset, Amount: amount})
	}
	return coins, nil
}

// PoolID resolves the pool's asset symbols.
func (p PoolGenesis) PoolID() (types.PoolID, error) {
	a0, err := ResolveAsset(p.Asset0)
	if err != nil {
		return types.PoolID{}, fmt.Errorf("%w: pool: %v", ErrInvalidGenesis, err)
	}
	a1, err := ResolveAsset(p.Asset1)
	if err != nil {
		return types.PoolID{}, fmt.Errorf("%w: pool: %v", ErrInvalidGenesis, err)
	}
	if a0 == a1 {
		return types.PoolID{}, fmt.Errorf("%w: pool %s/%s pairs an asset with itself", ErrInvalidGenesis, p.Asset0, p.Asset1)
	}
	return types.PoolID{Asset0: a0, Asset1: a1, Stable: p.Stable}, nil
}

// Allocation resolves the allocation's token and pool.
func (a AllocationGenesis) Allocation() (types.TokenAllocation, error) {
	token, err := ResolveAsset(a.Token)
	if err != nil {
		return types.TokenAllocation{}, fmt.Errorf("%w: allocation: %v", ErrInvalidGenesis, err)
	}
	alloc := types.TokenAllocation{Token: token, Percentage: a.Percentage}
	if token == types.BaseAssetID {
		return alloc, nil
	}
	if alloc.PoolID, err = a.Pool.PoolID(); err != nil {
		return types.TokenAllocation{}, err
	}
	return alloc, nil
}

// FeeRecipientIdentity returns the configured fee recipient. useTreasury is true when fees go to the
// deployed fee treasury; an unset identity with useTreasury false means fees stay in the strategy.
func (s StrategyGenesis) FeeRecipientIdentity() (recipient types.Identity, useTreasury bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s.FeeRecipient)) {
	case "", FeeRecipientTreasury:
		return types.Identity{}, true, nil
	case FeeRecipientNone:
		return types.Identity{}, false, nil
	}
	id, err := types.ParseIdentity(s.FeeRecipient)
	if err != nil {
		return types.Identity{}, false, fmt.Errorf("%w: fee recipient: %v", ErrInvalidGenesis, err)
	}
	return id, false, nil
}

func parseWallet(s, what string) (types.Identity, error) {
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Identity{}, fmt.Errorf("%w: %s address %q: %v", ErrInvalidGenesis, what, s, err)
	}
	return types.AddressIdentity(addr), nil
}
