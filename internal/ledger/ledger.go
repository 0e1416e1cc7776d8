// Package ledger holds fungible-asset balances for every identity on the chain and the
// mint, burn and transfer primitives contracts use to move them.
//
// The ledger maintains sum(balances[asset]) == Supply(asset) for every asset at all times.
package ledger

import (
	"fmt"
	"maps"

	"github.com/sprout-finance/sprout/internal/types"
	"github.com/sprout-finance/sprout/internal/utils"
)

// Ledger is not safe for concurrent use; the host serializes access.
type Ledger struct {
	balances map[types.Identity]map[types.AssetID]uint64
	supply   map[types.AssetID]uint64
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[types.Identity]map[types.AssetID]uint64),
		supply:   make(map[types.AssetID]uint64),
	}
}

// Balance returns holder's balance of asset.
func (l *Ledger) Balance(holder types.Identity, asset types.AssetID) uint64 {
	return l.balances[holder][asset]
}

// Balances returns a copy of every non-zero balance held by holder.
func (l *Ledger) Balances(holder types.Identity) map[types.AssetID]uint64 {
	out := make(map[types.AssetID]uint64, len(l.balances[holder]))
	for asset, amount := range l.balances[holder] {
		if amount > 0 {
			out[asset] = amount
		}
	}
	return out
}

// Supply returns the total amount of asset in existence.
func (l *Ledger) Supply(asset types.AssetID) uint64 {
	return l.supply[asset]
}

// Mint creates amount of asset and credits it to the recipient.
func (l *Ledger) Mint(asset types.AssetID, amount uint64, to types.Identity) error {
	if to.IsZero() {
		return fmt.Errorf("mint to unset identity: %w", types.ErrInvalidParameter)
	}
	newSupply, err := utils.CheckedAdd(l.supply[asset], amount)
	if err != nil {
		return fmt.Errorf("mint %d of %s: %w", amount, asset, err)
	}
	newBalance, err := utils.CheckedAdd(l.Balance(to, asset), amount)
	if err != nil {
		return fmt.Errorf("mint %d of %s: %w", amount, asset, err)
	}
	l.supply[asset] = newSupply
	l.set(to, asset, newBalance)
	return nil
}

// Burn destroys amount of asset held by from.
func (l *Ledger) Burn(asset types.AssetID, amount uint64, from types.Identity) error {
	balance := l.Balance(from, asset)
	if balance < amount {
		return fmt.Errorf("%w: %s holds %d of %s, burn needs %d", types.ErrInsufficientBalance, from, balance, asset, amount)
	}
	l.set(from, asset, balance-amount)
	l.supply[asset] -= amount
	return nil
}

// Transfer moves amount of asset from one identity to another.
func (l *Ledger) Transfer(asset types.AssetID, amount uint64, from, to types.Identity) error {
	if to.IsZero() {
		return fmt.Errorf("transfer to unset identity: %w", types.ErrInvalidParameter)
	}
	balance := l.Balance(from, asset)
	if balance < amount {
		return fmt.Errorf("%w: %s holds %d of %s, transfer needs %d", types.ErrInsufficientBalance, from, balance, asset, amount)
	}
	if from == to || amount == 0 {
		return nil
	}
	l.set(from, asset, balance-amount)
	// Cannot overflow: the recipient's balance is bounded by the asset's supply.
	l.set(to, asset, l.Balance(to, asset)+amount)
	return nil
}

// Checkpoint captures the ledger and returns a closure that restores it.
func (l *Ledger) Checkpoint() func() {
	balances := make(map[types.Identity]map[types.AssetID]uint64, len(l.balances))
	for holder, assets := range l.balances {
		balances[holder] = maps.Clone(assets)
	}
	supply := maps.Clone(l.supply)
	return func() {
		l.balances = balances
		l.supply = supply
	}
}

func (l *Ledger) set(holder types.Identity, asset types.AssetID, amount uint64) {
	assets, ok := l.balances[holder]
	if !ok {
		assets = make(map[types.AssetID]uint64)
		l.balances[holder] = assets
	}
	if amount == 0 {
		delete(assets, asset)
		return
	}
	assets[asset] = amount
}
