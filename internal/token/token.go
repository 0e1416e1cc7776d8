// Package token implements the Sprout receipt token contract: an owner-managed allow list of
// strategies that may mint and burn the token's asset.
package token

import (
	"crypto/sha256"
	"fmt"
	"maps"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/ownership"
	"github.com/sprout-finance/sprout/internal/types"
)

// SproutToken is the receipt token contract.
type SproutToken struct {
	id         types.ContractID
	owner      ownership.Ownable
	strategies map[types.ContractID]bool
}

var _ host.Stateful = (*SproutToken)(nil)

func New(id types.ContractID) *SproutToken {
	return &SproutToken{id: id, strategies: make(map[types.ContractID]bool)}
}

func (t *SproutToken) ID() types.ContractID { return t.id }

// AssetID is the asset minted by the token contract: sha256(contract id ‖ zero sub id).
func (t *SproutToken) AssetID() types.AssetID { return DeriveAssetID(t.id) }

// DeriveAssetID returns the default asset of a contract.
func DeriveAssetID(contract types.ContractID) types.AssetID {
	var subID [32]byte
	h := sha256.New()
	h.Write(contract[:])
	h.Write(subID[:])
	var out types.AssetID
	copy(out[:], h.Sum(nil))
	return out
}

func (t *SproutToken) Checkpoint() func() {
	owner := t.owner
	strategies := maps.Clone(t.strategies)
	return func() {
		t.owner = owner
		t.strategies = strategies
	}
}

func (t *SproutToken) InitializeOwner(call *host.Call) error {
	if err := t.owner.InitializeOwner(call.Caller); err != nil {
		return err
	}
	call.Emit("OwnershipSet", map[string]any{"owner": call.Caller.String()})
	return nil
}

func (t *SproutToken) Owner() (types.Identity, bool) { return t.owner.Owner() }

// SetStrategy approves or revokes a strategy's mint and burn rights.
func (t *SproutToken) SetStrategy(call *host.Call, strategy types.ContractID, approved bool) error {
	if err := t.owner.RequireOwner(call.Caller); err != nil {
		return err
	}
	if approved {
		t.strategies[strategy] = true
	} else {
		delete(t.strategies, strategy)
	}
	call.Emit("StrategyApproval", map[string]any{"strategy": strategy.String(), "approved": approved})
	return nil
}

func (t *SproutToken) IsStrategyApproved(strategy types.ContractID) bool {
	return t.strategies[strategy]
}

// Mint creates amount of the token's asset for to. The caller must be an approved strategy contract.
func (t *SproutToken) Mint(call *host.Call, to types.Identity, amount uint64) error {
	if err := t.requireStrategy(call.Caller); err != nil {
		return err
	}
	if amount == 0 {
		return fmt.Errorf("%w: mint amount", types.ErrZeroAmount)
	}
	return call.Ledger().Mint(t.AssetID(), amount, to)
}

// Burn destroys amount of the token's asset held by the calling strategy.
func (t *SproutToken) Burn(call *host.Call, amount uint64) error {
	if err := t.requireStrategy(call.Caller); err != nil {
		return err
	}
	if amount == 0 {
		return fmt.Errorf("%w: burn amount", types.ErrZeroAmount)
	}
	return call.Ledger().Burn(t.AssetID(), amount, call.Caller)
}

// TotalSupply returns the outstanding supply of the token's asset.
func (t *SproutToken) TotalSupply(l *ledger.Ledger) uint64 {
	return l.Supply(t.AssetID())
}

func (t *SproutToken) requireStrategy(caller types.Identity) error {
	contract, ok := caller.AsContract()
	if !ok || !t.strategies[contract] {
		return fmt.Errorf("%w: %s is not an approved strategy", types.ErrUnauthorized, caller)
	}
	return nil
}
