// Package treasury implements the Treasury contract: an upgradeable proxy pointer guarded by its own
// owner, and the fee sink the strategy pays withdrawal fees into.
package treasury

import (
	"github.com/rs/zerolog"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/logger"
	"github.com/sprout-finance/sprout/internal/ownership"
	"github.com/sprout-finance/sprout/internal/types"
)

// Treasury holds the proxy state and the fee state. The two have independent owners.
type Treasury struct {
	id        types.ContractID
	baseAsset types.AssetID

	proxyOwner  ownership.Ownable
	proxyState  ownership.State
	proxyTarget types.ContractID

	feeOwner    ownership.Ownable
	constructed ownership.State
	strategy    types.Identity

	logger zerolog.Logger
}

var _ host.Stateful = (*Treasury)(nil)

// New creates an uninitialized treasury deployed at id, accepting fees in baseAsset.
func New(id types.ContractID, baseAsset types.AssetID) *Treasury {
	return &Treasury{
		id:        id,
		baseAsset: baseAsset,
		logger:    logger.GetForComponent("treasury"),
	}
}

// ID returns the contract id the treasury is deployed at.
func (t *Treasury) ID() types.ContractID { return t.id }

// Identity returns the treasury as a ledger identity.
func (t *Treasury) Identity() types.Identity { return types.ContractIdentity(t.id) }

// BaseAsset returns the only asset the treasury accepts.
func (t *Treasury) BaseAsset() types.AssetID { return t.baseAsset }

func (t *Treasury) Checkpoint() func() {
	saved := *t
	return func() { *t = saved }
}
