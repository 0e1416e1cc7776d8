package strategy

import (
	"fmt"
	"slices"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/ownership"
	"github.com/sprout-finance/sprout/internal/types"
)

// InitializeTokenAllocations sets the basket weights. It runs once and only for the owner.
func (s *Strategy) InitializeTokenAllocations(call *host.Call, allocations []types.TokenAllocation) error {
	if err := s.owner.RequireOwner(call.Caller); err != nil {
		return err
	}
	if s.allocationState == ownership.Initialized {
		return fmt.Errorf("%w: token allocations already set", types.ErrAlreadyInitialized)
	}
	if err := validateAllocations(allocations, s.baseAsset); err != nil {
		return err
	}

	s.allocations = slices.Clone(allocations)
	s.allocationIndex = make(map[types.AssetID]int, len(allocations))
	for i, alloc := range s.allocations {
		s.allocationIndex[alloc.Token] = i
	}
	s.allocationState = ownership.Initialized

	call.Emit("TokenAllocationsInitialized", map[string]any{"count": len(allocations)})
	s.logger.Info().Int("allocations", len(allocations)).Msg("Token allocations initialized")
	return nil
}

// validateAllocations rejects allocation sets that could not be executed consistently.
func validateAllocations(allocations []types.TokenAllocation, baseAsset types.AssetID) error {
	if len(allocations) == 0 {
		return fmt.Errorf("%w: no allocations", types.ErrAllocationMismatch)
	}
	seen := make(map[types.AssetID]bool, len(allocations))
	var total uint64
	for _, alloc := range allocations {
		if seen[alloc.Token] {
			return fmt.Errorf("%w: duplicate token %s", types.ErrAllocationMismatch, alloc.Token)
		}
		seen[alloc.Token] = true

		if uint64(alloc.Percentage) > types.BasisPoints {
			return fmt.Errorf("%w: %s weight %d exceeds %d bps", types.ErrAllocationMismatch, alloc.Token, alloc.Percentage, types.BasisPoints)
		}
		if alloc.Token != baseAsset && !(alloc.PoolID.Contains(alloc.Token) && alloc.PoolID.Contains(baseAsset)) {
			return fmt.Errorf("%w: pool %s does not pair %s with the base asset", types.ErrAllocationMismatch, alloc.PoolID, alloc.Token)
		}
		total += uint64(alloc.Percentage)
	}
	if total != types.BasisPoints {
		return fmt.Errorf("%w: weights sum to %d, want %d", types.ErrAllocationMismatch, total, types.BasisPoints)
	}
	return nil
}

// TargetTokens returns the allocations in initialization order.
func (s *Strategy) TargetTokens() []types.TokenAllocation {
	return slices.Clone(s.allocations)
}

// TokenAllocation returns the allocation of asset, or false when the asset is not in the basket.
func (s *Strategy) TokenAllocation(asset types.AssetID) (types.TokenAllocation, bool) {
	i, ok := s.allocationIndex[asset]
	if !ok {
		return types.TokenAllocation{}, false
	}
	return s.allocations[i], true
}

// AllocationsInitialized reports whether InitializeTokenAllocations has succeeded.
func (s *Strategy) AllocationsInitialized() bool {
	return s.allocationState == ownership.Initialized
}
