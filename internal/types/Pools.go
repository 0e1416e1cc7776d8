/*

This file contains the pool and allocation types: the AMM pool key and the per-asset target weights
that decide how a deposit is split across the basket.

*/

package types

import "fmt"

// BasisPoints is the scale every percentage in the protocol is expressed in (10000 = 100%).
const BasisPoints uint64 = 10000

// PoolID is the AMM's key for a trading pair and its curve type.
type PoolID struct {
	Asset0 AssetID `json:"asset_0" yaml:"asset_0"`
	Asset1 AssetID `json:"asset_1" yaml:"asset_1"`
	Stable bool    `json:"stable" yaml:"stable"`
}

// Contains reports whether the asset is one side of the pool.
func (p PoolID) Contains(asset AssetID) bool {
	return p.Asset0 == asset || p.Asset1 == asset
}

// Other returns the opposite side of the pool from the given asset.
func (p PoolID) Other(asset AssetID) (AssetID, bool) {
	switch asset {
	case p.Asset0:
		return p.Asset1, true
	case p.Asset1:
		return p.Asset0, true
	}
	return AssetID{}, false
}

func (p PoolID) String() string {
	curve := "volatile"
	if p.Stable {
		curve = "stable"
	}
	return fmt.Sprintf("%s/%s/%s", p.Asset0, p.Asset1, curve)
}

// TokenAllocation is the target weight of one basket asset and the pool used to acquire it.
type TokenAllocation struct {
	Token      AssetID `json:"token" yaml:"token"`
	PoolID     PoolID  `json:"pool_id" yaml:"pool_id"`
	Percentage uint16  `json:"percentage" yaml:"percentage"` // basis points, 0..10000
}
