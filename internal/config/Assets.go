/*

This file contains the mapping of asset symbols to their asset ids.

Genesis files, the REST API and sproutctl accept either a symbol from this table or a raw 0x-prefixed asset id.
BASE is always the chain's native asset. Every other symbol maps to the sha256 of its namespaced name so the ids
are stable across runs.

*/

package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/sprout-finance/sprout/internal/types"
)

var ErrUnknownAsset = errors.New("unknown asset symbol")

var (
	AssetSymbols = map[string]types.AssetID{
		"BASE": types.BaseAssetID,
		"USDC": SymbolAssetID("USDC"),
		"USDT": SymbolAssetID("USDT"),
		"ETH":  SymbolAssetID("ETH"),
		"BTC":  SymbolAssetID("BTC"),

		"WETH": SymbolAssetID("ETH"), // alias
	}
)

// SymbolAssetID derives the asset id used for a non-native symbol.
func SymbolAssetID(symbol string) types.AssetID {
	return types.AssetID(sha256.Sum256([]byte("sprout:asset:" + strings.ToUpper(symbol))))
}

// ResolveAsset accepts a symbol from AssetSymbols or a hex asset id.
func ResolveAsset(s string) (types.AssetID, error) {
	s = strings.TrimSpace(s)
	if id, ok := AssetSymbols[strings.ToUpper(s)]; ok {
		return id, nil
	}
	if strings.HasPrefix(s, "0x") {
		return types.ParseAssetID(s)
	}
	return types.AssetID{}, fmt.Errorf("%w: %q", ErrUnknownAsset, s)
}

// AssetSymbol returns the canonical symbol of an asset, or its hex id when it has none.
func AssetSymbol(id types.AssetID) string {
	best := ""
	for symbol, known := range AssetSymbols {
		if known == id && (best == "" || symbol < best) {
			best = symbol
		}
	}
	if best == "" {
		return id.String()
	}
	return best
}
