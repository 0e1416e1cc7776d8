package amm

import (
	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/types"
)

// Swapper is the swap entry point of an AMM contract. The input asset must already have been
// transferred to the AMM inside the same transaction; Swap then sends the requested outputs to
// recipient and fails if the pool invariant would be violated.
// This interface abstracts away the specific pool implementation, allowing a deterministic
// engine in simulations and fakes in tests.
type Swapper interface {
	Swap(call *host.Call, pool types.PoolID, amount0Out, amount1Out uint64, recipient types.Identity, data []byte) error
}

// Quoter prices a swap without executing it.
type Quoter interface {
	// Quote returns the output received for amountIn of assetIn in the given pool.
	Quote(pool types.PoolID, assetIn types.AssetID, amountIn uint64) (uint64, error)
}

// Exchange is an AMM contract the strategy can price and trade against.
type Exchange interface {
	Swapper
	Quoter

	// ID returns the contract id the AMM is deployed at. Swap inputs are sent to it.
	ID() types.ContractID
}

// OutputAmounts maps a desired output of assetOut onto the (amount0Out, amount1Out) pair Swap expects.
func OutputAmounts(pool types.PoolID, assetOut types.AssetID, amount uint64) (uint64, uint64) {
	if assetOut == pool.Asset0 {
		return amount, 0
	}
	return 0, amount
}
