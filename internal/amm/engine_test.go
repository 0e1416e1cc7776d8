package amm

import (
	"context"
	"slices"
	"strings"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/types"
)

var (
	engineID = types.ContractID{0xa3}
	trader   = types.AddressIdentity(types.Address{0x01})
	lp       = types.AddressIdentity(types.Address{0x02})
	usdc     = types.AssetID{0x75}

	volatilePool = types.PoolID{Asset0: types.BaseAssetID, Asset1: usdc}
	stablePool   = types.PoolID{Asset0: types.BaseAssetID, Asset1: usdc, Stable: true}
)

func setupEngine(t *testing.T, cfg Config) (*host.Chain, *Engine) {
	t.Helper()
	chain := host.NewChain(host.Config{})
	engine, err := NewEngine(engineID, cfg)
	require.NoError(t, err)
	require.NoError(t, chain.Deploy(engineID, engine))

	for _, who := range []types.Identity{trader, lp} {
		require.NoError(t, chain.Mint(who, types.BaseAssetID, 10_000_000))
		require.NoError(t, chain.Mint(who, usdc, 10_000_000))
	}
	for _, pool := range []types.PoolID{volatilePool, stablePool} {
		seed(t, chain, engine, pool, 1_000_000, 1_000_000)
	}
	return chain, engine
}

func seed(t *testing.T, chain *host.Chain, engine *Engine, pool types.PoolID, amount0, amount1 uint64) {
	t.Helper()
	_, err := chain.Execute(context.Background(), host.Tx{Caller: lp, Target: engineID, Method: "add_liquidity"},
		func(call *host.Call) error {
			if !slices.Contains(engine.Pools(), pool) {
				if err := engine.CreatePool(call, pool); err != nil {
					return err
				}
			}
			l := call.Ledger()
			if err := l.Transfer(pool.Asset0, amount0, lp, engine.identity()); err != nil {
				return err
			}
			if err := l.Transfer(pool.Asset1, amount1, lp, engine.identity()); err != nil {
				return err
			}
			_, _, err := engine.AddLiquidity(call, pool)
			return err
		})
	require.NoError(t, err)
}

// swapExact sends amountIn of assetIn from the trader to the engine and requests out of the other asset.
func swapExact(chain *host.Chain, engine *Engine, pool types.PoolID, assetIn types.AssetID, amountIn, out uint64) error {
	_, err := chain.Execute(context.Background(), host.Tx{Caller: trader, Target: engineID, Method: "swap"},
		func(call *host.Call) error {
			if err := call.Ledger().Transfer(assetIn, amountIn, trader, engine.identity()); err != nil {
				return err
			}
			assetOut, _ := pool.Other(assetIn)
			a0, a1 := OutputAmounts(pool, assetOut, out)
			return engine.Swap(call, pool, a0, a1, trader, nil)
		})
	return err
}

func product(t *testing.T, engine *Engine, pool types.PoolID) sdkmath.Int {
	t.Helper()
	r0, r1, err := engine.Reserves(pool)
	require.NoError(t, err)
	return sdkmath.NewIntFromUint64(r0).Mul(sdkmath.NewIntFromUint64(r1))
}

func TestQuoteConstantProduct(t *testing.T) {
	_, engine := setupEngine(t, Config{})

	out, err := engine.Quote(volatilePool, types.BaseAssetID, 1_000)
	require.NoError(t, err)
	// 1000 * 1e6 / (1e6 + 1000)
	assert.Equal(t, uint64(999), out)

	out, err = engine.Quote(stablePool, usdc, 1_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), out)
}

func TestQuoteWithFee(t *testing.T) {
	_, engine := setupEngine(t, Config{VolatileFeeBps: 30, StableFeeBps: 5})

	out, err := engine.Quote(stablePool, usdc, 10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(9_995), out)

	out, err = engine.Quote(volatilePool, usdc, 10_000)
	require.NoError(t, err)
	assert.Less(t, out, uint64(9_970))
}

func TestQuoteErrors(t *testing.T) {
	_, engine := setupEngine(t, Config{})

	_, err := engine.Quote(types.PoolID{Asset0: usdc, Asset1: types.AssetID{0x99}}, usdc, 1)
	assert.ErrorIs(t, err, types.ErrInvalidParameter)

	_, err = engine.Quote(volatilePool, types.AssetID{0x99}, 1)
	assert.ErrorIs(t, err, types.ErrWrongAsset)

	_, err = engine.Quote(volatilePool, usdc, 0)
	assert.ErrorIs(t, err, types.ErrZeroAmount)

	_, err = engine.Quote(stablePool, usdc, 2_000_000)
	assert.ErrorIs(t, err, types.ErrInsufficientLiquidity)
}

func TestSwapAtQuoteKeepsProduct(t *testing.T) {
	chain, engine := setupEngine(t, Config{VolatileFeeBps: 30})
	before := product(t, engine, volatilePool)

	quote, err := engine.Quote(volatilePool, types.BaseAssetID, 50_000)
	require.NoError(t, err)
	require.NoError(t, swapExact(chain, engine, volatilePool, types.BaseAssetID, 50_000, quote))

	assert.True(t, product(t, engine, volatilePool).GTE(before))
	r0, r1, err := engine.Reserves(volatilePool)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_050_000), r0)
	assert.Equal(t, uint64(1_000_000)-quote, r1)

	require.NoError(t, chain.View(func(l *ledger.Ledger) error {
		assert.Equal(t, uint64(10_000_000)+quote, l.Balance(trader, usdc))
		assert.Equal(t, uint64(9_950_000), l.Balance(trader, types.BaseAssetID))
		return nil
	}))
}

func TestSwapAboveQuoteFailsAndReverts(t *testing.T) {
	chain, engine := setupEngine(t, Config{})

	quote, err := engine.Quote(volatilePool, usdc, 10_000)
	require.NoError(t, err)
	err = swapExact(chain, engine, volatilePool, usdc, 10_000, quote+1)
	assert.ErrorIs(t, err, types.ErrInsufficientLiquidity)

	r0, r1, err := engine.Reserves(volatilePool)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), r0)
	assert.Equal(t, uint64(1_000_000), r1)
	require.NoError(t, chain.View(func(l *ledger.Ledger) error {
		assert.Equal(t, uint64(10_000_000), l.Balance(trader, usdc))
		return nil
	}))
}

func TestSwapWithoutInputFails(t *testing.T) {
	chain, engine := setupEngine(t, Config{})
	err := swapExact(chain, engine, volatilePool, usdc, 0, 10)
	assert.ErrorIs(t, err, types.ErrZeroAmount)
}

func TestSwapRejectsCallbackData(t *testing.T) {
	chain, engine := setupEngine(t, Config{})
	_, err := chain.Execute(context.Background(), host.Tx{Caller: trader, Target: engineID, Method: "swap"},
		func(call *host.Call) error {
			return engine.Swap(call, volatilePool, 1, 0, trader, []byte{1})
		})
	assert.ErrorIs(t, err, types.ErrInvalidParameter)
}

func TestSwapDrainingReserveFails(t *testing.T) {
	chain, engine := setupEngine(t, Config{})
	err := swapExact(chain, engine, stablePool, usdc, 5_000_000, 1_000_000)
	assert.ErrorIs(t, err, types.ErrInsufficientLiquidity)
}

func TestRepeatedSwapsNeverDecreaseProduct(t *testing.T) {
	chain, engine := setupEngine(t, Config{VolatileFeeBps: 30})
	last := product(t, engine, volatilePool)

	for i, amount := range []uint64{1, 17, 1_000, 99_999, 3, 250_000} {
		assetIn := types.BaseAssetID
		if i%2 == 1 {
			assetIn = usdc
		}
		quote, err := engine.Quote(volatilePool, assetIn, amount)
		require.NoError(t, err)
		if quote == 0 {
			continue
		}
		require.NoError(t, swapExact(chain, engine, volatilePool, assetIn, amount, quote))

		current := product(t, engine, volatilePool)
		assert.True(t, current.GTE(last), "swap %d decreased k", i)
		last = current
	}
}

func TestNewEngineRejectsFullFee(t *testing.T) {
	_, err := NewEngine(engineID, Config{VolatileFeeBps: 10_000})
	assert.ErrorIs(t, err, types.ErrInvalidParameter)
}

func TestCreatePoolValidation(t *testing.T) {
	chain, engine := setupEngine(t, Config{})
	_, err := chain.Execute(context.Background(), host.Tx{Caller: lp, Target: engineID, Method: "create_pool"},
		func(call *host.Call) error { return engine.CreatePool(call, volatilePool) })
	assert.ErrorIs(t, err, types.ErrInvalidParameter)

	_, err = chain.Execute(context.Background(), host.Tx{Caller: lp, Target: engineID, Method: "create_pool"},
		func(call *host.Call) error {
			return engine.CreatePool(call, types.PoolID{Asset0: usdc, Asset1: usdc})
		})
	assert.ErrorIs(t, err, types.ErrInvalidParameter)
}

func TestPoolsListedInKeyOrder(t *testing.T) {
	chain, engine := setupEngine(t, Config{})
	eth := types.AssetID{0xe7}
	require.NoError(t, chain.Mint(lp, eth, 1_000_000))
	seed(t, chain, engine, types.PoolID{Asset0: eth, Asset1: types.BaseAssetID}, 500_000, 700_000)

	pools := engine.Pools()
	require.Len(t, pools, 3)
	assert.True(t, slices.IsSortedFunc(pools, func(a, b types.PoolID) int {
		return strings.Compare(a.String(), b.String())
	}))
	assert.Equal(t, []types.PoolID{stablePool, volatilePool}, pools[:2])

	r0, r1, err := engine.Reserves(types.PoolID{Asset0: eth, Asset1: types.BaseAssetID})
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), r0)
	assert.Equal(t, uint64(700_000), r1)

	_, _, err = engine.Reserves(types.PoolID{Asset0: eth, Asset1: usdc})
	assert.ErrorIs(t, err, types.ErrInvalidParameter)
}
