/*

This file contains the deterministic in-chain AMM used by simulations and tests. Volatile pools follow the
constant-product curve and stable pools a constant-sum curve, both charging a swap fee on the input side.
Swap inputs are detected as the engine's ledger balance of an asset that is not yet accounted to any pool's reserves.

*/

package amm

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/logger"
	"github.com/sprout-finance/sprout/internal/types"
)

// Config holds the swap fees charged by the engine, in basis points.
type Config struct {
	VolatileFeeBps uint64 `yaml:"volatile_fee_bps"`
	StableFeeBps   uint64 `yaml:"stable_fee_bps"`
}

type reserves struct {
	reserve0 uint64
	reserve1 uint64
}

// Engine is an AMM contract holding a set of two-asset pools.
type Engine struct {
	id       types.ContractID
	cfg      Config
	pools    map[types.PoolID]reserves
	reserved map[types.AssetID]uint64

	logger zerolog.Logger
}

var (
	_ Exchange      = (*Engine)(nil)
	_ host.Stateful = (*Engine)(nil)
)

// NewEngine creates an engine without pools.
func NewEngine(id types.ContractID, cfg Config) (*Engine, error) {
	if cfg.VolatileFeeBps >= types.BasisPoints || cfg.StableFeeBps >= types.BasisPoints {
		return nil, fmt.Errorf("%w: swap fee must be below %d bps", types.ErrInvalidParameter, types.BasisPoints)
	}
	return &Engine{
		id:       id,
		cfg:      cfg,
		pools:    make(map[types.PoolID]reserves),
		reserved: make(map[types.AssetID]uint64),
		logger:   logger.GetForComponent("amm"),
	}, nil
}

func (e *Engine) ID() types.ContractID { return e.id }

func (e *Engine) identity() types.Identity { return types.ContractIdentity(e.id) }

func (e *Engine) Checkpoint() func() {
	pools := maps.Clone(e.pools)
	reserved := maps.Clone(e.reserved)
	return func() {
		e.pools = pools
		e.reserved = reserved
	}
}

// CreatePool registers an empty pool.
func (e *Engine) CreatePool(call *host.Call, pool types.PoolID) error {
	if pool.Asset0 == pool.Asset1 {
		return fmt.Errorf("%w: pool needs two distinct assets", types.ErrInvalidParameter)
	}
	if _, exists := e.pools[pool]; exists {
		return fmt.Errorf("%w: pool %s already exists", types.ErrInvalidParameter, pool)
	}
	e.pools[pool] = reserves{}
	call.Emit("PoolCreated", map[string]any{"pool": pool.String()})
	e.logger.Info().Str("pool", pool.String()).Msg("Pool created")
	return nil
}

// Pools returns every registered pool id, ordered by its string form.
func (e *Engine) Pools() []types.PoolID {
	pools := make([]types.PoolID, 0, len(e.pools))
	for pool := range e.pools {
		pools = append(pools, pool)
	}
	slices.SortFunc(pools, func(a, b types.PoolID) int {
		return strings.Compare(a.String(), b.String())
	})
	return pools
}

// Reserves returns the pool's reserves of Asset0 and Asset1.
func (e *Engine) Reserves(pool types.PoolID) (uint64, uint64, error) {
	r, ok := e.pools[pool]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown pool %s", types.ErrInvalidParameter, pool)
	}
	return r.reserve0, r.reserve1, nil
}

// AddLiquidity credits the assets transferred to the engine in this transaction to the pool's reserves.
// No liquidity shares are issued.
func (e *Engine) AddLiquidity(call *host.Call, pool types.PoolID) (uint64, uint64, error) {
	r, ok := e.pools[pool]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown pool %s", types.ErrInvalidParameter, pool)
	}
	self, err := call.Invoke(e.id, nil)
	if err != nil {
		return 0, 0, err
	}
	in0 := e.pending(self.Ledger(), pool.Asset0)
	in1 := e.pending(self.Ledger(), pool.Asset1)
	if in0 == 0 && in1 == 0 {
		return 0, 0, fmt.Errorf("%w: no liquidity transferred", types.ErrZeroAmount)
	}
	if r.reserve0+in0 == 0 || r.reserve1+in1 == 0 {
		return 0, 0, fmt.Errorf("%w: both sides of %s need liquidity", types.ErrInvalidParameter, pool)
	}

	r.reserve0 += in0
	r.reserve1 += in1
	e.commit(pool, r, in0, in1, 0, 0)

	self.Emit("LiquidityAdded", map[string]any{"pool": pool.String(), "amount_0": in0, "amount_1": in1})
	return in0, in1, nil
}

// Quote returns the output for amountIn of assetIn under the pool's curve and fee.
func (e *Engine) Quote(pool types.PoolID, assetIn types.AssetID, amountIn uint64) (uint64, error) {
	r, ok := e.pools[pool]
	if !ok {
		return 0, fmt.Errorf("%w: unknown pool %s", types.ErrInvalidParameter, pool)
	}
	if !pool.Contains(assetIn) {
		return 0, fmt.Errorf("%w: %s is not traded in %s", types.ErrWrongAsset, assetIn, pool)
	}
	if amountIn == 0 {
		return 0, fmt.Errorf("%w: quote amount", types.ErrZeroAmount)
	}
	reserveIn, reserveOut := r.reserve0, r.reserve1
	if assetIn == pool.Asset1 {
		reserveIn, reserveOut = r.reserve1, r.reserve0
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("%w: pool %s is empty", types.ErrInsufficientLiquidity, pool)
	}

	bps := sdkmath.NewIntFromUint64(types.BasisPoints)
	inWithFee := sdkmath.NewIntFromUint64(amountIn).Mul(bps.Sub(sdkmath.NewIntFromUint64(e.fee(pool))))

	var out sdkmath.Int
	if pool.Stable {
		out = inWithFee.Quo(bps)
	} else {
		numerator := inWithFee.Mul(sdkmath.NewIntFromUint64(reserveOut))
		denominator := sdkmath.NewIntFromUint64(reserveIn).Mul(bps).Add(inWithFee)
		out = numerator.Quo(denominator)
	}
	if out.GTE(sdkmath.NewIntFromUint64(reserveOut)) {
		return 0, fmt.Errorf("%w: %s cannot pay %s out of %d", types.ErrInsufficientLiquidity, pool, out, reserveOut)
	}
	return out.Uint64(), nil
}

// Swap pays amount0Out and amount1Out to recipient, funded by whatever input was transferred to the
// engine beforehand in the same transaction.
func (e *Engine) Swap(call *host.Call, pool types.PoolID, amount0Out, amount1Out uint64, recipient types.Identity, data []byte) error {
	if len(data) > 0 {
		return fmt.Errorf("%w: swap callbacks are not supported", types.ErrInvalidParameter)
	}
	r, ok := e.pools[pool]
	if !ok {
		return fmt.Errorf("%w: unknown pool %s", types.ErrInvalidParameter, pool)
	}
	if amount0Out == 0 && amount1Out == 0 {
		return fmt.Errorf("%w: swap requests no output", types.ErrZeroAmount)
	}
	if (amount0Out > 0 && amount0Out >= r.reserve0) || (amount1Out > 0 && amount1Out >= r.reserve1) {
		return fmt.Errorf("%w: %s reserves %d/%d", types.ErrInsufficientLiquidity, pool, r.reserve0, r.reserve1)
	}

	self, err := call.Invoke(e.id, nil)
	if err != nil {
		return err
	}
	in0 := e.pending(self.Ledger(), pool.Asset0)
	in1 := e.pending(self.Ledger(), pool.Asset1)
	if in0 == 0 && in1 == 0 {
		return fmt.Errorf("%w: no input transferred to %s", types.ErrZeroAmount, pool)
	}

	balance0 := r.reserve0 + in0 - amount0Out
	balance1 := r.reserve1 + in1 - amount1Out
	if err := e.checkInvariant(pool, r, balance0, balance1, in0, in1); err != nil {
		return err
	}

	if amount0Out > 0 {
		if err := self.Transfer(recipient, pool.Asset0, amount0Out); err != nil {
			return err
		}
	}
	if amount1Out > 0 {
		if err := self.Transfer(recipient, pool.Asset1, amount1Out); err != nil {
			return err
		}
	}
	e.commit(pool, reserves{reserve0: balance0, reserve1: balance1}, in0, in1, amount0Out, amount1Out)

	self.Emit("Swap", map[string]any{
		"pool":         pool.String(),
		"sender":       call.SelfIdentity().String(),
		"recipient":    recipient.String(),
		"amount_0_in":  in0,
		"amount_1_in":  in1,
		"amount_0_out": amount0Out,
		"amount_1_out": amount1Out,
	})
	e.logger.Debug().
		Str("pool", pool.String()).
		Uint64("amount0In", in0).Uint64("amount1In", in1).
		Uint64("amount0Out", amount0Out).Uint64("amount1Out", amount1Out).
		Msg("Swap executed")
	return nil
}

// checkInvariant verifies the fee-adjusted balances keep the pool's curve value from decreasing.
func (e *Engine) checkInvariant(pool types.PoolID, before reserves, balance0, balance1, in0, in1 uint64) error {
	bps := sdkmath.NewIntFromUint64(types.BasisPoints)
	fee := sdkmath.NewIntFromUint64(e.fee(pool))
	adjusted0 := sdkmath.NewIntFromUint64(balance0).Mul(bps).Sub(sdkmath.NewIntFromUint64(in0).Mul(fee))
	adjusted1 := sdkmath.NewIntFromUint64(balance1).Mul(bps).Sub(sdkmath.NewIntFromUint64(in1).Mul(fee))
	r0 := sdkmath.NewIntFromUint64(before.reserve0)
	r1 := sdkmath.NewIntFromUint64(before.reserve1)

	var ok bool
	if pool.Stable {
		ok = adjusted0.Add(adjusted1).GTE(r0.Add(r1).Mul(bps))
	} else {
		ok = adjusted0.Mul(adjusted1).GTE(r0.Mul(r1).Mul(bps).Mul(bps))
	}
	if !ok {
		return fmt.Errorf("%w: swap would break the %s curve invariant", types.ErrInsufficientLiquidity, pool)
	}
	return nil
}

func (e *Engine) fee(pool types.PoolID) uint64 {
	if pool.Stable {
		return e.cfg.StableFeeBps
	}
	return e.cfg.VolatileFeeBps
}

// pending returns the engine's balance of asset not yet accounted to any pool.
func (e *Engine) pending(l *ledger.Ledger, asset types.AssetID) uint64 {
	balance := l.Balance(e.identity(), asset)
	if balance <= e.reserved[asset] {
		return 0
	}
	return balance - e.reserved[asset]
}

func (e *Engine) commit(pool types.PoolID, r reserves, in0, in1, out0, out1 uint64) {
	e.pools[pool] = r
	e.reserved[pool.Asset0] = e.reserved[pool.Asset0] + in0 - out0
	e.reserved[pool.Asset1] = e.reserved[pool.Asset1] + in1 - out1
}
