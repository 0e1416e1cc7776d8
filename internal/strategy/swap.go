package strategy

import (
	"fmt"

	"github.com/sprout-finance/sprout/internal/amm"
	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/types"
)

// FeeReceiver is a contract that accepts withdrawal fees through a payable entry point.
type FeeReceiver interface {
	ReceiveFees(call *host.Call) error
}

// exchange resolves the configured AMM contract.
func (s *Strategy) exchange(call *host.Call) (amm.Exchange, error) {
	contract, err := call.Resolve(s.ammContract)
	if err != nil {
		return nil, fmt.Errorf("%w: amm contract: %w", types.ErrSwapFailed, err)
	}
	ex, ok := contract.(amm.Exchange)
	if !ok {
		return nil, fmt.Errorf("%w: contract %s is not an amm", types.ErrSwapFailed, s.ammContract)
	}
	return ex, nil
}

// executeLeg prices the leg, sends the input to the AMM and swaps for the quoted output. The amount
// actually received must reach the slippage floor. The leg is updated with its quote and the amount received.
// A conforming AMM pays exactly the requested output, so the floor only trips on an AMM that underpays it.
func (s *Strategy) executeLeg(call *host.Call, ex amm.Exchange, leg *SwapLeg) (uint64, error) {
	if err := s.priceLeg(ex, leg); err != nil {
		return 0, err
	}
	if leg.Quote == 0 {
		return 0, fmt.Errorf("%w: %d of %s quotes to nothing in %s", types.ErrSwapFailed, leg.AmountIn, leg.AssetIn, leg.Pool)
	}

	l := call.Ledger()
	before := l.Balance(call.SelfIdentity(), leg.AssetOut)
	if err := call.Transfer(types.ContractIdentity(ex.ID()), leg.AssetIn, leg.AmountIn); err != nil {
		return 0, err
	}
	amount0Out, amount1Out := amm.OutputAmounts(leg.Pool, leg.AssetOut, leg.Quote)
	if err := ex.Swap(call, leg.Pool, amount0Out, amount1Out, call.SelfIdentity(), nil); err != nil {
		return 0, fmt.Errorf("%w: %s -> %s in %s: %w", types.ErrSwapFailed, leg.AssetIn, leg.AssetOut, leg.Pool, err)
	}

	after := l.Balance(call.SelfIdentity(), leg.AssetOut)
	if after < before {
		return 0, fmt.Errorf("%w: balance of %s decreased during swap", types.ErrSwapFailed, leg.AssetOut)
	}
	received := after - before
	if received < leg.MinOut {
		return 0, fmt.Errorf("%w: received %d of %s, minimum %d", types.ErrSwapFailed, received, leg.AssetOut, leg.MinOut)
	}
	leg.Received = received

	s.logger.Debug().
		Str("pool", leg.Pool.String()).
		Uint64("amountIn", leg.AmountIn).
		Uint64("quote", leg.Quote).
		Uint64("received", received).
		Msg("Swap leg executed")
	return received, nil
}
