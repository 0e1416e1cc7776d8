/*

This file contains the in-process chain that hosts every contract. A transaction runs under the chain's
lock, starts from a checkpoint of the ledger and of every deployed contract, and either commits as a
whole or is rolled back as a whole. Each executed transaction produces an ActionReceipt for the audit trail.

*/

package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/logger"
	"github.com/sprout-finance/sprout/internal/metrics"
	"github.com/sprout-finance/sprout/internal/types"
)

// Stateful is implemented by every deployed contract so the chain can roll it back.
type Stateful interface {
	// Checkpoint captures the contract's state and returns a closure restoring it.
	Checkpoint() func()
}

// ReceiptSink persists the receipt of every executed transaction.
type ReceiptSink interface {
	RecordAction(ctx context.Context, receipt types.ActionReceipt) error
}

// Tx describes a top-level call into a contract.
type Tx struct {
	Caller  types.Identity
	Target  types.ContractID
	Method  string
	Payment *types.Coin
}

// Chain serializes all transactions and reads over a single ledger.
type Chain struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	contracts map[types.ContractID]Stateful
	order     []types.ContractID
	height    uint64

	sink       ReceiptSink
	indicators metrics.Indicators
	logger     zerolog.Logger
	now        func() time.Time
}

// Config holds the optional collaborators of a chain.
type Config struct {
	Sink       ReceiptSink
	Indicators metrics.Indicators
	Clock      func() time.Time
}

// NewChain creates an empty chain.
func NewChain(cfg Config) *Chain {
	c := &Chain{
		ledger:     ledger.New(),
		contracts:  make(map[types.ContractID]Stateful),
		sink:       cfg.Sink,
		indicators: cfg.Indicators,
		logger:     logger.GetForComponent("host"),
		now:        cfg.Clock,
	}
	if c.indicators == nil {
		c.indicators = metrics.NoopIndicators{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Deploy registers a contract under id.
func (c *Chain) Deploy(id types.ContractID, contract Stateful) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if contract == nil {
		return fmt.Errorf("%w: nil contract", types.ErrInvalidParameter)
	}
	if _, exists := c.contracts[id]; exists {
		return fmt.Errorf("%w: contract %s already deployed", types.ErrInvalidParameter, id)
	}
	c.contracts[id] = contract
	c.order = append(c.order, id)
	c.logger.Info().Str("contract", id.String()).Msgf("Deployed %T", contract)
	return nil
}

// Height returns the number of executed transactions.
func (c *Chain) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Mint credits freshly created assets to an identity outside of any contract.
// It backs genesis funding and the simulation faucet.
func (c *Chain) Mint(to types.Identity, asset types.AssetID, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if amount == 0 {
		return fmt.Errorf("%w: mint amount", types.ErrZeroAmount)
	}
	return c.ledger.Mint(asset, amount, to)
}

// Transfer moves assets between two identities as a plain wallet transfer.
func (c *Chain) Transfer(from, to types.Identity, asset types.AssetID, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Transfer(asset, amount, from, to)
}

// View runs fn under the chain lock with read access to the ledger.
// fn must not mutate state.
func (c *Chain) View(fn func(l *ledger.Ledger) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.ledger)
}

// Execute runs fn as one atomic transaction against tx.Target. The attached payment is moved from the
// caller to the target before fn runs. If fn fails or panics every change made during the transaction
// is discarded. The returned receipt describes the outcome either way.
func (c *Chain) Execute(ctx context.Context, tx Tx, fn func(call *Call) error) (types.ActionReceipt, error) {
	receipt, err := c.execute(ctx, tx, fn)

	state := "ok"
	if err != nil {
		state = types.ErrorKind(err)
	}
	c.indicators.IncrementTxTotal(tx.Method, state)

	if c.sink != nil {
		if recErr := c.sink.RecordAction(ctx, receipt); recErr != nil {
			c.logger.Error().Err(recErr).Str("tx_id", receipt.TxID).Msg("Failed to record action receipt")
		}
	}
	return receipt, err
}

func (c *Chain) execute(ctx context.Context, tx Tx, fn func(call *Call) error) (receipt types.ActionReceipt, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.height++
	receipt = types.ActionReceipt{
		TxID:      uuid.New().String(),
		Height:    c.height,
		Timestamp: c.now().UTC(),
		Contract:  tx.Target,
		Method:    tx.Method,
		Caller:    tx.Caller,
		Payment:   tx.Payment,
	}
	txLogger := c.logger.With().Str("tx_id", receipt.TxID).Str("method", tx.Method).Logger()

	var events []types.Event
	restore := c.checkpoint()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", types.ErrPanic, r)
		}
		if err != nil {
			restore()
			receipt.Success = false
			receipt.ErrorKind = types.ErrorKind(err)
			receipt.Message = err.Error()
			txLogger.Warn().Err(err).Str("error_kind", receipt.ErrorKind).Msg("Transaction reverted")
			return
		}
		receipt.Success = true
		receipt.Events = events
		txLogger.Debug().Int("events", len(events)).Msg("Transaction committed")
	}()

	if err = ctx.Err(); err != nil {
		return receipt, err
	}
	if tx.Caller.IsZero() {
		return receipt, fmt.Errorf("%w: transaction without caller", types.ErrInvalidParameter)
	}
	if _, ok := c.contracts[tx.Target]; !ok {
		return receipt, fmt.Errorf("%w: %s", types.ErrUnknownContract, tx.Target)
	}

	call := &Call{
		ctx:     ctx,
		chain:   c,
		Self:    tx.Target,
		Caller:  tx.Caller,
		Payment: tx.Payment,
		events:  &events,
	}
	if err = call.collectPayment(); err != nil {
		return receipt, err
	}
	err = fn(call)
	return receipt, err
}

func (c *Chain) checkpoint() func() {
	restores := make([]func(), 0, len(c.order)+1)
	restores = append(restores, c.ledger.Checkpoint())
	for _, id := range c.order {
		restores = append(restores, c.contracts[id].Checkpoint())
	}
	return func() {
		for _, restore := range restores {
			restore()
		}
	}
}
