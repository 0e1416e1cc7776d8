package node

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sprout-finance/sprout/internal/ledger"
)

// RunLoop refreshes the gauges and logs a status line on every tick until ctx is canceled.
func (n *Node) RunLoop(ctx context.Context, interval time.Duration) {
	n.logger.Info().
		Dur("interval", interval).
		Msg("Starting node status loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	n.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			n.logger.Info().Msg("Node loop stopped due to context cancellation")
			return
		case <-ticker.C:
			n.RunCycle(ctx)
		}
	}
}

// RunCycle performs one status cycle.
func (n *Node) RunCycle(ctx context.Context) {
	n.cycleCount++
	cycleLogger := n.logger.With().
		Str("cycle_id", uuid.New().String()).
		Int("cycle", n.cycleCount).
		Logger()

	supply, fees := n.refreshGauges()

	summary, err := n.recorder.Summary(ctx)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Failed to read action summary")
	}

	cycleLogger.Info().
		Uint64("height", n.chain.Height()).
		Uint64("receiptSupply", supply).
		Uint64("treasuryFees", fees).
		Int64("recordedActions", summary.TotalActions).
		Int64("failedActions", summary.FailedActions).
		Msg("Node status")
}

// refreshGauges publishes the receipt supply and the treasury fee balance.
func (n *Node) refreshGauges() (supply, fees uint64) {
	_ = n.chain.View(func(l *ledger.Ledger) error {
		supply = n.strategy.TotalSupply(l)
		fees = n.treasury.FeeBalance(l)
		return nil
	})
	n.indicators.SetReceiptSupply(supply)
	n.indicators.SetTreasuryBalance(fees)
	return supply, fees
}
