package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/sprout-finance/sprout/internal/types"
)

// RecentActions retrieves the most recent receipts, newest first.
func (r *PostgresRecorder) RecentActions(ctx context.Context, limit int) ([]types.ActionReceipt, error) {
	if r.db == nil {
		return nil, ErrDatabaseNotInitialized
	}

	query := `
		SELECT
			receipt_id, tx_id, height, action_timestamp, contract, method, caller, payment,
			success, COALESCE(error_kind, ''), COALESCE(message, ''), event_names, events
		FROM action_receipts
		ORDER BY height DESC, receipt_id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to query recent actions")
		return nil, fmt.Errorf("failed to query recent actions: %w", err)
	}
	defer rows.Close()

	actions := make([]types.ActionReceipt, 0)
	for rows.Next() {
		var (
			receipt  types.ActionReceipt
			contract string
			names    []string
			enc      encodedReceipt
			ts       time.Time
		)
		err := rows.Scan(
			&receipt.ReceiptID, &receipt.TxID, &receipt.Height, &ts, &contract, &receipt.Method,
			&enc.caller, &enc.payment,
			&receipt.Success, &receipt.ErrorKind, &receipt.Message, pq.Array(&names), &enc.events,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to scan action row")
			continue // Skip this row and continue with others
		}
		receipt.Timestamp = ts.UTC()
		if err := decodeReceipt(&receipt, contract, enc); err != nil {
			r.logger.Error().Err(err).Str("tx_id", receipt.TxID).Msg("Failed to decode action row")
			continue
		}
		actions = append(actions, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action rows: %w", err)
	}
	return actions, nil
}

// Summary aggregates success counts and the latest recorded height.
func (r *PostgresRecorder) Summary(ctx context.Context) (Summary, error) {
	if r.db == nil {
		return Summary{}, ErrDatabaseNotInitialized
	}

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COALESCE(MAX(height), 0)
		FROM action_receipts
	`
	var (
		summary    Summary
		lastHeight sql.NullInt64
	)
	if err := r.db.QueryRowContext(ctx, query).Scan(&summary.TotalActions, &summary.SuccessfulActions, &lastHeight); err != nil {
		return Summary{}, fmt.Errorf("failed to query action summary: %w", err)
	}
	summary.FailedActions = summary.TotalActions - summary.SuccessfulActions
	if lastHeight.Valid {
		summary.LastHeight = uint64(lastHeight.Int64)
	}
	return summary, nil
}
