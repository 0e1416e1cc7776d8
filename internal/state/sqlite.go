package state

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/sprout-finance/sprout/internal/logger"
	"github.com/sprout-finance/sprout/internal/types"
)

// SQLiteRecorder persists action receipts to a local SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

var _ Recorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.GetForComponent("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("SQLite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS action_receipts (
			receipt_id  INTEGER PRIMARY KEY AUTOINCREMENT,
			tx_id       TEXT NOT NULL UNIQUE,
			height      INTEGER NOT NULL,
			timestamp   INTEGER NOT NULL,
			contract    TEXT NOT NULL,
			method      TEXT NOT NULL,
			caller      TEXT NOT NULL,
			payment     TEXT,
			success     INTEGER NOT NULL,
			error_kind  TEXT,
			message     TEXT,
			events      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_action_height ON action_receipts(height)`,
		`CREATE INDEX IF NOT EXISTS idx_action_method ON action_receipts(method)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAction(ctx context.Context, receipt types.ActionReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	enc, err := encodeReceipt(receipt)
	if err != nil {
		return err
	}
	var payment any
	if len(enc.payment) > 0 {
		payment = string(enc.payment)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO action_receipts (
			tx_id, height, timestamp, contract, method, caller, payment,
			success, error_kind, message, events
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.TxID, int64(receipt.Height), receipt.Timestamp.UnixNano(), receipt.Contract.String(), receipt.Method,
		string(enc.caller), payment, receipt.Success, receipt.ErrorKind, receipt.Message, string(enc.events),
	)
	if err != nil {
		return fmt.Errorf("insert action receipt: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecentActions(ctx context.Context, limit int) ([]types.ActionReceipt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT receipt_id, tx_id, height, timestamp, contract, method, caller, COALESCE(payment, ''),
			success, COALESCE(error_kind, ''), COALESCE(message, ''), COALESCE(events, '')
		FROM action_receipts
		ORDER BY height DESC, receipt_id DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent actions: %w", err)
	}
	defer rows.Close()

	actions := make([]types.ActionReceipt, 0)
	for rows.Next() {
		var (
			receipt                 types.ActionReceipt
			height, ts              int64
			contract                string
			caller, payment, events string
		)
		err := rows.Scan(&receipt.ReceiptID, &receipt.TxID, &height, &ts, &contract, &receipt.Method,
			&caller, &payment, &receipt.Success, &receipt.ErrorKind, &receipt.Message, &events)
		if err != nil {
			return nil, fmt.Errorf("scan action row: %w", err)
		}
		receipt.Height = uint64(height)
		receipt.Timestamp = time.Unix(0, ts).UTC()
		enc := encodedReceipt{caller: []byte(caller), payment: []byte(payment), events: []byte(events)}
		if err := decodeReceipt(&receipt, contract, enc); err != nil {
			return nil, err
		}
		actions = append(actions, receipt)
	}
	return actions, rows.Err()
}

func (r *SQLiteRecorder) Summary(ctx context.Context) (Summary, error) {
	var (
		summary    Summary
		successful sql.NullInt64
		lastHeight int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(success), COALESCE(MAX(height), 0) FROM action_receipts`,
	).Scan(&summary.TotalActions, &successful, &lastHeight)
	if err != nil {
		return Summary{}, fmt.Errorf("query action summary: %w", err)
	}
	summary.SuccessfulActions = successful.Int64
	summary.FailedActions = summary.TotalActions - summary.SuccessfulActions
	summary.LastHeight = uint64(lastHeight)
	return summary, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
