package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq" // PostgreSQL driver and array support
	"github.com/rs/zerolog"

	"github.com/sprout-finance/sprout/internal/logger"
	"github.com/sprout-finance/sprout/internal/types"
)

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// DSN renders the lib/pq connection string.
func (c DBConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS action_receipts (
		receipt_id SERIAL PRIMARY KEY,
		tx_id VARCHAR(64) NOT NULL UNIQUE,
		height BIGINT NOT NULL,
		action_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		contract VARCHAR(66) NOT NULL,
		method VARCHAR(100) NOT NULL,
		caller JSONB NOT NULL,
		payment JSONB,
		success BOOLEAN NOT NULL,
		error_kind VARCHAR(50),
		message TEXT,
		event_names TEXT[],
		events JSONB
	);
	CREATE INDEX IF NOT EXISTS idx_action_receipts_timestamp ON action_receipts(action_timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_action_receipts_height ON action_receipts(height DESC);
	CREATE INDEX IF NOT EXISTS idx_action_receipts_method ON action_receipts(method);
`

// PostgresRecorder stores action receipts in PostgreSQL.
type PostgresRecorder struct {
	db     *sql.DB
	logger zerolog.Logger
}

var _ Recorder = (*PostgresRecorder)(nil)

// NewPostgresRecorder opens the connection pool, checks it and ensures the schema.
func NewPostgresRecorder(ctx context.Context, cfg DBConfig) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	r := &PostgresRecorder{db: db, logger: logger.GetForComponent("recorder")}
	if err := r.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := r.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	r.logger.Info().Str("host", cfg.Host).Str("dbname", cfg.DBName).Msg("Successfully connected to the PostgreSQL database!")
	return r, nil
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return ErrDatabaseNotInitialized
	}
	if _, err := r.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	r.logger.Debug().Msg("Database schema ensured")
	return nil
}

// Reset drops every table and recreates the schema.
func (r *PostgresRecorder) Reset(ctx context.Context) error {
	if r.db == nil {
		return ErrDatabaseNotInitialized
	}
	if _, err := r.db.ExecContext(ctx, `DROP TABLE IF EXISTS action_receipts CASCADE;`); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return r.EnsureSchema(ctx)
}

// Ping tests if the database connection is healthy.
func (r *PostgresRecorder) Ping(ctx context.Context) error {
	if r.db == nil {
		return ErrDatabaseNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// RecordAction saves one receipt.
func (r *PostgresRecorder) RecordAction(ctx context.Context, receipt types.ActionReceipt) error {
	if r.db == nil {
		return ErrDatabaseNotInitialized
	}
	enc, err := encodeReceipt(receipt)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO action_receipts (
			tx_id, height, action_timestamp, contract, method, caller, payment,
			success, error_kind, message, event_names, events
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING receipt_id;
	`
	var receiptID int64
	err = r.db.QueryRowContext(ctx, query,
		receipt.TxID, receipt.Height, receipt.Timestamp, receipt.Contract.String(), receipt.Method,
		enc.caller, nullableJSON(enc.payment),
		receipt.Success, receipt.ErrorKind, receipt.Message, pq.Array(eventNames(receipt.Events)), enc.events,
	).Scan(&receiptID)
	if err != nil {
		return fmt.Errorf("failed to save action receipt: %w", err)
	}

	r.logger.Debug().Int64("receipt_id", receiptID).Str("tx_id", receipt.TxID).Msg("Action receipt saved")
	return nil
}

// Close closes the database connection pool.
func (r *PostgresRecorder) Close() error {
	if r.db == nil {
		return nil
	}
	r.logger.Info().Msg("Closing database connection...")
	return r.db.Close()
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
