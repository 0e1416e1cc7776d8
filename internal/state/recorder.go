package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sprout-finance/sprout/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrDatabaseNotInitialized = errors.New("database not initialized")
	ErrUnknownBackend         = errors.New("unknown recorder backend")
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 500
)

// Summary aggregates the recorded actions.
type Summary struct {
	TotalActions      int64  `json:"total_actions"`
	SuccessfulActions int64  `json:"successful_actions"`
	FailedActions     int64  `json:"failed_actions"`
	LastHeight        uint64 `json:"last_height"`
}

// Recorder persists the receipt of every executed transaction.
type Recorder interface {
	RecordAction(ctx context.Context, receipt types.ActionReceipt) error
	RecentActions(ctx context.Context, limit int) ([]types.ActionReceipt, error)
	Summary(ctx context.Context) (Summary, error)
	Close() error
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return min(limit, MaxRecentLimit)
}

// encodedReceipt holds the JSON columns shared by every SQL backend.
type encodedReceipt struct {
	caller  []byte
	payment []byte
	events  []byte
}

func encodeReceipt(r types.ActionReceipt) (encodedReceipt, error) {
	var out encodedReceipt
	var err error
	if out.caller, err = json.Marshal(r.Caller); err != nil {
		return out, fmt.Errorf("failed to marshal caller: %w", err)
	}
	if r.Payment != nil {
		if out.payment, err = json.Marshal(r.Payment); err != nil {
			return out, fmt.Errorf("failed to marshal payment: %w", err)
		}
	}
	events := r.Events
	if events == nil {
		events = []types.Event{}
	}
	if out.events, err = json.Marshal(events); err != nil {
		return out, fmt.Errorf("failed to marshal events: %w", err)
	}
	return out, nil
}

func decodeReceipt(r *types.ActionReceipt, contract string, enc encodedReceipt) error {
	id, err := types.ParseContractID(contract)
	if err != nil {
		return fmt.Errorf("failed to parse contract: %w", err)
	}
	r.Contract = id
	if err := json.Unmarshal(enc.caller, &r.Caller); err != nil {
		return fmt.Errorf("failed to unmarshal caller: %w", err)
	}
	if len(enc.payment) > 0 {
		r.Payment = &types.Coin{}
		if err := json.Unmarshal(enc.payment, r.Payment); err != nil {
			return fmt.Errorf("failed to unmarshal payment: %w", err)
		}
	}
	if len(enc.events) > 0 {
		if err := json.Unmarshal(enc.events, &r.Events); err != nil {
			return fmt.Errorf("failed to unmarshal events: %w", err)
		}
	}
	return nil
}

func eventNames(events []types.Event) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}

// Backend names accepted by NewRecorder.
const (
	BackendNone     = "none"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects and configures a recorder backend.
type Options struct {
	Backend    string
	SQLitePath string
	Postgres   DBConfig
}

// NewRecorder opens the configured backend.
func NewRecorder(ctx context.Context, opts Options) (Recorder, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NewNoopRecorder(), nil
	case BackendSQLite:
		return NewSQLiteRecorder(opts.SQLitePath)
	case BackendPostgres:
		return NewPostgresRecorder(ctx, opts.Postgres)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
