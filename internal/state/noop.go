package state

import (
	"context"

	"github.com/sprout-finance/sprout/internal/types"
)

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAction(context.Context, types.ActionReceipt) error { return nil }
func (n *NoopRecorder) RecentActions(context.Context, int) ([]types.ActionReceipt, error) {
	return []types.ActionReceipt{}, nil
}
func (n *NoopRecorder) Summary(context.Context) (Summary, error) { return Summary{}, nil }
func (n *NoopRecorder) Close() error                             { return nil }
