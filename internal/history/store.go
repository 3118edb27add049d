package history

import (
	"context"
	"time"
)

// Store persists and queries run events.
type Store interface {
	// Append marshals payload to JSON and stores it as an event of runID.
	Append(ctx context.Context, runID string, eventType EventType, payload any, metadata map[string]string) error

	// ByRun returns the events of runID in insertion order.
	ByRun(ctx context.Context, runID string) ([]Event, error)

	// Recent summarizes the most recently active runs, newest first.
	Recent(ctx context.Context, limit int) ([]RunSummary, error)

	// Prune deletes every run whose latest event is older than cutoff and
	// returns the number of deleted events.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}
