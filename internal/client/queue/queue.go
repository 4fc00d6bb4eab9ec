// Package queue declares the local event queue (§4.7): a durable
// single-device key/value store keyed by event_id, with two
// implementations (memqueue for tests, sqlitequeue for a durable
// client) sharing this Store interface.
package queue

import (
	"context"
	"time"

	"github.com/studybuddy/eventcore/internal/events"
)

// Entry is one queued event plus its delivery bookkeeping.
type Entry struct {
	Event        events.Event
	Attempts     int
	Acknowledged bool
	EnqueuedAt   time.Time
}

// Store is the local queue's capability surface (§4.7). Ordering
// among Entry values from GetPending is not meaningful for
// correctness — only for backoff fairness — so implementations are
// free to return them in any order, including one that differs
// between calls.
type Store interface {
	Enqueue(ctx context.Context, e events.Event) error
	GetPending(ctx context.Context) ([]Entry, error)
	Acknowledge(ctx context.Context, eventID string) error
	Remove(ctx context.Context, eventID string) error
	IncrementAttempt(ctx context.Context, eventID string) error
	ClearAcknowledged(ctx context.Context) error
	PendingCount(ctx context.Context) (int, error)
}
