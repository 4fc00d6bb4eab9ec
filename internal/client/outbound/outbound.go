// Package outbound implements outbound sync (§4.8): drain the local
// queue in batches, ingest them server-side, and acknowledge/remove or
// retry each entry per its individual result.
package outbound

import (
	"context"

	"github.com/studybuddy/eventcore/internal/client/queue"
	"github.com/studybuddy/eventcore/internal/events"
)

// IngestResult mirrors the ingestion service's per-event result
// ({success, event_id, path, idempotent, error}).
type IngestResult struct {
	EventID    string
	Success    bool
	Idempotent bool
	Error      string
}

// Uploader sends a batch of events to the server and reports one
// result per input event, in the same order.
type Uploader interface {
	IngestBatch(ctx context.Context, batch []events.Event) ([]IngestResult, error)
}

// Config holds §6.4's outbound tunables.
type Config struct {
	BatchSize  int // default 50
	MaxRetries int // default 3
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	return c
}

// Result aggregates one SyncOutbound invocation's counts (§4.8 step 3).
type Result struct {
	Uploaded            int
	Idempotent          int
	Failed              int
	MaxRetriesExceeded  int
}

type Syncer struct {
	uploader Uploader
	queue    queue.Store
	cfg      Config
}

func New(uploader Uploader, q queue.Store, cfg Config) *Syncer {
	return &Syncer{uploader: uploader, queue: q, cfg: cfg.withDefaults()}
}

// SyncOutbound implements §4.8's algorithm: snapshot pending, drain in
// windows of cfg.BatchSize, act on each per-event result.
func (s *Syncer) SyncOutbound(ctx context.Context) (Result, error) {
	pending, err := s.queue.GetPending(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(pending) == 0 {
		return Result{}, nil
	}

	var total Result
	for start := 0; start < len(pending); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		window := pending[start:end]

		batch := make([]events.Event, len(window))
		for i, entry := range window {
			batch[i] = entry.Event
		}

		results, err := s.uploader.IngestBatch(ctx, batch)
		if err != nil {
			// The whole window failed to reach the server; every entry
			// in it is treated as a retryable failure.
			for _, entry := range window {
				if failErr := s.handleFailure(ctx, entry, &total); failErr != nil {
					return total, failErr
				}
			}
			continue
		}

		for i, result := range results {
			entry := window[i]
			switch {
			case result.Success && !result.Idempotent:
				if err := s.finish(ctx, entry.Event.EventID); err != nil {
					return total, err
				}
				total.Uploaded++
			case result.Success && result.Idempotent:
				if err := s.finish(ctx, entry.Event.EventID); err != nil {
					return total, err
				}
				total.Idempotent++
			default:
				if failErr := s.handleFailure(ctx, entry, &total); failErr != nil {
					return total, failErr
				}
			}
		}
	}

	return total, nil
}

func (s *Syncer) finish(ctx context.Context, eventID string) error {
	if err := s.queue.Acknowledge(ctx, eventID); err != nil {
		return err
	}
	return s.queue.Remove(ctx, eventID)
}

func (s *Syncer) handleFailure(ctx context.Context, entry queue.Entry, total *Result) error {
	if entry.Attempts >= s.cfg.MaxRetries {
		total.Failed++
		total.MaxRetriesExceeded++
		return nil
	}
	if err := s.queue.IncrementAttempt(ctx, entry.Event.EventID); err != nil {
		return err
	}
	total.Failed++
	return nil
}
