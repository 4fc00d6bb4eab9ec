package inbound

import (
	"context"
	"time"

	"github.com/studybuddy/eventcore/internal/cursor"
	"github.com/studybuddy/eventcore/internal/events"
)

// Source pages through a library's events ordered by (received_at,
// event_id) ascending, strictly after the given position. An empty
// afterEventID with a zero afterReceivedAt starts from the beginning.
type Source interface {
	FetchEvents(ctx context.Context, userID, libraryID string, afterReceivedAt time.Time, afterEventID string, limit int) ([]events.Event, error)
}

// Result reports one SyncLibrary invocation's outcome (§4.9).
type Result struct {
	EventsReceived int
	Cursor         *cursor.Cursor
}

// Config holds the two tunables §6.4 names for inbound sync.
type Config struct {
	BatchSize int // page size per query, default 100
	MaxEvents int // ceiling per sync invocation, default 1000
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.MaxEvents <= 0 {
		c.MaxEvents = 1000
	}
	return c
}

// Syncer implements §4.9's inbound sync algorithm.
type Syncer struct {
	source  Source
	cursors CursorStore
	cfg     Config
}

func New(source Source, cursors CursorStore, cfg Config) *Syncer {
	return &Syncer{source: source, cursors: cursors, cfg: cfg.withDefaults()}
}

// SyncLibrary pulls up to cfg.MaxEvents new events for (userID,
// libraryID), advancing the library's cursor only over events it
// actually keeps.
func (s *Syncer) SyncLibrary(ctx context.Context, userID, libraryID string) (Result, error) {
	prior, err := s.cursors.Get(ctx, libraryID)
	if err != nil {
		return Result{}, err
	}

	var (
		kept          int
		lastKept      *cursor.Cursor
		pageAfterTime time.Time
		pageAfterID   string
	)

	for kept < s.cfg.MaxEvents {
		remaining := s.cfg.MaxEvents - kept
		pageLimit := s.cfg.BatchSize
		if remaining < pageLimit {
			pageLimit = remaining
		}

		page, err := s.source.FetchEvents(ctx, userID, libraryID, pageAfterTime, pageAfterID, pageLimit)
		if err != nil {
			return Result{}, err
		}
		if len(page) == 0 {
			break
		}

		last := page[len(page)-1]
		pageAfterTime, pageAfterID = last.ReceivedAt, last.EventID

		for _, e := range page {
			if !eventIsNewerThan(prior, e) {
				continue
			}
			kept++
			c := cursor.Cursor{ReceivedAt: e.ReceivedAt, EventID: e.EventID}
			lastKept = &c
		}

		if len(page) < pageLimit {
			break
		}
	}

	if lastKept == nil {
		return Result{EventsReceived: 0, Cursor: prior}, nil
	}

	if err := s.cursors.Update(ctx, libraryID, *lastKept); err != nil {
		return Result{}, err
	}
	return Result{EventsReceived: kept, Cursor: lastKept}, nil
}

// ForceFullResync clears the library's cursor so the next SyncLibrary
// call re-pulls its entire event history.
func (s *Syncer) ForceFullResync(ctx context.Context, libraryID string) error {
	return s.cursors.Clear(ctx, libraryID)
}

// Cursors returns every library's current cursor, keyed by libraryID.
func (s *Syncer) Cursors(ctx context.Context) (map[string]cursor.Cursor, error) {
	return s.cursors.List(ctx)
}

// eventIsNewerThan implements §4.9's tie-break: keep events strictly
// after prior, or sharing its timestamp with a strictly greater
// event_id.
func eventIsNewerThan(prior *cursor.Cursor, e events.Event) bool {
	if prior == nil {
		return true
	}
	if e.ReceivedAt.After(prior.ReceivedAt) {
		return true
	}
	if e.ReceivedAt.Equal(prior.ReceivedAt) && e.EventID > prior.EventID {
		return true
	}
	return false
}
