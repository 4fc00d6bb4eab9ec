// Package sqlitequeue is the durable queue.Store implementation for
// production clients, grounded on the pack's SQLiteStore pattern
// (database/sql + modernc.org/sqlite, driver name "sqlite"). A single
// connection (SetMaxOpenConns(1)) gives the single-writer guarantee
// §5 requires rather than relying on SQLite's own file locking.
package sqlitequeue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/studybuddy/eventcore/internal/apperrors"
	"github.com/studybuddy/eventcore/internal/client/queue"
	"github.com/studybuddy/eventcore/internal/events"
)

type Store struct {
	db *sql.DB
}

// Open creates or attaches to the queue database at path (":memory:"
// is accepted for tests).
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS queue_entries (
			event_id     TEXT PRIMARY KEY,
			event_json   TEXT NOT NULL,
			attempts     INTEGER NOT NULL DEFAULT 0,
			acknowledged INTEGER NOT NULL DEFAULT 0,
			enqueued_at  TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create queue_entries table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Enqueue(ctx context.Context, e events.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return apperrors.Transient("Enqueue", "encode", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO queue_entries (event_id, event_json, attempts, acknowledged, enqueued_at)
		VALUES (?, ?, 0, 0, ?)
		ON CONFLICT(event_id) DO NOTHING
	`, e.EventID, string(body), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("enqueue event %s: %w", e.EventID, err)
	}
	return nil
}

func (s *Store) GetPending(ctx context.Context) ([]queue.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_json, attempts, acknowledged, enqueued_at
		FROM queue_entries
		WHERE acknowledged = 0
	`)
	if err != nil {
		return nil, fmt.Errorf("query pending entries: %w", err)
	}
	defer rows.Close()

	var out []queue.Entry
	for rows.Next() {
		var eventJSON, enqueuedAt string
		var attempts, acknowledged int
		if err := rows.Scan(&eventJSON, &attempts, &acknowledged, &enqueuedAt); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		var e events.Event
		if err := json.Unmarshal([]byte(eventJSON), &e); err != nil {
			return nil, apperrors.Transient("GetPending", "decode", err)
		}
		enqueuedTime, err := time.Parse(time.RFC3339Nano, enqueuedAt)
		if err != nil {
			enqueuedTime = time.Time{}
		}
		out = append(out, queue.Entry{
			Event:        e,
			Attempts:     attempts,
			Acknowledged: acknowledged != 0,
			EnqueuedAt:   enqueuedTime,
		})
	}
	return out, rows.Err()
}

func (s *Store) Acknowledge(ctx context.Context, eventID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE queue_entries SET acknowledged = 1 WHERE event_id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("acknowledge event %s: %w", eventID, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, eventID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE event_id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("remove event %s: %w", eventID, err)
	}
	return nil
}

func (s *Store) IncrementAttempt(ctx context.Context, eventID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE queue_entries SET attempts = attempts + 1 WHERE event_id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("increment attempt for event %s: %w", eventID, err)
	}
	return nil
}

func (s *Store) ClearAcknowledged(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE acknowledged = 1`)
	if err != nil {
		return fmt.Errorf("clear acknowledged entries: %w", err)
	}
	return nil
}

func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_entries WHERE acknowledged = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return n, nil
}
