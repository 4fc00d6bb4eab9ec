// Package sqlitecursor is the durable inbound.CursorStore, grounded on
// the same database/sql + modernc.org/sqlite pattern as sqlitequeue,
// with a single connection for the client's single-writer guarantee.
package sqlitecursor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/studybuddy/eventcore/internal/cursor"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cursor database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cursors (
			library_id       TEXT PRIMARY KEY,
			last_received_at TEXT NOT NULL,
			last_event_id    TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cursors table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, libraryID string) (*cursor.Cursor, error) {
	var receivedAt, eventID string
	err := s.db.QueryRowContext(ctx, `
		SELECT last_received_at, last_event_id FROM cursors WHERE library_id = ?
	`, libraryID).Scan(&receivedAt, &eventID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cursor for library %s: %w", libraryID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, receivedAt)
	if err != nil {
		return nil, fmt.Errorf("parse stored cursor timestamp: %w", err)
	}
	return &cursor.Cursor{ReceivedAt: t, EventID: eventID}, nil
}

func (s *Store) Update(ctx context.Context, libraryID string, c cursor.Cursor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cursors (library_id, last_received_at, last_event_id)
		VALUES (?, ?, ?)
		ON CONFLICT(library_id) DO UPDATE SET
			last_received_at = excluded.last_received_at,
			last_event_id = excluded.last_event_id
	`, libraryID, c.ReceivedAt.UTC().Format(time.RFC3339Nano), c.EventID)
	if err != nil {
		return fmt.Errorf("update cursor for library %s: %w", libraryID, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, libraryID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cursors WHERE library_id = ?`, libraryID)
	if err != nil {
		return fmt.Errorf("clear cursor for library %s: %w", libraryID, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) (map[string]cursor.Cursor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT library_id, last_received_at, last_event_id FROM cursors`)
	if err != nil {
		return nil, fmt.Errorf("list cursors: %w", err)
	}
	defer rows.Close()

	out := make(map[string]cursor.Cursor)
	for rows.Next() {
		var libraryID, receivedAt, eventID string
		if err := rows.Scan(&libraryID, &receivedAt, &eventID); err != nil {
			return nil, fmt.Errorf("scan cursor row: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, receivedAt)
		if err != nil {
			return nil, fmt.Errorf("parse stored cursor timestamp: %w", err)
		}
		out[libraryID] = cursor.Cursor{ReceivedAt: t, EventID: eventID}
	}
	return out, rows.Err()
}
