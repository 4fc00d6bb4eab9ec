// Package memcursor is the in-memory inbound.CursorStore used by
// tests: a map guarded by a mutex.
package memcursor

import (
	"context"
	"sync"

	"github.com/studybuddy/eventcore/internal/cursor"
)

type Store struct {
	mu      sync.Mutex
	cursors map[string]cursor.Cursor
}

func New() *Store {
	return &Store{cursors: make(map[string]cursor.Cursor)}
}

func (s *Store) Get(_ context.Context, libraryID string) (*cursor.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cursors[libraryID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) Update(_ context.Context, libraryID string, c cursor.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[libraryID] = c
	return nil
}

func (s *Store) Clear(_ context.Context, libraryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, libraryID)
	return nil
}

func (s *Store) List(_ context.Context) (map[string]cursor.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]cursor.Cursor, len(s.cursors))
	for k, v := range s.cursors {
		out[k] = v
	}
	return out, nil
}
