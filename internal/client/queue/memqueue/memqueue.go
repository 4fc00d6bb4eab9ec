// Package memqueue is the in-memory queue.Store used by tests and
// development builds: a map guarded by a mutex, with no durability
// across process restarts.
package memqueue

import (
	"context"
	"sync"
	"time"

	"github.com/studybuddy/eventcore/internal/client/queue"
	"github.com/studybuddy/eventcore/internal/events"
)

type Store struct {
	mu      sync.Mutex
	entries map[string]*queue.Entry
}

func New() *Store {
	return &Store{entries: make(map[string]*queue.Entry)}
}

func (s *Store) Enqueue(_ context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.EventID]; ok {
		return nil
	}
	s.entries[e.EventID] = &queue.Entry{Event: e, EnqueuedAt: time.Now()}
	return nil
}

func (s *Store) GetPending(_ context.Context) ([]queue.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]queue.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.Acknowledged {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *Store) Acknowledge(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[eventID]; ok {
		e.Acknowledged = true
	}
	return nil
}

func (s *Store) Remove(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, eventID)
	return nil
}

func (s *Store) IncrementAttempt(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[eventID]; ok {
		e.Attempts++
	}
	return nil
}

func (s *Store) ClearAcknowledged(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.Acknowledged {
			delete(s.entries, id)
		}
	}
	return nil
}

func (s *Store) PendingCount(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if !e.Acknowledged {
			n++
		}
	}
	return n, nil
}
