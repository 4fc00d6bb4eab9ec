// Package memstore is an in-memory store.EventStore used by tests that
// exercise the projector and ingestion packages without a Postgres
// container. It implements the same §4.4 semantics (create-once,
// point reads, ordered collection scan, all-or-nothing transactions)
// over a plain map guarded by a mutex.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/studybuddy/eventcore/internal/store"
)

type Store struct {
	mu       sync.Mutex
	docs     map[string]store.Doc
	position int64
}

func New() *Store {
	return &Store{docs: make(map[string]store.Doc)}
}

func (s *Store) CreateIfAbsent(_ context.Context, path, kind string, body []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[path]; ok {
		return false, nil
	}
	s.position++
	now := time.Now()
	s.docs[path] = store.Doc{Path: path, Kind: kind, Body: append([]byte{}, body...), Position: s.position, CreatedAt: now, UpdatedAt: now}
	return true, nil
}

func (s *Store) Read(_ context.Context, path string) (*store.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(path)
}

func (s *Store) readLocked(path string) (*store.Doc, error) {
	d, ok := s.docs[path]
	if !ok {
		return nil, nil
	}
	cp := d
	cp.Body = append([]byte{}, d.Body...)
	return &cp, nil
}

func (s *Store) ReadMany(_ context.Context, paths []string) ([]*store.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*store.Doc, len(paths))
	for i, p := range paths {
		d, _ := s.readLocked(p)
		out[i] = d
	}
	return out, nil
}

func (s *Store) Write(_ context.Context, path, kind string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(path, kind, body)
	return nil
}

func (s *Store) writeLocked(path, kind string, body []byte) {
	now := time.Now()
	existing, ok := s.docs[path]
	created := existing.CreatedAt
	if !ok {
		s.position++
		created = now
	}
	s.docs[path] = store.Doc{Path: path, Kind: kind, Body: append([]byte{}, body...), Position: s.position, CreatedAt: created, UpdatedAt: now}
}

// memTx buffers writes and applies them only when Transaction's fn
// returns nil, so a failing fn leaves the store untouched — the same
// guarantee the Postgres adapter gets from a real rollback.
type memTx struct {
	s       *Store
	pending map[string]store.Write
}

func (t *memTx) Read(ctx context.Context, path string) (*store.Doc, error) {
	if w, ok := t.pending[path]; ok {
		return &store.Doc{Path: w.Path, Kind: w.Kind, Body: append([]byte{}, w.Body...)}, nil
	}
	return t.s.Read(ctx, path)
}

func (t *memTx) Write(_ context.Context, path, kind string, body []byte) error {
	t.pending[path] = store.Write{Path: path, Kind: kind, Body: append([]byte{}, body...)}
	return nil
}

func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	tx := &memTx{s: s, pending: make(map[string]store.Write)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, w := range tx.pending {
		s.writeLocked(path, w.Kind, w.Body)
	}
	return nil
}

func (s *Store) Query(_ context.Context, filter store.QueryFilter, order store.Order, limit int, afterPath string) ([]*store.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []store.Doc
	for _, d := range s.docs {
		if filter.Kind != "" && d.Kind != filter.Kind {
			continue
		}
		if filter.PathPrefix != "" && !strings.HasPrefix(d.Path, filter.PathPrefix) {
			continue
		}
		matches = append(matches, d)
	}

	sort.Slice(matches, func(i, j int) bool {
		if order == store.OrderDescending {
			return matches[i].Path > matches[j].Path
		}
		return matches[i].Path < matches[j].Path
	})

	if afterPath != "" {
		var rest []store.Doc
		for _, d := range matches {
			if order == store.OrderDescending {
				if d.Path < afterPath {
					rest = append(rest, d)
				}
			} else if d.Path > afterPath {
				rest = append(rest, d)
			}
		}
		matches = rest
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*store.Doc, len(matches))
	for i := range matches {
		cp := matches[i]
		out[i] = &cp
	}
	return out, nil
}

func (s *Store) BatchWrite(ctx context.Context, items []store.Write) ([]bool, error) {
	created := make([]bool, len(items))
	for i, w := range items {
		c, err := s.CreateIfAbsent(ctx, w.Path, w.Kind, w.Body)
		if err != nil {
			return nil, err
		}
		created[i] = c
	}
	return created, nil
}

func (s *Store) Close() {}
