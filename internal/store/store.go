// Package store declares the document-store capability surface (§4.4):
// a thin, path-keyed read/write/transaction/query interface with a
// Postgres implementation in store/postgres and an in-memory one in
// store/memstore. Nothing here knows
// about event types, reducers, or views — those live in the
// projector and ingestion packages built on top of this interface.
package store

import (
	"context"
	"time"
)

// Doc is one stored document: its path, the kind discriminator used by
// Query's collection scan, the raw JSON body, and its store position
// (monotonic; Query orders and resumes by path, not by position, and
// position is never used for idempotency).
type Doc struct {
	Path      string
	Kind      string
	Body      []byte
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Order controls the direction Query walks a collection in.
type Order int

const (
	OrderAscending Order = iota
	OrderDescending
)

// QueryFilter narrows a collection scan. Kind matches Doc.Kind
// exactly; PathPrefix additionally narrows by a literal path prefix
// (used to scope a collection scan to one user/library).
type QueryFilter struct {
	Kind       string
	PathPrefix string
}

// Write is one (path, doc) pair for BatchWrite.
type Write struct {
	Path string
	Kind string
	Body []byte
}

// Tx is the read/write surface available inside Transaction. Reads see
// the transaction's own snapshot; writes commit atomically with it.
type Tx interface {
	Read(ctx context.Context, path string) (*Doc, error)
	Write(ctx context.Context, path, kind string, body []byte) error
}

// EventStore is the full capability surface of §4.4: create-only
// writes, point reads (single and batched), overwrites, a
// transactional read-modify-write for multi-view events, an ordered
// collection scan, and a batch writer for ingestion.
type EventStore interface {
	// CreateIfAbsent is an atomic create-only write. It reports whether
	// this call actually inserted the row; a false return with a nil
	// error means path already existed and was left untouched.
	CreateIfAbsent(ctx context.Context, path, kind string, body []byte) (created bool, err error)

	// Read returns the document at path, or (nil, nil) if absent.
	Read(ctx context.Context, path string) (*Doc, error)

	// ReadMany preserves input order; missing paths yield a nil entry
	// at that index rather than shortening the slice.
	ReadMany(ctx context.Context, paths []string) ([]*Doc, error)

	// Write unconditionally overwrites path (used for views).
	Write(ctx context.Context, path, kind string, body []byte) error

	// Transaction reads nothing up front; fn does its own reads via the
	// given Tx and decides what to write. Conflicts (SQLSTATE 40001)
	// are retried with the store's standard backoff policy.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Query performs an ordered range scan over one logical collection,
	// resuming after the document named by afterPath when non-empty.
	// A limit of zero or less returns every match.
	Query(ctx context.Context, filter QueryFilter, order Order, limit int, afterPath string) ([]*Doc, error)

	// BatchWrite create-only inserts every item, reporting per-item
	// whether it was newly created (used by ingest_batch, §4.6).
	BatchWrite(ctx context.Context, items []Write) ([]bool, error)

	Close()
}
