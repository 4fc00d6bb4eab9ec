// Package inbound implements inbound sync (§4.9): pull events the
// projector has not yet seen, gated by a per-library cursor.
package inbound

import (
	"context"

	"github.com/studybuddy/eventcore/internal/cursor"
)

// CursorStore mirrors queue.Store's shape, keyed by library_id
// instead of event_id (§4.9's "Cursor store operations mirror queue").
type CursorStore interface {
	Get(ctx context.Context, libraryID string) (*cursor.Cursor, error)
	Update(ctx context.Context, libraryID string, c cursor.Cursor) error
	Clear(ctx context.Context, libraryID string) error
	List(ctx context.Context) (map[string]cursor.Cursor, error)
}
