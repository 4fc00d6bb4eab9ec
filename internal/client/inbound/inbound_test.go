package inbound

import (
	"context"
	"testing"
	"time"

	"github.com/studybuddy/eventcore/internal/client/inbound/memcursor"
	"github.com/studybuddy/eventcore/internal/cursor"
	"github.com/studybuddy/eventcore/internal/events"
)

// fakeSource serves a fixed, already-sorted slice of events the way
// the httpapi /events endpoint would, applying the same
// after_received_at/after_event_id tie-break and limit.
type fakeSource struct {
	all   []events.Event
	calls int
}

func (f *fakeSource) FetchEvents(_ context.Context, _, _ string, afterReceivedAt time.Time, afterEventID string, limit int) ([]events.Event, error) {
	f.calls++
	out := make([]events.Event, 0, limit)
	for _, e := range f.all {
		if !afterReceivedAt.IsZero() {
			if e.ReceivedAt.Before(afterReceivedAt) {
				continue
			}
			if e.ReceivedAt.Equal(afterReceivedAt) && e.EventID <= afterEventID {
				continue
			}
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func makeEvent(id string, at time.Time) events.Event {
	return events.Event{
		EventID:    id,
		UserID:     "user-1",
		LibraryID:  "lib-1",
		DeviceID:   "device-1",
		Type:       events.TypeCardReviewed,
		ReceivedAt: at,
	}
}

func TestSyncLibrary_FirstSyncPullsEverything(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{all: []events.Event{
		makeEvent("e1", base),
		makeEvent("e2", base.Add(time.Second)),
		makeEvent("e3", base.Add(2 * time.Second)),
	}}
	cs := memcursor.New()
	syncer := New(src, cs, Config{BatchSize: 2, MaxEvents: 100})

	result, err := syncer.SyncLibrary(context.Background(), "user-1", "lib-1")
	if err != nil {
		t.Fatalf("SyncLibrary: %v", err)
	}
	if result.EventsReceived != 3 {
		t.Fatalf("expected 3 events received, got %d", result.EventsReceived)
	}
	if result.Cursor == nil || result.Cursor.EventID != "e3" {
		t.Fatalf("expected cursor advanced to e3, got %+v", result.Cursor)
	}
	if src.calls != 2 {
		t.Fatalf("expected 2 pages fetched with batch size 2, got %d", src.calls)
	}
}

func TestSyncLibrary_SubsequentSyncOnlyPullsNew(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{all: []events.Event{
		makeEvent("e1", base),
		makeEvent("e2", base.Add(time.Second)),
	}}
	cs := memcursor.New()
	syncer := New(src, cs, Config{BatchSize: 10, MaxEvents: 100})

	if _, err := syncer.SyncLibrary(context.Background(), "user-1", "lib-1"); err != nil {
		t.Fatalf("initial SyncLibrary: %v", err)
	}

	src.all = append(src.all, makeEvent("e3", base.Add(2*time.Second)))
	result, err := syncer.SyncLibrary(context.Background(), "user-1", "lib-1")
	if err != nil {
		t.Fatalf("second SyncLibrary: %v", err)
	}
	if result.EventsReceived != 1 {
		t.Fatalf("expected 1 new event, got %d", result.EventsReceived)
	}
	if result.Cursor.EventID != "e3" {
		t.Fatalf("expected cursor at e3, got %s", result.Cursor.EventID)
	}
}

func TestSyncLibrary_EmptySourceLeavesCursorUnchanged(t *testing.T) {
	src := &fakeSource{}
	cs := memcursor.New()
	prior := cursor.Cursor{ReceivedAt: time.Now().UTC(), EventID: "e9"}
	if err := cs.Update(context.Background(), "lib-1", prior); err != nil {
		t.Fatalf("seed cursor: %v", err)
	}

	syncer := New(src, cs, Config{})
	result, err := syncer.SyncLibrary(context.Background(), "user-1", "lib-1")
	if err != nil {
		t.Fatalf("SyncLibrary: %v", err)
	}
	if result.EventsReceived != 0 {
		t.Fatalf("expected 0 events received, got %d", result.EventsReceived)
	}
	got, err := cs.Get(context.Background(), "lib-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.EventID != "e9" {
		t.Fatalf("expected cursor left at e9, got %+v", got)
	}
}

func TestSyncLibrary_ForceFullResyncClearsCursor(t *testing.T) {
	cs := memcursor.New()
	if err := cs.Update(context.Background(), "lib-1", cursor.Cursor{ReceivedAt: time.Now().UTC(), EventID: "e1"}); err != nil {
		t.Fatalf("seed cursor: %v", err)
	}

	syncer := New(&fakeSource{}, cs, Config{})
	if err := syncer.ForceFullResync(context.Background(), "lib-1"); err != nil {
		t.Fatalf("ForceFullResync: %v", err)
	}

	got, err := cs.Get(context.Background(), "lib-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected cursor cleared, got %+v", got)
	}
}
