package syncengine

import (
	"context"
	"testing"
	"time"

	"github.com/studybuddy/eventcore/internal/client/inbound"
	"github.com/studybuddy/eventcore/internal/client/inbound/memcursor"
	"github.com/studybuddy/eventcore/internal/client/outbound"
	"github.com/studybuddy/eventcore/internal/client/queue/memqueue"
	"github.com/studybuddy/eventcore/internal/events"
)

type noopUploader struct{}

func (noopUploader) IngestBatch(_ context.Context, batch []events.Event) ([]outbound.IngestResult, error) {
	out := make([]outbound.IngestResult, len(batch))
	for i, e := range batch {
		out[i] = outbound.IngestResult{EventID: e.EventID, Success: true}
	}
	return out, nil
}

type emptySource struct{}

func (emptySource) FetchEvents(_ context.Context, _, _ string, _ time.Time, _ string, _ int) ([]events.Event, error) {
	return nil, nil
}

func newTestEngine(detector OnlineDetector) (*Engine, *memqueueWrapper) {
	q := memqueue.New()
	out := outbound.New(noopUploader{}, q, outbound.Config{})
	in := inbound.New(emptySource{}, memcursor.New(), inbound.Config{})
	return New("user-1", out, in, q, detector, Config{}), &memqueueWrapper{q}
}

// memqueueWrapper exposes the queue for assertions without leaking
// queue.Store's full surface into every test.
type memqueueWrapper struct {
	*memqueue.Store
}

func TestQueueEvent_OnlineTriggersBackgroundSync(t *testing.T) {
	detector := NewManualDetector(true)
	engine, q := newTestEngine(detector)

	ev := events.Event{EventID: "e1", UserID: "user-1", LibraryID: "lib-1", DeviceID: "device-1", Type: events.TypeCardReviewed}
	if err := engine.QueueEvent(context.Background(), ev); err != nil {
		t.Fatalf("QueueEvent: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		pending, err := q.GetPending(context.Background())
		if err != nil {
			t.Fatalf("GetPending: %v", err)
		}
		if len(pending) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected background sync to drain the queue")
}

func TestSyncOutbound_OfflineRefusesWithoutTouchingStore(t *testing.T) {
	detector := NewManualDetector(false)
	engine, _ := newTestEngine(detector)

	_, err := engine.SyncOutbound(context.Background())
	if err != ErrOffline {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
}

func TestSyncAll_RunsOutboundAndInboundConcurrently(t *testing.T) {
	detector := NewManualDetector(true)
	engine, _ := newTestEngine(detector)

	if err := engine.SyncAll(context.Background(), []string{"lib-1"}); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}

	status, err := engine.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.LastOutbound == nil || status.LastInbound == nil {
		t.Fatalf("expected both last results populated, got %+v", status)
	}
}

func TestGetStatus_PopulatesCursorsFromInboundSyncer(t *testing.T) {
	detector := NewManualDetector(true)
	engine, _ := newTestEngine(detector)

	if err := engine.SyncAll(context.Background(), []string{"lib-1"}); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}

	status, err := engine.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Cursors == nil {
		t.Fatal("expected Cursors to be a non-nil map")
	}
}

func TestStartStopAutoSync_IsIdempotent(t *testing.T) {
	detector := NewManualDetector(true)
	engine, _ := newTestEngine(detector)

	if err := engine.StartAutoSync([]string{"lib-1"}); err != nil {
		t.Fatalf("StartAutoSync: %v", err)
	}
	if err := engine.StartAutoSync([]string{"lib-1"}); err != nil {
		t.Fatalf("second StartAutoSync: %v", err)
	}
	engine.StopAutoSync()
	engine.StopAutoSync()
	engine.Destroy()
}

func TestPollingDetector_FlipsOfflineAfterThreshold(t *testing.T) {
	d := NewPollingDetector(2)
	var transitions []bool
	d.Subscribe(func(online bool) { transitions = append(transitions, online) })

	d.ReportOutcome(true)
	if !d.IsOnline() {
		t.Fatal("expected still online after one failure below threshold")
	}
	d.ReportOutcome(true)
	if d.IsOnline() {
		t.Fatal("expected offline after reaching threshold")
	}
	d.ReportOutcome(false)
	if !d.IsOnline() {
		t.Fatal("expected back online after a success")
	}
	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions recorded, got %d: %+v", len(transitions), transitions)
	}
}
