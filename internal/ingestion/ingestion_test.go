package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/studybuddy/eventcore/internal/events"
	"github.com/studybuddy/eventcore/internal/store"
	"github.com/studybuddy/eventcore/internal/store/memstore"
)

func reviewedEvent(t *testing.T) events.Event {
	t.Helper()
	e, err := events.NewCardReviewed("user_1", "lib_1", "dev_1", "card_1", time.Now(), events.CardReviewedPayload{
		Grade:        events.GradeGood,
		SecondsSpent: 3,
	})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	e.ReceivedAt = time.Now()
	return e
}

func TestIngest_FirstDeliveryWrites(t *testing.T) {
	svc := New(memstore.New())
	e := reviewedEvent(t)

	result, err := svc.Ingest(context.Background(), e)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !result.Success || result.Idempotent {
		t.Errorf("want success and not idempotent on first delivery, got %+v", result)
	}
}

func TestIngest_RedeliveryIsIdempotent(t *testing.T) {
	svc := New(memstore.New())
	e := reviewedEvent(t)

	if _, err := svc.Ingest(context.Background(), e); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	result, err := svc.Ingest(context.Background(), e)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if !result.Success || !result.Idempotent {
		t.Errorf("want success and idempotent on redelivery, got %+v", result)
	}
}

func TestIngest_InvalidEnvelopeNeverReachesStore(t *testing.T) {
	ms := memstore.New()
	svc := New(ms)
	e := reviewedEvent(t)
	e.DeviceID = "" // violates envelope validation

	result, err := svc.Ingest(context.Background(), e)
	if err != nil {
		t.Fatalf("Ingest should report the failure in the result, not as an error: %v", err)
	}
	if result.Success {
		t.Error("want success=false for an invalid envelope")
	}
	if result.Error == "" {
		t.Error("want a populated error message")
	}

	docs, err := ms.Query(context.Background(), store.QueryFilter{Kind: "event"}, store.OrderAscending, 0, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("want no event documents written, got %d", len(docs))
	}
}

func TestIngestBatch_PreservesOrderAndSkipsInvalid(t *testing.T) {
	svc := New(memstore.New())

	valid1 := reviewedEvent(t)
	invalid := reviewedEvent(t)
	invalid.UserID = "" // fails envelope validation
	valid2 := reviewedEvent(t)

	results, err := svc.IngestBatch(context.Background(), []events.Event{valid1, invalid, valid2})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	if !results[0].Success || results[0].Idempotent {
		t.Errorf("result[0] = %+v, want success and not idempotent", results[0])
	}
	if results[1].Success {
		t.Errorf("result[1] = %+v, want success=false for the invalid envelope", results[1])
	}
	if !results[2].Success || results[2].Idempotent {
		t.Errorf("result[2] = %+v, want success and not idempotent", results[2])
	}
}

func TestIngestBatch_IdempotentEntriesReportedPerItem(t *testing.T) {
	svc := New(memstore.New())
	e := reviewedEvent(t)

	if _, err := svc.IngestBatch(context.Background(), []events.Event{e}); err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	results, err := svc.IngestBatch(context.Background(), []events.Event{e})
	if err != nil {
		t.Fatalf("redelivered batch: %v", err)
	}
	if !results[0].Success || !results[0].Idempotent {
		t.Errorf("want idempotent redelivery, got %+v", results[0])
	}
}

func TestExists(t *testing.T) {
	svc := New(memstore.New())
	e := reviewedEvent(t)

	exists, err := svc.Exists(context.Background(), e.UserID, e.LibraryID, e.EventID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("want exists=false before ingestion")
	}

	if _, err := svc.Ingest(context.Background(), e); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	exists, err = svc.Exists(context.Background(), e.UserID, e.LibraryID, e.EventID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("want exists=true after ingestion")
	}
}
