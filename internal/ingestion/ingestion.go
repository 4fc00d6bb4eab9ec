// Package ingestion implements the event-only write boundary (§4.6):
// validate, compute the canonical path, create-only write. It never
// invokes the projector — a delivered event is safe to project
// independently, by a separate call, any number of times.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studybuddy/eventcore/internal/apperrors"
	"github.com/studybuddy/eventcore/internal/events"
	"github.com/studybuddy/eventcore/internal/store"
)

// Result is one event's ingestion outcome, returned in input order by
// IngestBatch and directly by Ingest.
type Result struct {
	EventID    string `json:"event_id"`
	Path       string `json:"path,omitempty"`
	Success    bool   `json:"success"`
	Idempotent bool   `json:"idempotent"`
	Error      string `json:"error,omitempty"`
}

// Service is the ingestion boundary over a store.EventStore.
type Service struct {
	store store.EventStore
}

func New(es store.EventStore) *Service {
	return &Service{store: es}
}

// Ingest implements §4.6's ingest operation. A validation failure never
// reaches the store; a create-only conflict (the event already exists)
// is reported as success+idempotent, not an error.
func (s *Service) Ingest(ctx context.Context, e events.Event) (Result, error) {
	result := Result{EventID: e.EventID}

	if err := events.ValidateEnvelope(e); err != nil {
		result.Error = apperrors.Message(err)
		return result, nil
	}
	if _, _, err := events.ValidatePayload(e); err != nil {
		result.Error = apperrors.Message(err)
		return result, nil
	}

	path, err := events.PathOf(e)
	if err != nil {
		result.Error = apperrors.Message(err)
		return result, nil
	}
	result.Path = path

	body, err := json.Marshal(e)
	if err != nil {
		return result, apperrors.Transient("Ingest", "encode", err)
	}

	created, err := s.store.CreateIfAbsent(ctx, path, "event", body)
	if err != nil {
		return result, err
	}

	result.Success = true
	result.Idempotent = !created
	return result, nil
}

// IngestBatch implements §4.6's ingest_batch: every input is validated
// independently, and only the valid ones reach the store, via one
// BatchWrite call. Results preserve input order regardless of which
// entries were skipped for validation failures.
func (s *Service) IngestBatch(ctx context.Context, in []events.Event) ([]Result, error) {
	results := make([]Result, len(in))
	writes := make([]store.Write, 0, len(in))
	writeIndex := make([]int, 0, len(in))

	for i, e := range in {
		results[i] = Result{EventID: e.EventID}

		if err := events.ValidateEnvelope(e); err != nil {
			results[i].Error = apperrors.Message(err)
			continue
		}
		if _, _, err := events.ValidatePayload(e); err != nil {
			results[i].Error = apperrors.Message(err)
			continue
		}
		path, err := events.PathOf(e)
		if err != nil {
			results[i].Error = apperrors.Message(err)
			continue
		}
		body, err := json.Marshal(e)
		if err != nil {
			results[i].Error = apperrors.Message(err)
			continue
		}

		results[i].Path = path
		writes = append(writes, store.Write{Path: path, Kind: "event", Body: body})
		writeIndex = append(writeIndex, i)
	}

	if len(writes) == 0 {
		return results, nil
	}

	created, err := s.store.BatchWrite(ctx, writes)
	if err != nil {
		return nil, err
	}
	if len(created) != len(writes) {
		return nil, apperrors.Transient("IngestBatch", "store", fmt.Errorf("batch write returned %d results for %d writes", len(created), len(writes)))
	}

	for j, idx := range writeIndex {
		results[idx].Success = true
		results[idx].Idempotent = !created[j]
	}
	return results, nil
}

// Exists implements §4.6's exists check.
func (s *Service) Exists(ctx context.Context, userID, libraryID, eventID string) (bool, error) {
	path := fmt.Sprintf("users/%s/libraries/%s/events/%s", userID, libraryID, eventID)
	doc, err := s.store.Read(ctx, path)
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}
