// Package httpapi exposes internal/ingestion over net/http+JSON, in
// the same handler style as the teacher's internal/web-app: manual
// json.Decoder, per-request context timeout, one http.HandleFunc per
// conceptual operation.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/studybuddy/eventcore/internal/apperrors"
	"github.com/studybuddy/eventcore/internal/events"
	"github.com/studybuddy/eventcore/internal/ingestion"
	"github.com/studybuddy/eventcore/internal/store"
)

// Server wires a Service to the *http.ServeMux passed to Register. es is
// used directly (bypassing ingestion.Service) only by handleEvents,
// which needs the raw collection scan §4.9's inbound sync pages
// through — ingestion itself never reads events back out.
type Server struct {
	service *ingestion.Service
	es      store.EventStore
	timeout time.Duration
}

// New builds a Server. timeout defaults to 15s when zero.
func New(service *ingestion.Service, es store.EventStore, timeout time.Duration) *Server {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Server{service: service, es: es, timeout: timeout}
}

// Register attaches the §6.2 routes, plus /events for §4.9's inbound
// sync, to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ingest", s.handleIngest)
	mux.HandleFunc("/ingest/batch", s.handleIngestBatch)
	mux.HandleFunc("/exists", s.handleExists)
	mux.HandleFunc("/events", s.handleEvents)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var e events.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	result, err := s.service.Ingest(ctx, e)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in []events.Event
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	now := time.Now().UTC()
	for i := range in {
		if in[i].ReceivedAt.IsZero() {
			in[i].ReceivedAt = now
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	results, err := s.service.IngestBatch(ctx, in)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	userID, libraryID, eventID := q.Get("user_id"), q.Get("library_id"), q.Get("event_id")
	if userID == "" || libraryID == "" || eventID == "" {
		http.Error(w, "user_id, library_id and event_id are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	exists, err := s.service.Exists(ctx, userID, libraryID, eventID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"exists": exists})
}

// handleEvents serves §4.9's page-by-received_at scan. The underlying
// store only orders by path, so this handler reads the whole
// users/{u}/libraries/{l}/events/ collection in one unbounded Query, decodes each
// document, and sorts/filters by (received_at, event_id) itself — the
// cost a generic document store trades for not needing a bespoke
// events-table index.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	userID, libraryID := q.Get("user_id"), q.Get("library_id")
	if userID == "" || libraryID == "" {
		http.Error(w, "user_id and library_id are required", http.StatusBadRequest)
		return
	}

	limit := 100
	if raw := q.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var afterReceivedAt time.Time
	if raw := q.Get("after_received_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			http.Error(w, "invalid after_received_at", http.StatusBadRequest)
			return
		}
		afterReceivedAt = parsed
	}
	afterEventID := q.Get("after_event_id")

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	prefix := "users/" + userID + "/libraries/" + libraryID + "/events/"
	docs, err := s.es.Query(ctx, store.QueryFilter{Kind: "event", PathPrefix: prefix}, store.OrderAscending, 0, "")
	if err != nil {
		writeStoreError(w, err)
		return
	}

	out := make([]events.Event, 0, len(docs))
	for _, d := range docs {
		var e events.Event
		if err := json.Unmarshal(d.Body, &e); err != nil {
			log.Printf("ingestion: corrupt event document at %s: %v", d.Path, err)
			continue
		}
		if !afterReceivedAt.IsZero() {
			if e.ReceivedAt.Before(afterReceivedAt) {
				continue
			}
			if e.ReceivedAt.Equal(afterReceivedAt) && e.EventID <= afterEventID {
				continue
			}
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].EventID < out[j].EventID
		}
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// writeStoreError maps the pipeline error taxonomy (§7) to HTTP status
// the way handleRead/handleAppend switch on *dcb.ValidationError /
// *dcb.ResourceError in the teacher.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsConcurrencyError(err):
		http.Error(w, apperrors.Message(err), http.StatusConflict)
	case apperrors.IsTransientStoreError(err):
		log.Printf("ingestion: transient store error: %v", err)
		http.Error(w, apperrors.Message(err), http.StatusServiceUnavailable)
	default:
		log.Printf("ingestion: unexpected store error: %v", err)
		http.Error(w, apperrors.Message(err), http.StatusInternalServerError)
	}
}
