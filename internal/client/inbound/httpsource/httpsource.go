// Package httpsource implements inbound.Source against the ingestion
// service's /events endpoint (internal/ingestion/httpapi), the same
// net/http+JSON client shape the teacher's web-app handlers are mirrored
// from on the server side.
package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/studybuddy/eventcore/internal/events"
)

type Source struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, client *http.Client) *Source {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Source{baseURL: baseURL, client: client}
}

func (s *Source) FetchEvents(ctx context.Context, userID, libraryID string, afterReceivedAt time.Time, afterEventID string, limit int) ([]events.Event, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("library_id", libraryID)
	q.Set("limit", strconv.Itoa(limit))
	if !afterReceivedAt.IsZero() {
		q.Set("after_received_at", afterReceivedAt.UTC().Format(time.RFC3339Nano))
		q.Set("after_event_id", afterEventID)
	}

	reqURL := s.baseURL + "/events?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build events request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch events: unexpected status %d", resp.StatusCode)
	}

	var out []events.Event
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode events response: %w", err)
	}
	return out, nil
}
