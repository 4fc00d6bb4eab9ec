// Package httpuploader implements outbound.Uploader against the
// ingestion service's /ingest/batch endpoint.
package httpuploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/studybuddy/eventcore/internal/client/outbound"
	"github.com/studybuddy/eventcore/internal/events"
)

type Uploader struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, client *http.Client) *Uploader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Uploader{baseURL: baseURL, client: client}
}

// wireResult matches the JSON shape of ingestion.Result.
type wireResult struct {
	EventID    string `json:"event_id"`
	Path       string `json:"path"`
	Success    bool   `json:"success"`
	Idempotent bool   `json:"idempotent"`
	Error      string `json:"error,omitempty"`
}

func (u *Uploader) IngestBatch(ctx context.Context, batch []events.Event) ([]outbound.IngestResult, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/ingest/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ingest batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send ingest batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ingest batch: unexpected status %d", resp.StatusCode)
	}

	var wire []wireResult
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode ingest batch response: %w", err)
	}

	out := make([]outbound.IngestResult, len(wire))
	for i, w := range wire {
		out[i] = outbound.IngestResult{
			EventID:    w.EventID,
			Success:    w.Success,
			Idempotent: w.Idempotent,
			Error:      w.Error,
		}
	}
	return out, nil
}
