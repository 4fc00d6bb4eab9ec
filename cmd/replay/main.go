// Command replay rebuilds every view document from the event log: it
// is the operational answer to spec's "replay compaction" non-goal —
// since events are kept forever and reducers are pure functions of
// them, correctness never depends on compaction, only on being able
// to replay from scratch.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sort"
	"time"

	"github.com/studybuddy/eventcore/internal/config"
	"github.com/studybuddy/eventcore/internal/events"
	"github.com/studybuddy/eventcore/internal/projector"
	"github.com/studybuddy/eventcore/internal/store"
	"github.com/studybuddy/eventcore/internal/store/postgres"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stderr)
}

func main() {
	ctx := context.Background()
	cfg := config.Load()

	es, err := postgres.Connect(ctx, cfg.DatabaseDSN, cfg.Store)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer es.Close()

	if err := run(ctx, es); err != nil {
		log.Fatalf("Replay failed: %v", err)
	}
}

func run(ctx context.Context, es store.EventStore) error {
	docs, err := es.Query(ctx, store.QueryFilter{Kind: "event"}, store.OrderAscending, 0, "")
	if err != nil {
		return err
	}

	all := make([]events.Event, 0, len(docs))
	for _, d := range docs {
		var e events.Event
		if err := json.Unmarshal(d.Body, &e); err != nil {
			log.Printf("replay: skipping corrupt event document at %s: %v", d.Path, err)
			continue
		}
		all = append(all, e)
	}

	// A single, total (received_at, event_id) order across every user
	// and library is sufficient: it's a superset of the per-entity
	// order the cursor actually requires.
	sort.Slice(all, func(i, j int) bool {
		if all[i].ReceivedAt.Equal(all[j].ReceivedAt) {
			return all[i].EventID < all[j].EventID
		}
		return all[i].ReceivedAt.Before(all[j].ReceivedAt)
	})

	p := projector.New(es, nil)
	start := time.Now()
	projected, failed := 0, 0
	for _, e := range all {
		if _, err := p.Project(ctx, e); err != nil {
			log.Printf("replay: failed to project event %s (%s): %v", e.EventID, e.Type, err)
			failed++
			continue
		}
		projected++
	}

	log.Printf("replay: projected %d events (%d failed) from %d total in %v", projected, failed, len(all), time.Since(start))
	return nil
}
