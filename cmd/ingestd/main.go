// Command ingestd runs the ingestion service (F) over HTTP+JSON, in
// the same startup shape as the teacher's internal/web-app: connect
// to Postgres with bounded retry, wire routes, serve.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/studybuddy/eventcore/internal/config"
	"github.com/studybuddy/eventcore/internal/ingestion"
	"github.com/studybuddy/eventcore/internal/ingestion/httpapi"
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

	es, err := connectWithRetry(ctx, cfg.DatabaseDSN, cfg.Store, 30, 2*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer es.Close()

	service := ingestion.New(es)
	server := httpapi.New(service, es, cfg.RequestTimeout)

	mux := http.NewServeMux()
	server.Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	httpServer := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        mux,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("Starting eventcore ingestion server on port %s", cfg.Port)
	log.Fatal(httpServer.ListenAndServe())
}

func connectWithRetry(ctx context.Context, dsn string, storeCfg postgres.Config, maxRetries int, retryDelay time.Duration) (store.EventStore, error) {
	var (
		es  store.EventStore
		err error
	)
	for i := 0; i < maxRetries; i++ {
		es, err = postgres.Connect(ctx, dsn, storeCfg)
		if err == nil {
			return es, nil
		}
		log.Printf("Failed to connect to database: %v", err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}
	return nil, err
}
