// Package syncengine implements the sync engine (J, §4.10): it owns
// the outbound and inbound syncers, coordinates them around
// connectivity transitions, and runs the periodic timer.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/studybuddy/eventcore/internal/client/inbound"
	"github.com/studybuddy/eventcore/internal/client/outbound"
	"github.com/studybuddy/eventcore/internal/client/queue"
	"github.com/studybuddy/eventcore/internal/cursor"
	"github.com/studybuddy/eventcore/internal/events"
)

// ErrOffline is returned by operations that would touch the network
// while the engine believes the device is offline.
var ErrOffline = errors.New("device is offline")

// Config holds §6.4's engine-level tunable.
type Config struct {
	AutoSyncIntervalMS int // default 60000
}

func (c Config) interval() time.Duration {
	ms := c.AutoSyncIntervalMS
	if ms <= 0 {
		ms = 60_000
	}
	return time.Duration(ms) * time.Millisecond
}

// Status is the snapshot §4.10's get_status exposes.
type Status struct {
	PendingCount  int
	Online        bool
	LastOutbound  *outbound.Result
	LastInbound   *inbound.Result
	LastOutboundErr error
	LastInboundErr  error
	Cursors       map[string]cursor.Cursor
}

// Engine coordinates outbound and inbound sync, owning both
// exclusively (§9's "class holding references" redesign). userID is
// fixed for the engine's lifetime; libraryIDs synced are supplied per
// call since one device can hold several libraries.
type Engine struct {
	userID   string
	out      *outbound.Syncer
	in       *inbound.Syncer
	q        queue.Store
	detector OnlineDetector
	cfg      Config

	mu           sync.Mutex
	lastOutbound *outbound.Result
	lastInbound  *inbound.Result
	lastOutErr   error
	lastInErr    error

	cronID  cron.EntryID
	runner  *cron.Cron
	running bool
}

func New(userID string, out *outbound.Syncer, in *inbound.Syncer, q queue.Store, detector OnlineDetector, cfg Config) *Engine {
	e := &Engine{userID: userID, out: out, in: in, q: q, detector: detector, cfg: cfg}
	if detector != nil {
		detector.Subscribe(e.onConnectivityChange)
	}
	return e
}

func (e *Engine) onConnectivityChange(online bool) {
	if !online {
		return
	}
	go func() {
		if _, err := e.SyncOutbound(context.Background()); err != nil {
			log.Printf("syncengine: outbound sync on reconnect failed: %v", err)
		}
	}()
}

// QueueEvent implements §4.10's queue-and-try: write to the queue,
// then if online kick off a non-blocking outbound sync. A failure
// there is logged and tolerated — the event stays queued either way.
func (e *Engine) QueueEvent(ctx context.Context, ev events.Event) error {
	if err := e.q.Enqueue(ctx, ev); err != nil {
		return err
	}
	if e.detector != nil && !e.detector.IsOnline() {
		return nil
	}
	go func() {
		if _, err := e.SyncOutbound(context.Background()); err != nil {
			log.Printf("syncengine: background outbound sync failed: %v", err)
		}
	}()
	return nil
}

// SyncOutbound runs outbound sync once, refusing while offline.
func (e *Engine) SyncOutbound(ctx context.Context) (outbound.Result, error) {
	if e.detector != nil && !e.detector.IsOnline() {
		return outbound.Result{}, ErrOffline
	}
	result, err := e.out.SyncOutbound(ctx)
	e.mu.Lock()
	e.lastOutbound, e.lastOutErr = &result, err
	e.mu.Unlock()
	return result, err
}

// SyncInbound runs inbound sync once for libraryID, refusing while
// offline.
func (e *Engine) SyncInbound(ctx context.Context, libraryID string) (inbound.Result, error) {
	if e.detector != nil && !e.detector.IsOnline() {
		return inbound.Result{}, ErrOffline
	}
	result, err := e.in.SyncLibrary(ctx, e.userID, libraryID)
	e.mu.Lock()
	e.lastInbound, e.lastInErr = &result, err
	e.mu.Unlock()
	return result, err
}

// SyncAll runs outbound and inbound concurrently; both must complete
// before it returns (§4.10).
func (e *Engine) SyncAll(ctx context.Context, libraryIDs []string) error {
	var wg sync.WaitGroup
	var outErr, inErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, outErr = e.SyncOutbound(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, libraryID := range libraryIDs {
			if _, err := e.SyncInbound(ctx, libraryID); err != nil {
				inErr = err
			}
		}
	}()

	wg.Wait()

	if outErr != nil {
		return fmt.Errorf("sync_all outbound: %w", outErr)
	}
	if inErr != nil {
		return fmt.Errorf("sync_all inbound: %w", inErr)
	}
	return nil
}

// GetStatus returns §4.10's status snapshot.
func (e *Engine) GetStatus(ctx context.Context) (Status, error) {
	pending, err := e.q.PendingCount(ctx)
	if err != nil {
		return Status{}, err
	}

	online := true
	if e.detector != nil {
		online = e.detector.IsOnline()
	}

	cursors, err := e.in.Cursors(ctx)
	if err != nil {
		return Status{}, err
	}

	e.mu.Lock()
	status := Status{
		PendingCount:    pending,
		Online:          online,
		LastOutbound:    e.lastOutbound,
		LastInbound:     e.lastInbound,
		LastOutboundErr: e.lastOutErr,
		LastInboundErr:  e.lastInErr,
		Cursors:         cursors,
	}
	e.mu.Unlock()

	return status, nil
}

// ForceFullInboundSync clears libraryID's cursor so the next inbound
// sync re-pulls its entire history.
func (e *Engine) ForceFullInboundSync(ctx context.Context, libraryID string) error {
	return e.in.ForceFullResync(ctx, libraryID)
}

// StartAutoSync starts the periodic timer (§4.10's "Periodic sync"),
// built on robfig/cron/v3's @every schedule rather than a hand-rolled
// time.Ticker loop. libraryIDs is the fixed set synced on every tick.
func (e *Engine) StartAutoSync(libraryIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}

	e.runner = cron.New()
	spec := fmt.Sprintf("@every %s", e.cfg.interval())
	id, err := e.runner.AddFunc(spec, func() {
		if e.detector != nil && !e.detector.IsOnline() {
			return
		}
		if err := e.SyncAll(context.Background(), libraryIDs); err != nil {
			log.Printf("syncengine: periodic sync_all failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule auto sync: %w", err)
	}
	e.cronID = id
	e.runner.Start()
	e.running = true
	return nil
}

// StopAutoSync stops the periodic timer. Idempotent.
func (e *Engine) StopAutoSync() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	<-e.runner.Stop().Done()
	e.running = false
}

// Destroy stops the timer. Idempotent (§4.10's lifecycle requirement).
// OnlineDetector has no unsubscribe primitive; callers that need the
// subscription gone should drop the detector itself.
func (e *Engine) Destroy() {
	e.StopAutoSync()
}
