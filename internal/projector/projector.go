// Package projector implements the router + reducer-invocation
// pipeline (§4.5): given a validated, persisted event, decide which
// views it affects, apply the §4.3 idempotency cursor to each, reduce
// (§4.2), and write the result. Multi-view events update through one
// store.Transaction so either all applicable views update or none.
package projector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/studybuddy/eventcore/internal/apperrors"
	"github.com/studybuddy/eventcore/internal/cursor"
	"github.com/studybuddy/eventcore/internal/events"
	"github.com/studybuddy/eventcore/internal/store"
)

// ViewReport is the per-view outcome §4.5 step 4 requires.
type ViewReport struct {
	View       events.ViewCollection
	Updated    bool
	Idempotent bool
	Err        error
}

// Result is the projector's report for one event: one ViewReport per
// view the router says this event's type touches.
type Result struct {
	EventID string
	Reports []ViewReport
}

// Projector applies events to views through an EventStore.
type Projector struct {
	store store.EventStore
	now   func() time.Time
}

// New builds a Projector. now defaults to time.Now when nil.
func New(es store.EventStore, now func() time.Time) *Projector {
	if now == nil {
		now = time.Now
	}
	return &Projector{store: es, now: now}
}

// Project implements §4.5's per-event procedure for an already-
// persisted, envelope-valid event. It re-validates the payload itself
// (the projector must be safe to invoke independently of ingestion,
// per §4.6) and is a forward-compatible no-op for unknown types.
func (p *Projector) Project(ctx context.Context, e events.Event) (Result, error) {
	decoded, known, err := events.ValidatePayload(e)
	if err != nil {
		return Result{EventID: e.EventID}, err
	}
	if !known {
		log.Printf("projector: no-op for unknown event type %q (event %s)", e.Type, e.EventID)
		return Result{EventID: e.EventID}, nil
	}

	handler, ok := routes[e.Type]
	if !ok {
		log.Printf("projector: no route registered for known type %q (event %s)", e.Type, e.EventID)
		return Result{EventID: e.EventID}, nil
	}

	candidate := cursor.Cursor{ReceivedAt: e.ReceivedAt, EventID: e.EventID}
	now := p.now()

	var reports []ViewReport
	txErr := p.store.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		reports = nil
		rs, err := handler(ctx, tx, e, decoded, candidate, now)
		if err != nil {
			return err
		}
		reports = rs
		return nil
	})
	if txErr != nil {
		return Result{EventID: e.EventID}, txErr
	}
	return Result{EventID: e.EventID, Reports: reports}, nil
}

type routeHandler func(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error)

// routes is the router table of §4.5: type -> handler. Unregistered
// types (including ones in events.registry but not wired here) fall
// through to the no-op branch in Project, never a panic.
var routes = map[string]routeHandler{
	events.TypeCardReviewed:                  handleCardReviewed,
	events.TypeQuestionAttempted:              handleQuestionAttempted,
	events.TypeRelationshipReviewed:           handleRelationshipReviewed,
	events.TypeMisconceptionProbeResult:       handleMisconceptionProbeResult,
	events.TypeSessionStarted:                 handleSessionStarted,
	events.TypeSessionEnded:                   handleSessionEnded,
	events.TypeAccelerationApplied:            handleAccelerationApplied,
	events.TypeLapseApplied:                   handleLapseApplied,
	events.TypeMasteryCertificationCompleted:  handleMasteryCertificationCompleted,
	events.TypeCardAnnotationUpdated:          handleCardAnnotationUpdated,
}

// cursored is implemented by every view struct in internal/reducers;
// it lets applyView read a decoded view's idempotency cursor without
// a type switch per view kind.
type cursored interface {
	AppliedCursor() *cursor.Cursor
}

// applyView reads the view at path, evaluates should_apply against
// candidate, and if it applies, runs reduce and writes the result.
// prev is nil when the view does not exist yet or reduce is invoked
// for the first time for this entity.
func applyView[V cursored](ctx context.Context, tx store.Tx, path string, collection events.ViewCollection, candidate cursor.Cursor, reduce func(prev *V) V) (ViewReport, error) {
	report := ViewReport{View: collection}

	doc, err := tx.Read(ctx, path)
	if err != nil {
		return report, err
	}

	var prev *V
	var priorApplied *cursor.Cursor
	if doc != nil {
		var v V
		if err := json.Unmarshal(doc.Body, &v); err != nil {
			return report, apperrors.Transient("applyView", "decode", fmt.Errorf("corrupt view at %s: %w", path, err))
		}
		prev = &v
		priorApplied = v.AppliedCursor()
	}

	if !cursor.ShouldApply(priorApplied, candidate) {
		report.Idempotent = true
		return report, nil
	}

	next := reduce(prev)
	body, err := json.Marshal(next)
	if err != nil {
		return report, apperrors.Transient("applyView", "encode", err)
	}
	if err := tx.Write(ctx, path, string(collection), body); err != nil {
		return report, err
	}
	report.Updated = true
	return report, nil
}

// requirePrior reads and decodes the view at path without applying
// the cursor, for the acceleration/lapse handlers which need an
// existing schedule to operate on (§4.2.8) regardless of should_apply
// — MissingPriorStateError is itself the terminal outcome when absent.
func requirePrior[V any](ctx context.Context, tx store.Tx, path string) (*V, error) {
	doc, err := tx.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	var v V
	if err := json.Unmarshal(doc.Body, &v); err != nil {
		return nil, apperrors.Transient("requirePrior", "decode", fmt.Errorf("corrupt view at %s: %w", path, err))
	}
	return &v, nil
}
