package projector

import (
	"context"
	"encoding/json"
	"time"

	"github.com/studybuddy/eventcore/internal/apperrors"
	"github.com/studybuddy/eventcore/internal/cursor"
	"github.com/studybuddy/eventcore/internal/events"
	"github.com/studybuddy/eventcore/internal/reducers"
	"github.com/studybuddy/eventcore/internal/store"
)

func handleCardReviewed(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error) {
	p := decoded.(events.CardReviewedPayload)
	cardID := e.Entity.ID

	schedulePath := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewCardSchedule, cardID)
	scheduleReport, err := applyView(ctx, tx, schedulePath, events.ViewCardSchedule, candidate,
		func(prev *reducers.ScheduleView) reducers.ScheduleView {
			return reducers.ReduceCardSchedule(prev, p.Grade, e.OccurredAt, now, candidate)
		})
	if err != nil {
		return nil, err
	}

	perfPath := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewCardPerf, cardID)
	correct := p.Grade != events.GradeAgain
	perfReport, err := applyView(ctx, tx, perfPath, events.ViewCardPerf, candidate,
		func(prev *reducers.PerformanceView) reducers.PerformanceView {
			return reducers.ReducePerformance(prev, correct, p.SecondsSpent, now, candidate)
		})
	if err != nil {
		return nil, err
	}

	return []ViewReport{scheduleReport, perfReport}, nil
}

func handleQuestionAttempted(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error) {
	p := decoded.(events.QuestionAttemptedPayload)
	path := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewQuestionPerf, e.Entity.ID)

	report, err := applyView(ctx, tx, path, events.ViewQuestionPerf, candidate,
		func(prev *reducers.PerformanceView) reducers.PerformanceView {
			return reducers.ReducePerformance(prev, p.Correct, p.SecondsSpent, now, candidate)
		})
	if err != nil {
		return nil, err
	}
	return []ViewReport{report}, nil
}

func handleRelationshipReviewed(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error) {
	p := decoded.(events.RelationshipReviewedPayload)
	rcID := e.Entity.ID

	schedulePath := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewRelationshipSchedule, rcID)
	scheduleReport, err := applyView(ctx, tx, schedulePath, events.ViewRelationshipSchedule, candidate,
		func(prev *reducers.RelationshipScheduleView) reducers.RelationshipScheduleView {
			return reducers.ReduceRelationshipSchedule(prev, p.Correct, p.HighConfidence, e.OccurredAt, now, candidate)
		})
	if err != nil {
		return nil, err
	}

	perfPath := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewRelationshipPerf, rcID)
	perfReport, err := applyView(ctx, tx, perfPath, events.ViewRelationshipPerf, candidate,
		func(prev *reducers.PerformanceView) reducers.PerformanceView {
			return reducers.ReduceRelationshipPerformance(prev, p.Correct, p.SecondsSpent, now, candidate)
		})
	if err != nil {
		return nil, err
	}

	return []ViewReport{scheduleReport, perfReport}, nil
}

func handleMisconceptionProbeResult(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error) {
	p := decoded.(events.MisconceptionProbeResultPayload)
	path := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewMisconceptionEdge, e.Entity.ID)

	report, err := applyView(ctx, tx, path, events.ViewMisconceptionEdge, candidate,
		func(prev *reducers.MisconceptionEdgeView) reducers.MisconceptionEdgeView {
			return reducers.ReduceMisconceptionEdge(prev, p.Confirmed, e.OccurredAt, now, candidate)
		})
	if err != nil {
		return nil, err
	}
	return []ViewReport{report}, nil
}

func handleSessionStarted(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error) {
	p := decoded.(events.SessionStartedPayload)
	path := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewSession, e.Entity.ID)

	report, err := applyView(ctx, tx, path, events.ViewSession, candidate,
		func(_ *reducers.SessionView) reducers.SessionView {
			return reducers.ReduceSessionStarted(e.OccurredAt, now, p.PlannedLoad, p.QueueSize, p.CramMode, candidate)
		})
	if err != nil {
		return nil, err
	}
	return []ViewReport{report}, nil
}

// handleSessionEnded applies the session view's cursor exactly as any
// other handler; the companion session_summary document is only
// written when the session view itself actually updates, so a
// redelivered session_ended never double-writes the summary either.
func handleSessionEnded(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error) {
	p := decoded.(events.SessionEndedPayload)
	sessionID := e.Entity.ID
	path := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewSession, sessionID)

	var summary reducers.SessionSummary
	summaryWritten := false

	report, err := applyView(ctx, tx, path, events.ViewSession, candidate,
		func(prev *reducers.SessionView) reducers.SessionView {
			base := reducers.SessionView{Status: "active", StartedAt: e.OccurredAt}
			if prev != nil {
				base = *prev
			}
			next, s := reducers.ReduceSessionEnded(base, e.OccurredAt, now, p.ActualLoad, p.RetentionDelta, p.FatigueHit, p.UserAcceptedIntervention, candidate)
			summary = s
			summary.SessionID = sessionID
			summaryWritten = true
			return next
		})
	if err != nil {
		return nil, err
	}

	reports := []ViewReport{report}
	if report.Updated && summaryWritten {
		summaryPath := events.SessionSummaryPathOf(e.UserID, e.LibraryID, sessionID)
		body, merr := json.Marshal(summary)
		if merr != nil {
			return nil, apperrors.Transient("handleSessionEnded", "encode", merr)
		}
		if werr := tx.Write(ctx, summaryPath, "session_summary", body); werr != nil {
			return nil, werr
		}
	}
	return reports, nil
}

func handleAccelerationApplied(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error) {
	p := decoded.(events.AccelerationAppliedPayload)
	cardID := e.Entity.ID
	path := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewCardSchedule, cardID)

	prior, err := requirePrior[reducers.ScheduleView](ctx, tx, path)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, apperrors.MissingPriorState("handleAccelerationApplied", cardID)
	}

	report, err := applyView(ctx, tx, path, events.ViewCardSchedule, candidate,
		func(prev *reducers.ScheduleView) reducers.ScheduleView {
			return reducers.ReduceAccelerationApplied(*prev, p.AccelerationFactor, now, candidate)
		})
	if err != nil {
		return nil, err
	}
	return []ViewReport{report}, nil
}

func handleLapseApplied(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error) {
	p := decoded.(events.LapseAppliedPayload)
	cardID := e.Entity.ID
	path := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewCardSchedule, cardID)

	prior, err := requirePrior[reducers.ScheduleView](ctx, tx, path)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, apperrors.MissingPriorState("handleLapseApplied", cardID)
	}

	report, err := applyView(ctx, tx, path, events.ViewCardSchedule, candidate,
		func(prev *reducers.ScheduleView) reducers.ScheduleView {
			return reducers.ReduceLapseApplied(*prev, p.PenaltyFactor, now, candidate)
		})
	if err != nil {
		return nil, err
	}
	return []ViewReport{report}, nil
}

func handleMasteryCertificationCompleted(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error) {
	p := decoded.(events.MasteryCertificationCompletedPayload)
	path := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewConceptCertification, e.Entity.ID)

	report, err := applyView(ctx, tx, path, events.ViewConceptCertification, candidate,
		func(prev *reducers.ConceptCertificationView) reducers.ConceptCertificationView {
			return reducers.ReduceConceptCertification(prev, p.CertificationResult, p.QuestionsAnswered, p.CorrectCount, p.ReasoningQuality, e.OccurredAt, now, candidate)
		})
	if err != nil {
		return nil, err
	}
	return []ViewReport{report}, nil
}

func handleCardAnnotationUpdated(ctx context.Context, tx store.Tx, e events.Event, decoded any, candidate cursor.Cursor, now time.Time) ([]ViewReport, error) {
	p := decoded.(events.CardAnnotationUpdatedPayload)
	path := events.ViewPathOf(e.UserID, e.LibraryID, events.ViewCardAnnotation, e.Entity.ID)

	report, err := applyView(ctx, tx, path, events.ViewCardAnnotation, candidate,
		func(prev *reducers.CardAnnotationView) reducers.CardAnnotationView {
			return reducers.ReduceCardAnnotation(prev, p.Action, p.Tags, p.Pinned, now, candidate)
		})
	if err != nil {
		return nil, err
	}
	return []ViewReport{report}, nil
}
