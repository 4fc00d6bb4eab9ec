package reducers

import (
	"time"

	"github.com/studybuddy/eventcore/internal/cursor"
)

// ReduceSessionStarted implements the session_started half of §4.2.7.
func ReduceSessionStarted(occurredAt, now time.Time, plannedLoad, queueSize int, cramMode *bool, applied cursor.Cursor) SessionView {
	return SessionView{
		Status:      "active",
		StartedAt:   occurredAt,
		PlannedLoad: plannedLoad,
		QueueSize:   queueSize,
		CramMode:    cramMode,
		LastApplied: &applied,
		UpdatedAt:   now,
	}
}

// ReduceSessionEnded implements the session_ended half of §4.2.7. It
// returns both the updated session view and the companion
// session_summary document the router writes alongside it; the
// summary's totals are intentionally left zero (§9 open question —
// they require cross-event aggregation outside this reducer's scope).
func ReduceSessionEnded(prev SessionView, occurredAt, now time.Time, actualLoad int, retentionDelta *float64, fatigueHit, userAcceptedIntervention *bool, applied cursor.Cursor) (SessionView, SessionSummary) {
	next := prev
	next.Status = "completed"
	ended := occurredAt
	next.EndedAt = &ended
	next.ActualLoad = actualLoad
	next.RetentionDelta = retentionDelta
	next.FatigueHit = fatigueHit
	next.UserAcceptedIntervention = userAcceptedIntervention
	next.LastApplied = &applied
	next.UpdatedAt = now

	summary := SessionSummary{
		RetentionDelta: retentionDelta,
		WrittenAt:      now,
	}
	return next, summary
}
