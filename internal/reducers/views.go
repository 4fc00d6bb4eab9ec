// Package reducers implements one pure reducer per event type (§4.2).
// Every reducer has the shape reduce(prev View-or-nil, event) -> View:
// no I/O, no clock reads other than the single `now` passed in by the
// caller, deterministic and monotonic per §4.2 and §8's invariants.
package reducers

import (
	"time"

	"github.com/studybuddy/eventcore/internal/cursor"
)

// ScheduleView backs card_schedule_view and relationship_schedule_view
// (§3.3); the relationship view adds LastCorrect.
type ScheduleView struct {
	State          int        `json:"state"`
	DueAt          time.Time  `json:"due_at"`
	Stability      float64    `json:"stability"`
	Difficulty     float64    `json:"difficulty"`
	IntervalDays   int        `json:"interval_days"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	LastGrade      string     `json:"last_grade,omitempty"`
	LastApplied    *cursor.Cursor `json:"last_applied,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RelationshipScheduleView wraps ScheduleView with the extra field
// carried only by relationship schedules (§3.3).
type RelationshipScheduleView struct {
	ScheduleView
	LastCorrect *bool `json:"last_correct,omitempty"`
}

// PerformanceView backs card_performance_view, question_performance_view,
// and relationship_performance_view — identical shape in all three
// (§3.3).
type PerformanceView struct {
	TotalReviews   int     `json:"total_reviews"`
	CorrectReviews int     `json:"correct_reviews"`
	AccuracyRate   float64 `json:"accuracy_rate"`
	AvgSeconds     float64 `json:"avg_seconds"`
	Streak         int     `json:"streak"`
	MaxStreak      int     `json:"max_streak"`
	LastApplied    *cursor.Cursor `json:"last_applied,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// MisconceptionEvidence carries the counters the misconception reducer
// owns; other evidence counters (advanced by event types outside this
// core) are preserved verbatim by the reducer.
type MisconceptionEvidence struct {
	ProbeConfirmations int             `json:"probe_confirmations"`
	Extra              map[string]any  `json:"extra,omitempty"`
}

type MisconceptionEdgeView struct {
	Direction         string                `json:"direction,omitempty"`
	MisconceptionType string                `json:"misconception_type,omitempty"`
	Strength          float64               `json:"strength"`
	Status            string                `json:"status"`
	Evidence          MisconceptionEvidence `json:"evidence"`
	FirstObservedAt   *time.Time            `json:"first_observed_at,omitempty"`
	LastObservedAt    *time.Time            `json:"last_observed_at,omitempty"`
	LastApplied       *cursor.Cursor        `json:"last_applied,omitempty"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// CertificationRecord is one append-only entry in a concept's
// certification_history (§4.2.6).
type CertificationRecord struct {
	Result            string    `json:"result"`
	Date              time.Time `json:"date"`
	QuestionsAnswered int       `json:"questions_answered"`
	CorrectCount      int       `json:"correct_count"`
	ReasoningQuality  *string   `json:"reasoning_quality,omitempty"`
}

type ConceptCertificationView struct {
	CertificationResult   string                `json:"certification_result"`
	Accuracy              float64               `json:"accuracy"`
	CertificationHistory  []CertificationRecord `json:"certification_history"`
	LastApplied           *cursor.Cursor        `json:"last_applied,omitempty"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

type SessionView struct {
	Status                   string     `json:"status"`
	StartedAt                time.Time  `json:"started_at"`
	EndedAt                  *time.Time `json:"ended_at,omitempty"`
	PlannedLoad              int        `json:"planned_load"`
	QueueSize                int        `json:"queue_size"`
	CramMode                 *bool      `json:"cram_mode,omitempty"`
	ActualLoad               int        `json:"actual_load,omitempty"`
	RetentionDelta           *float64   `json:"retention_delta,omitempty"`
	FatigueHit               *bool      `json:"fatigue_hit,omitempty"`
	UserAcceptedIntervention *bool      `json:"user_accepted_intervention,omitempty"`
	LastApplied              *cursor.Cursor `json:"last_applied,omitempty"`
	UpdatedAt                time.Time      `json:"updated_at"`
}

// SessionSummaryTotals are declared per the view schema but, per
// spec.md §9's open question, are not populated by any reducer here:
// they need cross-event aggregation over a session's full event
// history, which is out-of-band work left to operators.
type SessionSummaryTotals struct {
	CardsReviewed      int     `json:"cards_reviewed"`
	QuestionsAnswered  int     `json:"questions_answered"`
	TotalTimeSeconds   float64 `json:"total_time_seconds"`
}

type SessionSummary struct {
	SessionID      string               `json:"session_id"`
	Totals         SessionSummaryTotals `json:"totals"`
	RetentionDelta *float64             `json:"retention_delta,omitempty"`
	WrittenAt      time.Time            `json:"written_at"`
}

type CardAnnotationView struct {
	Tags          []string       `json:"tags"`
	Pinned        bool           `json:"pinned"`
	LastUpdatedAt time.Time      `json:"last_updated_at"`
	LastApplied   *cursor.Cursor `json:"last_applied,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AppliedCursor lets the projector read a view's idempotency cursor
// without knowing its concrete type (§4.3).
func (v ScheduleView) AppliedCursor() *cursor.Cursor             { return v.LastApplied }
func (v RelationshipScheduleView) AppliedCursor() *cursor.Cursor { return v.LastApplied }
func (v PerformanceView) AppliedCursor() *cursor.Cursor          { return v.LastApplied }
func (v MisconceptionEdgeView) AppliedCursor() *cursor.Cursor    { return v.LastApplied }
func (v ConceptCertificationView) AppliedCursor() *cursor.Cursor { return v.LastApplied }
func (v SessionView) AppliedCursor() *cursor.Cursor              { return v.LastApplied }
func (v CardAnnotationView) AppliedCursor() *cursor.Cursor       { return v.LastApplied }
