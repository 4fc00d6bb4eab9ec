package reducers

import (
	"time"

	"github.com/studybuddy/eventcore/internal/cursor"
	"github.com/studybuddy/eventcore/internal/events"
)

// ReduceCardSchedule implements §4.2.1 exactly. prev is nil for a
// card's first review. now is the single clock sample for this call
// (updated_at and due_at both derive from it); occurredAt is the
// client-reported review time, used for last_reviewed_at.
func ReduceCardSchedule(prev *ScheduleView, grade string, occurredAt, now time.Time, applied cursor.Cursor) ScheduleView {
	stability := 1.0
	difficulty := 5.0
	state := 0
	if prev != nil {
		stability = prev.Stability
		difficulty = prev.Difficulty
		state = prev.State
	}

	stability = stability * gradeMultiplier[grade]
	if stability < 0.1 {
		stability = 0.1
	}

	if grade == events.GradeAgain {
		difficulty += 0.1
	} else {
		difficulty -= 0.05
	}
	difficulty = clamp(difficulty, 0.1, 10.0)

	intervalDays := floorToInt(stability)
	if intervalDays < 1 {
		intervalDays = 1
	}
	dueAt := now.AddDate(0, 0, intervalDays)

	if grade == events.GradeAgain {
		if state > 0 {
			state = maxInt(1, state-1)
		}
	} else {
		if state == 0 {
			state = 1
		}
		if state == 1 && stability > 7 {
			state = 2
		}
		if state == 2 && stability > 90 {
			state = 3
		}
	}

	reviewedAt := occurredAt
	return ScheduleView{
		State:          state,
		DueAt:          dueAt,
		Stability:      stability,
		Difficulty:     difficulty,
		IntervalDays:   intervalDays,
		LastReviewedAt: &reviewedAt,
		LastGrade:      grade,
		LastApplied:    &applied,
		UpdatedAt:      now,
	}
}

// ReduceAccelerationApplied implements §4.2.8's acceleration branch.
// It requires a prior schedule; callers must check for nil before
// calling (the projector surfaces MissingPriorStateError instead).
func ReduceAccelerationApplied(prev ScheduleView, accelerationFactor float64, now time.Time, applied cursor.Cursor) ScheduleView {
	stability := prev.Stability * accelerationFactor
	intervalDays := floorToInt(stability)
	if intervalDays < 1 {
		intervalDays = 1
	}
	next := prev
	next.Stability = stability
	next.IntervalDays = intervalDays
	next.DueAt = now.AddDate(0, 0, intervalDays)
	next.LastApplied = &applied
	next.UpdatedAt = now
	return next
}

// ReduceLapseApplied implements §4.2.8's lapse branch. Requires a
// prior schedule.
func ReduceLapseApplied(prev ScheduleView, penaltyFactor float64, now time.Time, applied cursor.Cursor) ScheduleView {
	stability := prev.Stability * penaltyFactor
	if stability < 0.1 {
		stability = 0.1
	}
	intervalDays := floorToInt(stability)
	if intervalDays < 1 {
		intervalDays = 1
	}

	state := prev.State
	if state == 2 {
		state = 3
	} else {
		state = maxInt(1, state-1)
	}

	next := prev
	next.Stability = stability
	next.IntervalDays = intervalDays
	next.DueAt = now.AddDate(0, 0, intervalDays)
	next.State = state
	next.Difficulty = clampUpper(prev.Difficulty+0.1, 10.0)
	next.LastGrade = events.GradeAgain
	// last_reviewed_at is preserved: this is an intervention, not a review.
	next.LastApplied = &applied
	next.UpdatedAt = now
	return next
}

func clampUpper(v, hi float64) float64 {
	if v > hi {
		return hi
	}
	return v
}
