package reducers

import (
	"time"

	"github.com/studybuddy/eventcore/internal/cursor"
	"github.com/studybuddy/eventcore/internal/events"
)

// SyntheticGrade implements §4.2.4's mapping from a
// relationship_reviewed outcome to the grade vocabulary §4.2.1 expects:
//
//	!correct            => again
//	correct && highConf  => easy
//	correct && !highConf => good
func SyntheticGrade(correct, highConfidence bool) string {
	if !correct {
		return events.GradeAgain
	}
	if highConfidence {
		return events.GradeEasy
	}
	return events.GradeGood
}

// ReduceRelationshipSchedule applies the card-schedule arithmetic
// (§4.2.1) to a relationship card, keyed by relationship_card_id, and
// carries the extra last_correct field §3.3 declares for this view.
func ReduceRelationshipSchedule(prev *RelationshipScheduleView, correct, highConfidence bool, occurredAt, now time.Time, applied cursor.Cursor) RelationshipScheduleView {
	grade := SyntheticGrade(correct, highConfidence)
	var base *ScheduleView
	if prev != nil {
		base = &prev.ScheduleView
	}
	next := ReduceCardSchedule(base, grade, occurredAt, now, applied)
	c := correct
	return RelationshipScheduleView{
		ScheduleView: next,
		LastCorrect:  &c,
	}
}

// ReduceRelationshipPerformance applies the same performance arithmetic
// as card/question performance, keyed by relationship_card_id.
func ReduceRelationshipPerformance(prev *PerformanceView, correct bool, secondsSpent float64, now time.Time, applied cursor.Cursor) PerformanceView {
	return ReducePerformance(prev, correct, secondsSpent, now, applied)
}
