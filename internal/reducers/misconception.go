package reducers

import (
	"time"

	"github.com/studybuddy/eventcore/internal/cursor"
)

// ReduceMisconceptionEdge implements §4.2.5. Direction and
// misconception_type are identifying data carried from wherever the
// edge was first created; this reducer only touches strength,
// evidence.probe_confirmations, status, and the observed-at pair, and
// preserves everything else verbatim (including evidence counters this
// reducer does not own — §4.2.5's "advanced by other event types").
func ReduceMisconceptionEdge(prev *MisconceptionEdgeView, confirmed bool, occurredAt, now time.Time, applied cursor.Cursor) MisconceptionEdgeView {
	strength := 0.5
	var evidence MisconceptionEvidence
	var firstObserved *time.Time
	var direction, misconceptionType string
	if prev != nil {
		strength = prev.Strength
		evidence = prev.Evidence
		firstObserved = prev.FirstObservedAt
		direction = prev.Direction
		misconceptionType = prev.MisconceptionType
	}

	if confirmed {
		strength += 0.1
		evidence.ProbeConfirmations++
	} else {
		strength -= 0.05
	}
	strength = clamp(strength, 0, 1)

	var status string
	switch {
	case strength < 0.2:
		status = "resolved"
	case strength > 0.8:
		status = "strong"
	default:
		status = "active"
	}

	if firstObserved == nil {
		t := occurredAt
		firstObserved = &t
	}
	lastObserved := occurredAt

	return MisconceptionEdgeView{
		Direction:         direction,
		MisconceptionType: misconceptionType,
		Strength:          strength,
		Status:            status,
		Evidence:          evidence,
		FirstObservedAt:   firstObserved,
		LastObservedAt:    &lastObserved,
		LastApplied:       &applied,
		UpdatedAt:         now,
	}
}
