// Package cursor implements the idempotency cursor (§4.3): the
// (received_at, event_id) comparison every projector uses to decide
// whether an incoming event has already been applied to a view.
package cursor

import "time"

// Cursor is the last_applied marker stored on every view (§3.3) and
// the sync cursor stored on the client device (§3.4). Both use the
// same lexicographic ordering rule.
type Cursor struct {
	ReceivedAt time.Time `json:"received_at"`
	EventID    string    `json:"event_id"`
}

// Less reports whether a sorts strictly before b in the
// (received_at, event_id) lexicographic order used throughout §4.3
// and §4.9.
func Less(a, b Cursor) bool {
	if a.ReceivedAt.Equal(b.ReceivedAt) {
		return a.EventID < b.EventID
	}
	return a.ReceivedAt.Before(b.ReceivedAt)
}

// ShouldApply implements §4.3 exactly: given the view's prior cursor
// (nil if the view does not exist yet) and the candidate event's
// cursor, reports whether the event should be reduced into the view.
//
//   - prev == nil            => apply
//   - candidate.r > prev.r   => apply
//   - candidate.r == prev.r && candidate.e != prev.e => apply
//   - candidate.e == prev.e  => skip (exact duplicate)
//   - candidate.r < prev.r   => skip (stale)
func ShouldApply(prev *Cursor, candidate Cursor) bool {
	if prev == nil {
		return true
	}
	if candidate.EventID == prev.EventID {
		return false
	}
	if candidate.ReceivedAt.After(prev.ReceivedAt) {
		return true
	}
	if candidate.ReceivedAt.Equal(prev.ReceivedAt) {
		return true
	}
	return false
}
