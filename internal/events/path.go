package events

import "fmt"

// PathOf returns the canonical storage path for e (§3.1). It depends
// only on (user_id, library_id, event_id). It runs ValidateEnvelope
// itself and returns that error (e.g. InvalidIdentifierError) instead
// of a malformed path.
func PathOf(e Event) (string, error) {
	if err := ValidateEnvelope(e); err != nil {
		return "", err
	}
	return fmt.Sprintf("users/%s/libraries/%s/events/%s", e.UserID, e.LibraryID, e.EventID), nil
}

// ViewCollection names the per-type view path segment (§3.3, §6.1).
type ViewCollection string

const (
	ViewCardSchedule         ViewCollection = "card_schedule"
	ViewCardPerf             ViewCollection = "card_perf"
	ViewQuestionPerf         ViewCollection = "question_perf"
	ViewRelationshipSchedule ViewCollection = "relationship_schedule"
	ViewRelationshipPerf     ViewCollection = "relationship_perf"
	ViewMisconceptionEdge    ViewCollection = "misconception_edge"
	ViewConceptCertification ViewCollection = "concept_certification"
	ViewSession              ViewCollection = "session"
	ViewCardAnnotation       ViewCollection = "card_annotation"
)

// ViewPathOf returns the canonical storage path for a view document.
func ViewPathOf(userID, libraryID string, collection ViewCollection, entityID string) string {
	return fmt.Sprintf("users/%s/libraries/%s/views/%s/%s", userID, libraryID, collection, entityID)
}

// SessionSummaryPathOf returns the canonical path for a session's
// summary document (§6.1).
func SessionSummaryPathOf(userID, libraryID, sessionID string) string {
	return fmt.Sprintf("users/%s/libraries/%s/session_summaries/%s", userID, libraryID, sessionID)
}
