package events

import (
	"encoding/json"
	"time"

	"go.jetify.com/typeid"
)

// NewEventID mints a fresh event_id using a TypeID with the "evt"
// prefix, the way the teacher's typeid_helpers.go mints tag-prefixed
// TypeIDs for its own event rows. The client assigns event_id, never
// the server (§3.1).
func NewEventID() string {
	tid, err := typeid.WithPrefix("evt")
	if err != nil {
		// typeid.WithPrefix only fails on malformed prefixes; "evt" is
		// a constant and always valid, so this path is unreachable in
		// practice. Fall back to the "event" prefix rather than panic.
		tid, _ = typeid.WithPrefix("event")
	}
	return tid.String()
}

// builder is the shared envelope assembly used by every New*Event
// helper below (§6.3's "review_card, attempt_question, ..." helpers).
func builder(eventType, userID, libraryID, deviceID string, entity Entity, occurredAt time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		EventID:       NewEventID(),
		Type:          eventType,
		UserID:        userID,
		LibraryID:     libraryID,
		OccurredAt:    occurredAt,
		DeviceID:      deviceID,
		Entity:        entity,
		Payload:       data,
		SchemaVersion: "1",
	}, nil
}

func NewCardReviewed(userID, libraryID, deviceID, cardID string, occurredAt time.Time, p CardReviewedPayload) (Event, error) {
	return builder(TypeCardReviewed, userID, libraryID, deviceID, Entity{Kind: EntityCard, ID: cardID}, occurredAt, p)
}

func NewQuestionAttempted(userID, libraryID, deviceID, questionID string, occurredAt time.Time, p QuestionAttemptedPayload) (Event, error) {
	return builder(TypeQuestionAttempted, userID, libraryID, deviceID, Entity{Kind: EntityQuestion, ID: questionID}, occurredAt, p)
}

func NewRelationshipReviewed(userID, libraryID, deviceID, relationshipCardID string, occurredAt time.Time, p RelationshipReviewedPayload) (Event, error) {
	return builder(TypeRelationshipReviewed, userID, libraryID, deviceID, Entity{Kind: EntityRelationshipCard, ID: relationshipCardID}, occurredAt, p)
}

func NewMisconceptionProbeResult(userID, libraryID, deviceID, misconceptionEdgeID string, occurredAt time.Time, p MisconceptionProbeResultPayload) (Event, error) {
	return builder(TypeMisconceptionProbeResult, userID, libraryID, deviceID, Entity{Kind: EntityMisconceptionEdge, ID: misconceptionEdgeID}, occurredAt, p)
}

func NewSessionStarted(userID, libraryID, deviceID, sessionID string, occurredAt time.Time, p SessionStartedPayload) (Event, error) {
	return builder(TypeSessionStarted, userID, libraryID, deviceID, Entity{Kind: EntitySession, ID: sessionID}, occurredAt, p)
}

func NewSessionEnded(userID, libraryID, deviceID, sessionID string, occurredAt time.Time, p SessionEndedPayload) (Event, error) {
	return builder(TypeSessionEnded, userID, libraryID, deviceID, Entity{Kind: EntitySession, ID: sessionID}, occurredAt, p)
}

func NewAccelerationApplied(userID, libraryID, deviceID, cardID string, occurredAt time.Time, p AccelerationAppliedPayload) (Event, error) {
	return builder(TypeAccelerationApplied, userID, libraryID, deviceID, Entity{Kind: EntityCard, ID: cardID}, occurredAt, p)
}

func NewLapseApplied(userID, libraryID, deviceID, cardID string, occurredAt time.Time, p LapseAppliedPayload) (Event, error) {
	return builder(TypeLapseApplied, userID, libraryID, deviceID, Entity{Kind: EntityCard, ID: cardID}, occurredAt, p)
}

func NewMasteryCertificationStarted(userID, libraryID, deviceID, conceptID string, occurredAt time.Time, p MasteryCertificationStartedPayload) (Event, error) {
	return builder(TypeMasteryCertificationStarted, userID, libraryID, deviceID, Entity{Kind: EntityConcept, ID: conceptID}, occurredAt, p)
}

func NewMasteryCertificationCompleted(userID, libraryID, deviceID, conceptID string, occurredAt time.Time, p MasteryCertificationCompletedPayload) (Event, error) {
	return builder(TypeMasteryCertificationCompleted, userID, libraryID, deviceID, Entity{Kind: EntityConcept, ID: conceptID}, occurredAt, p)
}

func NewCardAnnotationUpdated(userID, libraryID, deviceID, cardID string, occurredAt time.Time, p CardAnnotationUpdatedPayload) (Event, error) {
	return builder(TypeCardAnnotationUpdated, userID, libraryID, deviceID, Entity{Kind: EntityCard, ID: cardID}, occurredAt, p)
}

func NewContentFlagged(userID, libraryID, deviceID string, entity Entity, occurredAt time.Time, p ContentFlaggedPayload) (Event, error) {
	return builder(TypeContentFlagged, userID, libraryID, deviceID, entity, occurredAt, p)
}

func NewInterventionAccepted(userID, libraryID, deviceID string, entity Entity, occurredAt time.Time, p InterventionAcceptedPayload) (Event, error) {
	return builder(TypeInterventionAccepted, userID, libraryID, deviceID, entity, occurredAt, p)
}

func NewInterventionRejected(userID, libraryID, deviceID string, entity Entity, occurredAt time.Time, p InterventionRejectedPayload) (Event, error) {
	return builder(TypeInterventionRejected, userID, libraryID, deviceID, entity, occurredAt, p)
}

func NewLibraryIDMapApplied(userID, libraryID, deviceID, libraryVersionID string, occurredAt time.Time, p LibraryIDMapAppliedPayload) (Event, error) {
	return builder(TypeLibraryIDMapApplied, userID, libraryID, deviceID, Entity{Kind: EntityLibraryVersion, ID: libraryVersionID}, occurredAt, p)
}
