package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studybuddy/eventcore/internal/apperrors"
)

// forbiddenPayloadFields are mutation-indicating or aggregate field
// names that may never appear in a payload (§3.1). Checked
// structurally, not just by convention, so a client that accidentally
// carries scheduler state in a payload is rejected at validation
// rather than silently accepted.
var forbiddenPayloadFields = []string{
	"updated_at", "edited_at", "revision", "modified_at",
	"accuracy_rate", "streak", "max_streak", "stability", "difficulty",
	"due", "due_at", "state", "interval_days",
}

// payloadValidator decodes and validates a raw payload for one event
// type. It returns the decoded value (for callers that want it) or an
// error.
type payloadValidator func(entity Entity, raw json.RawMessage) (any, error)

// registry is the schema table keyed by Type string (§4.1, "Dynamic
// payload union → typed variant" in SPEC_FULL §9). Unknown Type values
// are absent from this table; ValidateEnvelope still succeeds for them
// (forward-compatible ingestion) but ValidatePayload reports them as
// unknown so the projector can no-op with a warning instead of
// crashing.
var registry = map[string]payloadValidator{
	TypeCardReviewed:                  validateCardReviewed,
	TypeQuestionAttempted:             validateQuestionAttempted,
	TypeRelationshipReviewed:          validateRelationshipReviewed,
	TypeMisconceptionProbeResult:      validateMisconceptionProbeResult,
	TypeSessionStarted:                validateSessionStarted,
	TypeSessionEnded:                  validateSessionEnded,
	TypeAccelerationApplied:           validateAccelerationApplied,
	TypeLapseApplied:                  validateLapseApplied,
	TypeMasteryCertificationStarted:   validateMasteryCertificationStarted,
	TypeMasteryCertificationCompleted: validateMasteryCertificationCompleted,
	TypeCardAnnotationUpdated:         validateCardAnnotationUpdated,
	TypeContentFlagged:                validateContentFlagged,
	TypeInterventionAccepted:          validateInterventionAccepted,
	TypeInterventionRejected:          validateInterventionRejected,
	TypeLibraryIDMapApplied:           validateLibraryIDMapApplied,
}

// expectedEntityKinds lists the entity.kind values valid for each Type
// (§3.2, §4.5 router table, and the multi-kind rows for content_flagged
// / intervention_*).
var expectedEntityKinds = map[string][]string{
	TypeCardReviewed:                  {EntityCard},
	TypeQuestionAttempted:             {EntityQuestion},
	TypeRelationshipReviewed:          {EntityRelationshipCard},
	TypeMisconceptionProbeResult:      {EntityMisconceptionEdge},
	TypeSessionStarted:                {EntitySession},
	TypeSessionEnded:                  {EntitySession},
	TypeAccelerationApplied:           {EntityCard},
	TypeLapseApplied:                  {EntityCard},
	TypeMasteryCertificationStarted:   {EntityConcept},
	TypeMasteryCertificationCompleted: {EntityConcept},
	TypeCardAnnotationUpdated:         {EntityCard},
	TypeContentFlagged:                {EntityCard, EntityQuestion, EntityRelationshipCard},
	TypeInterventionAccepted:          {EntityCard, EntityRelationshipCard, EntityConcept},
	TypeInterventionRejected:          {EntityCard, EntityRelationshipCard, EntityConcept},
	TypeLibraryIDMapApplied:           {EntityLibraryVersion},
}

// IsKnownType reports whether Type has a registered validator.
func IsKnownType(eventType string) bool {
	_, ok := registry[eventType]
	return ok
}

// ValidateEnvelope performs the envelope-structural validation pass
// (§4.1 step 1): required fields present, identifier prefixes correct,
// entity.kind well-formed. It does not look at the payload.
func ValidateEnvelope(e Event) error {
	const op = "ValidateEnvelope"

	if e.EventID == "" || !strings.HasPrefix(e.EventID, PrefixEvent) {
		return apperrors.InvalidIdentifier(op, "event_id", e.EventID, fmt.Errorf("must have prefix %q", PrefixEvent))
	}
	if e.UserID == "" || !strings.HasPrefix(e.UserID, PrefixUser) {
		return apperrors.InvalidIdentifier(op, "user_id", e.UserID, fmt.Errorf("must have prefix %q", PrefixUser))
	}
	if e.LibraryID == "" || !strings.HasPrefix(e.LibraryID, PrefixLibrary) {
		return apperrors.InvalidIdentifier(op, "library_id", e.LibraryID, fmt.Errorf("must have prefix %q", PrefixLibrary))
	}
	if e.Type == "" {
		return apperrors.Validation(op, "type", e.Type, fmt.Errorf("must not be empty"))
	}
	if e.OccurredAt.IsZero() {
		return apperrors.Validation(op, "occurred_at", "", fmt.Errorf("must be a valid timestamp"))
	}
	if e.ReceivedAt.IsZero() {
		return apperrors.Validation(op, "received_at", "", fmt.Errorf("must be a valid timestamp"))
	}
	if e.DeviceID == "" {
		return apperrors.Validation(op, "device_id", e.DeviceID, fmt.Errorf("must not be empty"))
	}
	if e.Entity.Kind == "" || e.Entity.ID == "" {
		return apperrors.Validation(op, "entity", "", fmt.Errorf("entity.kind and entity.id are required"))
	}
	if e.SchemaVersion == "" {
		return apperrors.Validation(op, "schema_version", "", fmt.Errorf("must not be empty"))
	}
	return nil
}

// ValidatePayload performs the payload-structural validation pass
// (§4.1 step 2). It enforces the forbidden-field list on every
// payload, whatever its type, then runs the per-type validator. A
// payload of an unknown type that passes the forbidden-field check is
// reported via known=false (not an error) so the ingestion boundary
// can still accept it for forward compatibility.
func ValidatePayload(e Event) (decoded any, known bool, err error) {
	const op = "ValidatePayload"

	if err := checkForbiddenFields(e.Payload); err != nil {
		return nil, true, apperrors.Validation(op, "payload", string(e.Payload), err)
	}

	validator, ok := registry[e.Type]
	if !ok {
		return nil, false, nil
	}

	expected := expectedEntityKinds[e.Type]
	if !containsString(expected, e.Entity.Kind) {
		return nil, true, apperrors.EntityKindMismatch(op, e.Type, e.Entity.Kind, expected)
	}

	decoded, err = validator(e.Entity, e.Payload)
	if err != nil {
		return nil, true, err
	}
	return decoded, true, nil
}

func checkForbiddenFields(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return fmt.Errorf("payload must be a JSON object: %w", err)
	}
	for _, forbidden := range forbiddenPayloadFields {
		if _, present := asMap[forbidden]; present {
			return fmt.Errorf("payload must not contain forbidden field %q", forbidden)
		}
	}
	return nil
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func requireEnum(op, field, value string, allowed map[string]struct{}) error {
	if _, ok := allowed[value]; !ok {
		return apperrors.Validation(op, field, value, fmt.Errorf("not a recognized value"))
	}
	return nil
}

func requireNonNegative(op, field string, value float64) error {
	if value < 0 {
		return apperrors.Validation(op, field, fmt.Sprintf("%v", value), fmt.Errorf("must be >= 0"))
	}
	return nil
}

func unmarshal[T any](op string, raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, apperrors.Validation(op, "payload", string(raw), err)
	}
	return v, nil
}

func validateCardReviewed(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateCardReviewed"
	p, err := unmarshal[CardReviewedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireEnum(op, "grade", p.Grade, validGrades); err != nil {
		return nil, err
	}
	if err := requireNonNegative(op, "seconds_spent", p.SecondsSpent); err != nil {
		return nil, err
	}
	if p.RatingConfidence != nil && (*p.RatingConfidence < 0 || *p.RatingConfidence > 3) {
		return nil, apperrors.Validation(op, "rating_confidence", fmt.Sprintf("%d", *p.RatingConfidence), fmt.Errorf("must be in 0..3"))
	}
	return p, nil
}

func validateQuestionAttempted(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateQuestionAttempted"
	p, err := unmarshal[QuestionAttemptedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(p.SelectedOptionID, PrefixOption) {
		return nil, apperrors.InvalidIdentifier(op, "selected_option_id", p.SelectedOptionID, fmt.Errorf("must have prefix %q", PrefixOption))
	}
	if err := requireNonNegative(op, "seconds_spent", p.SecondsSpent); err != nil {
		return nil, err
	}
	return p, nil
}

func validateRelationshipReviewed(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateRelationshipReviewed"
	p, err := unmarshal[RelationshipReviewedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if p.ConceptAID == "" || p.ConceptBID == "" || p.ConceptAID == p.ConceptBID {
		return nil, apperrors.Validation(op, "concept_a_id/concept_b_id", p.ConceptAID+"/"+p.ConceptBID, fmt.Errorf("concepts must be present and distinct"))
	}
	if p.Direction.From == "" || p.Direction.To == "" || p.Direction.From == p.Direction.To {
		return nil, apperrors.Validation(op, "direction", fmt.Sprintf("%+v", p.Direction), fmt.Errorf("endpoints must be present and distinct"))
	}
	if err := requireNonNegative(op, "seconds_spent", p.SecondsSpent); err != nil {
		return nil, err
	}
	return p, nil
}

func validateMisconceptionProbeResult(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateMisconceptionProbeResult"
	p, err := unmarshal[MisconceptionProbeResultPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if p.ExplanationQuality != nil {
		if err := requireEnum(op, "explanation_quality", *p.ExplanationQuality, validExplanationQualities); err != nil {
			return nil, err
		}
	}
	if err := requireNonNegative(op, "seconds_spent", p.SecondsSpent); err != nil {
		return nil, err
	}
	return p, nil
}

func validateSessionStarted(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateSessionStarted"
	p, err := unmarshal[SessionStartedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if p.PlannedLoad < 0 || p.QueueSize < 0 {
		return nil, apperrors.Validation(op, "planned_load/queue_size", fmt.Sprintf("%d/%d", p.PlannedLoad, p.QueueSize), fmt.Errorf("must be >= 0"))
	}
	return p, nil
}

func validateSessionEnded(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateSessionEnded"
	p, err := unmarshal[SessionEndedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if p.ActualLoad < 0 {
		return nil, apperrors.Validation(op, "actual_load", fmt.Sprintf("%d", p.ActualLoad), fmt.Errorf("must be >= 0"))
	}
	return p, nil
}

func validateAccelerationApplied(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateAccelerationApplied"
	p, err := unmarshal[AccelerationAppliedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if p.AccelerationFactor < 1.0 {
		return nil, apperrors.Validation(op, "acceleration_factor", fmt.Sprintf("%v", p.AccelerationFactor), fmt.Errorf("must be >= 1.0"))
	}
	if p.Trigger == "" {
		return nil, apperrors.Validation(op, "trigger", p.Trigger, fmt.Errorf("must not be empty"))
	}
	return p, nil
}

func validateLapseApplied(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateLapseApplied"
	p, err := unmarshal[LapseAppliedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if p.PenaltyFactor < 0 || p.PenaltyFactor > 1 {
		return nil, apperrors.Validation(op, "penalty_factor", fmt.Sprintf("%v", p.PenaltyFactor), fmt.Errorf("must be in [0,1]"))
	}
	if p.Trigger == "" {
		return nil, apperrors.Validation(op, "trigger", p.Trigger, fmt.Errorf("must not be empty"))
	}
	return p, nil
}

func validateMasteryCertificationStarted(_ Entity, raw json.RawMessage) (any, error) {
	return unmarshal[MasteryCertificationStartedPayload]("validateMasteryCertificationStarted", raw)
}

func validateMasteryCertificationCompleted(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateMasteryCertificationCompleted"
	p, err := unmarshal[MasteryCertificationCompletedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireEnum(op, "certification_result", p.CertificationResult, validCertificationResults); err != nil {
		return nil, err
	}
	if p.QuestionsAnswered < 0 || p.CorrectCount < 0 || p.CorrectCount > p.QuestionsAnswered {
		return nil, apperrors.Validation(op, "correct_count", fmt.Sprintf("%d/%d", p.CorrectCount, p.QuestionsAnswered), fmt.Errorf("correct_count must be in [0, questions_answered]"))
	}
	return p, nil
}

func validateCardAnnotationUpdated(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateCardAnnotationUpdated"
	p, err := unmarshal[CardAnnotationUpdatedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireEnum(op, "action", p.Action, validAnnotationActions); err != nil {
		return nil, err
	}
	return p, nil
}

func validateContentFlagged(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateContentFlagged"
	p, err := unmarshal[ContentFlaggedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireEnum(op, "reason", p.Reason, validFlagReasons); err != nil {
		return nil, err
	}
	return p, nil
}

func validateInterventionAccepted(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateInterventionAccepted"
	p, err := unmarshal[InterventionAcceptedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if p.InterventionType == "" {
		return nil, apperrors.Validation(op, "intervention_type", p.InterventionType, fmt.Errorf("must not be empty"))
	}
	return p, nil
}

func validateInterventionRejected(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateInterventionRejected"
	p, err := unmarshal[InterventionRejectedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if p.InterventionType == "" || p.Reason == "" {
		return nil, apperrors.Validation(op, "intervention_type/reason", p.InterventionType+"/"+p.Reason, fmt.Errorf("must not be empty"))
	}
	return p, nil
}

func validateLibraryIDMapApplied(_ Entity, raw json.RawMessage) (any, error) {
	const op = "validateLibraryIDMapApplied"
	p, err := unmarshal[LibraryIDMapAppliedPayload](op, raw)
	if err != nil {
		return nil, err
	}
	if p.FromVersion == "" || p.ToVersion == "" {
		return nil, apperrors.Validation(op, "from_version/to_version", p.FromVersion+"/"+p.ToVersion, fmt.Errorf("must not be empty"))
	}
	return p, nil
}
