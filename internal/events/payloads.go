package events

// Payload structs, one per Type (§3.2). These are the typed variants
// of the discriminated union; the schema registry in registry.go is
// the table that resolves Type to the struct below.

type CardReviewedPayload struct {
	Grade             string `json:"grade"`
	SecondsSpent      float64 `json:"seconds_spent"`
	RatingConfidence  *int    `json:"rating_confidence,omitempty"`
}

type QuestionAttemptedPayload struct {
	SelectedOptionID string  `json:"selected_option_id"`
	Correct          bool    `json:"correct"`
	SecondsSpent     float64 `json:"seconds_spent"`
}

type Direction struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type RelationshipReviewedPayload struct {
	ConceptAID     string    `json:"concept_a_id"`
	ConceptBID     string    `json:"concept_b_id"`
	Direction      Direction `json:"direction"`
	Correct        bool      `json:"correct"`
	HighConfidence bool      `json:"high_confidence"`
	SecondsSpent   float64   `json:"seconds_spent"`
}

type MisconceptionProbeResultPayload struct {
	Confirmed          bool    `json:"confirmed"`
	ExplanationQuality *string `json:"explanation_quality,omitempty"`
	SecondsSpent       float64 `json:"seconds_spent"`
}

type SessionStartedPayload struct {
	PlannedLoad int   `json:"planned_load"`
	QueueSize   int   `json:"queue_size"`
	CramMode    *bool `json:"cram_mode,omitempty"`
}

type SessionEndedPayload struct {
	ActualLoad               int      `json:"actual_load"`
	RetentionDelta           *float64 `json:"retention_delta,omitempty"`
	FatigueHit               *bool    `json:"fatigue_hit,omitempty"`
	UserAcceptedIntervention *bool    `json:"user_accepted_intervention,omitempty"`
}

type AccelerationAppliedPayload struct {
	AccelerationFactor float64 `json:"acceleration_factor"`
	Trigger            string  `json:"trigger"`
}

type LapseAppliedPayload struct {
	PenaltyFactor float64 `json:"penalty_factor"`
	Trigger       string  `json:"trigger"`
}

type MasteryCertificationStartedPayload struct {
	TargetType *string `json:"target_type,omitempty"`
}

type MasteryCertificationCompletedPayload struct {
	CertificationResult string  `json:"certification_result"`
	QuestionsAnswered   int     `json:"questions_answered"`
	CorrectCount        int     `json:"correct_count"`
	ReasoningQuality    *string `json:"reasoning_quality,omitempty"`
}

type CardAnnotationUpdatedPayload struct {
	Action string   `json:"action"`
	Tags   []string `json:"tags,omitempty"`
	Pinned *bool    `json:"pinned,omitempty"`
}

type ContentFlaggedPayload struct {
	Reason  string  `json:"reason"`
	Comment *string `json:"comment,omitempty"`
}

type InterventionAcceptedPayload struct {
	InterventionType string  `json:"intervention_type"`
	Factor           float64 `json:"factor"`
}

type InterventionRejectedPayload struct {
	InterventionType string `json:"intervention_type"`
	Reason           string `json:"reason"`
}

type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type LibraryIDMapAppliedPayload struct {
	FromVersion string `json:"from_version"`
	ToVersion   string `json:"to_version"`
	Renames     struct {
		Cards     []Rename `json:"cards,omitempty"`
		Questions []Rename `json:"questions,omitempty"`
	} `json:"renames"`
}

// Certification results, misconception explanation qualities, content
// flag reasons — small closed enumerations validated by registry.go.
var (
	validGrades               = set(GradeAgain, GradeHard, GradeGood, GradeEasy)
	validCertificationResults = set("full", "partial", "none")
	validExplanationQualities = set("good", "weak")
	validFlagReasons          = set("incorrect", "confusing", "outdated", "poorly_worded")
	validAnnotationActions    = set("added", "removed", "updated")
)

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}
