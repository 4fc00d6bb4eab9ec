package reducers

import (
	"time"

	"github.com/studybuddy/eventcore/internal/cursor"
)

// ReduceConceptCertification implements §4.2.6. certification_history
// is append-only and may grow unbounded (§9's first open question);
// truncation, if any, is a caller concern outside this reducer.
func ReduceConceptCertification(prev *ConceptCertificationView, result string, questionsAnswered, correctCount int, reasoningQuality *string, occurredAt, now time.Time, applied cursor.Cursor) ConceptCertificationView {
	var history []CertificationRecord
	if prev != nil {
		history = append(history, prev.CertificationHistory...)
	}

	accuracy := 0.0
	if questionsAnswered > 0 {
		accuracy = float64(correctCount) / float64(questionsAnswered)
	}
	accuracy = clamp(accuracy, 0, 1)

	history = append(history, CertificationRecord{
		Result:            result,
		Date:              occurredAt,
		QuestionsAnswered: questionsAnswered,
		CorrectCount:      correctCount,
		ReasoningQuality:  reasoningQuality,
	})

	return ConceptCertificationView{
		CertificationResult:  result,
		Accuracy:             accuracy,
		CertificationHistory: history,
		LastApplied:          &applied,
		UpdatedAt:            now,
	}
}
