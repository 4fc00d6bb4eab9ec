package reducers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/eventcore/internal/cursor"
)

func TestReduceConceptCertification_AppendsHistory(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := ReduceConceptCertification(nil, "passed", 4, 4, nil, now, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})

	require.Len(t, first.CertificationHistory, 1)
	assert.Equal(t, 1.0, first.Accuracy)

	later := now.AddDate(0, 0, 1)
	second := ReduceConceptCertification(&first, "failed", 4, 1, nil, later, later, cursor.Cursor{ReceivedAt: later, EventID: "evt_2"})

	require.Len(t, second.CertificationHistory, 2, "append-only")
	assert.Equal(t, "failed", second.CertificationResult, "latest wins")
	assert.Equal(t, 0.25, second.Accuracy)
}

func TestReduceConceptCertification_ZeroQuestionsNeverDivides(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := ReduceConceptCertification(nil, "inconclusive", 0, 0, nil, now, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})

	assert.Equal(t, 0.0, got.Accuracy, "no questions were answered")
}
