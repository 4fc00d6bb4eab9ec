package reducers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/eventcore/internal/cursor"
)

func TestReduceSessionStarted(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cram := true
	got := ReduceSessionStarted(now, now, 20, 15, &cram, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})

	assert.Equal(t, "active", got.Status)
	assert.Equal(t, 20, got.PlannedLoad)
	assert.Equal(t, 15, got.QueueSize)
	require.NotNil(t, got.CramMode)
	assert.True(t, *got.CramMode)
}

func TestReduceSessionEnded_TransitionsStatusAndLeavesSummaryTotalsZero(t *testing.T) {
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ended := started.Add(30 * time.Minute)
	prev := ReduceSessionStarted(started, started, 20, 15, nil, cursor.Cursor{ReceivedAt: started, EventID: "evt_1"})

	retention := 0.15
	next, summary := ReduceSessionEnded(prev, ended, ended, 18, &retention, nil, nil, cursor.Cursor{ReceivedAt: ended, EventID: "evt_2"})

	assert.Equal(t, "completed", next.Status)
	require.NotNil(t, next.EndedAt)
	assert.True(t, next.EndedAt.Equal(ended))
	assert.Equal(t, 18, next.ActualLoad)
	require.NotNil(t, summary.RetentionDelta)
	assert.Equal(t, 0.15, *summary.RetentionDelta)
	assert.Equal(t, 0, summary.Totals.CardsReviewed, "cross-event aggregation is out of scope here")
}
