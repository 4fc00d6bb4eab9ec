package reducers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/eventcore/internal/cursor"
)

func TestReduceMisconceptionEdge_FirstObservationDefaultsToMid(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := ReduceMisconceptionEdge(nil, true, now, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})

	assert.Equal(t, "active", got.Status, "active at strength 0.6")
	require.NotNil(t, got.FirstObservedAt)
	assert.True(t, got.FirstObservedAt.Equal(now))
}

func TestReduceMisconceptionEdge_RepeatedDisconfirmationResolves(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var prev *MisconceptionEdgeView
	for i := 0; i < 10; i++ {
		next := ReduceMisconceptionEdge(prev, false, now, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_x"})
		prev = &next
	}

	assert.Equal(t, "resolved", prev.Status, "resolved after repeated disconfirmation")
	assert.GreaterOrEqual(t, prev.Strength, 0.0)
}

func TestReduceMisconceptionEdge_RepeatedConfirmationGoesStrong(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var prev *MisconceptionEdgeView
	for i := 0; i < 10; i++ {
		next := ReduceMisconceptionEdge(prev, true, now, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_y"})
		prev = &next
	}

	assert.Equal(t, "strong", prev.Status, "strong after repeated confirmation")
	assert.LessOrEqual(t, prev.Strength, 1.0)
	assert.Equal(t, 10, prev.Evidence.ProbeConfirmations)
}
