package reducers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/studybuddy/eventcore/internal/cursor"
)

func boolPtr(b bool) *bool { return &b }

func TestReduceCardAnnotation_AddedUnionsTagsInInsertionOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := ReduceCardAnnotation(nil, "added", []string{"hard", "review"}, nil, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})
	later := now.Add(time.Hour)
	second := ReduceCardAnnotation(&first, "added", []string{"review", "favorite"}, boolPtr(true), later, cursor.Cursor{ReceivedAt: later, EventID: "evt_2"})

	assert.Equal(t, []string{"hard", "review", "favorite"}, second.Tags)
	assert.True(t, second.Pinned)
}

func TestReduceCardAnnotation_RemovedSubtractsOnly(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := &CardAnnotationView{Tags: []string{"hard", "review", "favorite"}, Pinned: true}
	got := ReduceCardAnnotation(prev, "removed", []string{"review"}, nil, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})

	assert.Equal(t, []string{"hard", "favorite"}, got.Tags)
	assert.True(t, got.Pinned, "a removal that did not target pinned explicitly must not clear it")
}

func TestReduceCardAnnotation_RemovedClearsPinnedOnlyWhenExplicit(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := &CardAnnotationView{Tags: []string{"hard"}, Pinned: true}
	got := ReduceCardAnnotation(prev, "removed", nil, boolPtr(false), now, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})

	assert.False(t, got.Pinned, "cleared by explicit pinned=false")
}

func TestReduceCardAnnotation_UpdatedReplacesTagsWholesale(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := &CardAnnotationView{Tags: []string{"hard", "review"}, Pinned: false}
	got := ReduceCardAnnotation(prev, "updated", []string{"easy"}, nil, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})

	assert.Equal(t, []string{"easy"}, got.Tags, "wholesale replace")
}
