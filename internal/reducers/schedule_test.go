package reducers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/eventcore/internal/cursor"
	"github.com/studybuddy/eventcore/internal/events"
)

func TestReduceCardSchedule_FirstReview(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := ReduceCardSchedule(nil, events.GradeGood, now, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})

	require.Equal(t, 1, got.State)
	assert.Equal(t, 1.2, got.Stability)
	assert.Equal(t, 1, got.IntervalDays)
	assert.True(t, got.DueAt.Equal(now.AddDate(0, 0, 1)))
}

func TestReduceCardSchedule_AgainLowersStateButNeverBelowZero(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := &ScheduleView{State: 0, Stability: 1.0, Difficulty: 5.0}
	got := ReduceCardSchedule(prev, events.GradeAgain, now, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})

	assert.Equal(t, 0, got.State, "cannot go below zero")
	assert.Greater(t, got.Difficulty, 5.0, "difficulty should increase on again")
}

func TestReduceCardSchedule_StabilityNeverBelowFloor(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := &ScheduleView{State: 1, Stability: 0.15, Difficulty: 9.9}
	got := ReduceCardSchedule(prev, events.GradeAgain, now, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_1"})

	assert.GreaterOrEqual(t, got.Stability, 0.1)
	assert.LessOrEqual(t, got.Difficulty, 10.0)
}

func TestReduceCardSchedule_PromotesStateOnHighStability(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := &ScheduleView{State: 1, Stability: 6.0, Difficulty: 5.0}
	got := ReduceCardSchedule(prev, events.GradeEasy, now, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_2"})

	assert.Equal(t, 2, got.State, "should promote to 2 when stability > 7")
}

func TestReduceAccelerationApplied_ScalesStabilityAndKeepsState(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := ScheduleView{State: 2, Stability: 10.0, IntervalDays: 10, DueAt: now}
	got := ReduceAccelerationApplied(prev, 1.5, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_3"})

	assert.Equal(t, 15.0, got.Stability)
	assert.Equal(t, 2, got.State, "state unchanged by acceleration")
}

func TestReduceLapseApplied_BumpsStateThreeWhenAtTwo(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := ScheduleView{State: 2, Stability: 20.0, Difficulty: 4.0, LastReviewedAt: nil}
	got := ReduceLapseApplied(prev, 0.5, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_4"})

	assert.Equal(t, 3, got.State, "lapse from state 2")
	assert.Equal(t, events.GradeAgain, got.LastGrade)
}

func TestReduceLapseApplied_PreservesLastReviewedAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reviewed := now.AddDate(0, 0, -3)
	prev := ScheduleView{State: 1, Stability: 5.0, Difficulty: 4.0, LastReviewedAt: &reviewed}
	got := ReduceLapseApplied(prev, 0.5, now, cursor.Cursor{ReceivedAt: now, EventID: "evt_5"})

	require.NotNil(t, got.LastReviewedAt)
	assert.True(t, got.LastReviewedAt.Equal(reviewed), "a lapse intervention must not change last reviewed time")
}
