package reducers

import (
	"time"

	"github.com/studybuddy/eventcore/internal/cursor"
)

// ReducePerformance implements §4.2.2 (and, by the same arithmetic,
// §4.2.3's question performance and §4.2.4's relationship
// performance): an EMA of seconds-per-item with alpha=0.2, a running
// accuracy rate, and a streak/max_streak pair.
func ReducePerformance(prev *PerformanceView, correct bool, secondsSpent float64, now time.Time, applied cursor.Cursor) PerformanceView {
	var totalReviews, correctReviews, streak, maxStreak int
	var avgSeconds float64
	if prev != nil {
		totalReviews = prev.TotalReviews
		correctReviews = prev.CorrectReviews
		streak = prev.Streak
		maxStreak = prev.MaxStreak
		avgSeconds = prev.AvgSeconds
	}

	totalReviews++
	if correct {
		correctReviews++
	}

	accuracy := clamp(float64(correctReviews)/float64(totalReviews), 0, 1)
	avgSeconds = clamp(avgSeconds*0.8+secondsSpent*0.2, 0, maxFloat)

	if correct {
		streak++
	} else {
		streak = 0
	}
	maxStreak = maxInt(maxStreak, streak)

	return PerformanceView{
		TotalReviews:   totalReviews,
		CorrectReviews: correctReviews,
		AccuracyRate:   accuracy,
		AvgSeconds:     avgSeconds,
		Streak:         streak,
		MaxStreak:      maxStreak,
		LastApplied:    &applied,
		UpdatedAt:      now,
	}
}

const maxFloat = 1e308
