package reducers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studybuddy/eventcore/internal/events"
)

func TestSyntheticGrade(t *testing.T) {
	tests := []struct {
		name           string
		correct        bool
		highConfidence bool
		want           string
	}{
		{"incorrect always again", false, true, events.GradeAgain},
		{"incorrect low confidence still again", false, false, events.GradeAgain},
		{"correct high confidence is easy", true, true, events.GradeEasy},
		{"correct low confidence is good", true, false, events.GradeGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SyntheticGrade(tt.correct, tt.highConfidence))
		})
	}
}
