package reducers

import (
	"time"

	"github.com/studybuddy/eventcore/internal/cursor"
)

// ReduceCardAnnotation implements §4.2.9. Tags are set semantics:
// equality ignores order, but insertion order is preserved for
// display where possible.
func ReduceCardAnnotation(prev *CardAnnotationView, action string, tags []string, pinned *bool, now time.Time, applied cursor.Cursor) CardAnnotationView {
	var existingTags []string
	var existingPinned bool
	if prev != nil {
		existingTags = append(existingTags, prev.Tags...)
		existingPinned = prev.Pinned
	}

	switch action {
	case "added":
		existingTags = unionTags(existingTags, tags)
		if pinned != nil {
			existingPinned = *pinned
		}
	case "removed":
		existingTags = subtractTags(existingTags, tags)
		if pinned != nil && !*pinned {
			existingPinned = false
		}
	case "updated":
		if tags != nil {
			existingTags = append([]string{}, tags...)
		}
		if pinned != nil {
			existingPinned = *pinned
		}
	}

	return CardAnnotationView{
		Tags:          existingTags,
		Pinned:        existingPinned,
		LastUpdatedAt: now,
		LastApplied:   &applied,
		UpdatedAt:     now,
	}
}

// unionTags merges b into a, preserving a's order and appending new
// values from b in the order they first appear there.
func unionTags(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	result := append([]string{}, a...)
	for _, t := range a {
		seen[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			result = append(result, t)
		}
	}
	return result
}

func subtractTags(a, b []string) []string {
	remove := make(map[string]struct{}, len(b))
	for _, t := range b {
		remove[t] = struct{}{}
	}
	var result []string
	for _, t := range a {
		if _, ok := remove[t]; !ok {
			result = append(result, t)
		}
	}
	return result
}
