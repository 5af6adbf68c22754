package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amicoach/amicoach/store"
)

var allCategories = []store.MemoryCategory{
	store.MemoryCategoryTrigger,
	store.MemoryCategoryCoping,
	store.MemoryCategoryBreakthrough,
	store.MemoryCategoryGoal,
}

func TestScoreBounds(t *testing.T) {
	contents := []string{
		"",
		"short",
		strings.Repeat("a", 250),
		strings.Repeat("a", 500),
		strings.Repeat("a", 10000),
	}
	for _, category := range allCategories {
		for _, content := range contents {
			score := Score(content, category)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestScoreBaseOrdering(t *testing.T) {
	// Same content, so the length bonus is identical across calls and only
	// the base importance separates the categories.
	content := "a stable fragment"
	trigger := Score(content, store.MemoryCategoryTrigger)
	goal := Score(content, store.MemoryCategoryGoal)
	coping := Score(content, store.MemoryCategoryCoping)
	breakthrough := Score(content, store.MemoryCategoryBreakthrough)

	assert.Less(t, trigger, goal)
	assert.Less(t, goal, coping)
	assert.Less(t, coping, breakthrough)
}

func TestScoreBaseValues(t *testing.T) {
	// Empty content has no length bonus, exposing the raw base.
	assert.InDelta(t, 0.70, Score("", store.MemoryCategoryTrigger), 1e-9)
	assert.InDelta(t, 0.80, Score("", store.MemoryCategoryCoping), 1e-9)
	assert.InDelta(t, 0.90, Score("", store.MemoryCategoryBreakthrough), 1e-9)
	assert.InDelta(t, 0.85, Score("", store.MemoryCategoryGoal), 1e-9)
}

func TestScoreUnknownCategoryFallback(t *testing.T) {
	assert.InDelta(t, 0.50, Score("", store.MemoryCategory("UNKNOWN")), 1e-9)
}

func TestScoreLengthMonotonicityBelowCap(t *testing.T) {
	// The bonus is length/500 capped at 0.20, so it grows strictly until
	// 100 characters and is flat after that.
	for _, category := range allCategories {
		prev := Score("", category)
		for _, n := range []int{10, 25, 50, 75, 99} {
			score := Score(strings.Repeat("a", n), category)
			assert.Greater(t, score, prev, "category %s at length %d", category, n)
			prev = score
		}
	}
}

func TestScoreCapSaturation(t *testing.T) {
	long := strings.Repeat("a", 10000)

	assert.InDelta(t, 0.90, Score(long, store.MemoryCategoryTrigger), 1e-9)
	assert.InDelta(t, 1.0, Score(long, store.MemoryCategoryCoping), 1e-9)
	assert.InDelta(t, 1.0, Score(long, store.MemoryCategoryGoal), 1e-9)

	// BREAKTHROUGH hits the hard 1.0 cap: 0.90 + 0.20 clamps.
	assert.Equal(t, 1.0, Score(long, store.MemoryCategoryBreakthrough))

	// 100 characters already saturates the bonus; longer content adds nothing.
	saturated := strings.Repeat("a", 100)
	assert.InDelta(t, Score(long, store.MemoryCategoryTrigger), Score(saturated, store.MemoryCategoryTrigger), 1e-9)
}
