package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amicoach/amicoach/store"
)

func TestExtractTriggerFromUserText(t *testing.T) {
	extractor := NewKeywordExtractor()

	candidates := extractor.Extract("I feel so anxious about tomorrow. It's going to be fine though.", "")
	require.Len(t, candidates, 1)
	assert.Equal(t, store.MemoryCategoryTrigger, candidates[0].Category)
	assert.Equal(t, "I feel so anxious about tomorrow", candidates[0].Content)
}

func TestExtractNoMatch(t *testing.T) {
	extractor := NewKeywordExtractor()

	candidates := extractor.Extract("The weather was nice today. We went for a walk.", "That sounds lovely.")
	assert.Empty(t, candidates)
}

func TestExtractCopingFromAssistantText(t *testing.T) {
	extractor := NewKeywordExtractor()

	candidates := extractor.Extract(
		"I had a rough day.",
		"I hear you. You could try a short breathing exercise before bed.",
	)
	require.Len(t, candidates, 1)
	assert.Equal(t, store.MemoryCategoryCoping, candidates[0].Category)
	assert.Equal(t, "You could try a short breathing exercise before bed", candidates[0].Content)
}

func TestExtractCopingIgnoresUserText(t *testing.T) {
	extractor := NewKeywordExtractor()

	// "try" in the user message must not produce a COPING candidate.
	candidates := extractor.Extract("I will try harder next week.", "That sounds like a plan.")
	assert.Empty(t, candidates)
}

func TestExtractMultipleCategories(t *testing.T) {
	extractor := NewKeywordExtractor()

	candidates := extractor.Extract(
		"I get so worried before meetings. I realized it started after my old job. My goal is to speak up once per meeting.",
		"You could practice a grounding technique beforehand.",
	)
	require.Len(t, candidates, 4)

	byCategory := map[store.MemoryCategory]string{}
	for _, c := range candidates {
		byCategory[c.Category] = c.Content
	}
	assert.Equal(t, "I get so worried before meetings", byCategory[store.MemoryCategoryTrigger])
	assert.Equal(t, "You could practice a grounding technique beforehand", byCategory[store.MemoryCategoryCoping])
	assert.Equal(t, "I realized it started after my old job", byCategory[store.MemoryCategoryBreakthrough])
	assert.Equal(t, "My goal is to speak up once per meeting", byCategory[store.MemoryCategoryGoal])
}

func TestExtractCaseInsensitive(t *testing.T) {
	extractor := NewKeywordExtractor()

	candidates := extractor.Extract("PANIC hit me on the train this morning.", "")
	require.Len(t, candidates, 1)
	assert.Equal(t, store.MemoryCategoryTrigger, candidates[0].Category)
	assert.Equal(t, "PANIC hit me on the train this morning", candidates[0].Content)
}

func TestExtractFirstMatchingSentenceWins(t *testing.T) {
	extractor := NewKeywordExtractor()

	candidates := extractor.Extract("I was anxious on Monday. I was anxious again on Friday.", "")
	require.Len(t, candidates, 1)
	assert.Equal(t, "I was anxious on Monday", candidates[0].Content)
}
