package memory

import (
	"strings"

	"github.com/amicoach/amicoach/store"
)

// keywordRule binds a category to the text of the turn it scans and the
// keywords that trigger it.
type keywordRule struct {
	category      store.MemoryCategory
	fromAssistant bool
	keywords      []string
}

// Rules are applied independently: one turn can produce memories in several
// categories. Triggers, breakthroughs and goals come from the user's own
// words; coping strategies are things the coach suggested.
var keywordRules = []keywordRule{
	{category: store.MemoryCategoryTrigger, keywords: []string{"anxious", "afraid", "worried", "panic"}},
	{category: store.MemoryCategoryCoping, fromAssistant: true, keywords: []string{"try", "practice", "technique", "strategy"}},
	{category: store.MemoryCategoryBreakthrough, keywords: []string{"realized", "understand", "noticed", "insight"}},
	{category: store.MemoryCategoryGoal, keywords: []string{"want to", "goal", "hope to", "would like to"}},
}

// KeywordExtractor is the default Extractor: case-insensitive substring
// matching against fixed keyword lists. Deliberately crude; it over-triggers
// on casual phrasing and misses paraphrases, which is accepted behavior. A
// smarter classifier can replace it behind the same interface.
type KeywordExtractor struct{}

// NewKeywordExtractor creates the default keyword extractor.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

// Extract scans one conversation turn and returns at most one candidate per
// matched category. The candidate content is the first sentence of the source
// text containing a keyword, trimmed of surrounding whitespace.
func (e *KeywordExtractor) Extract(userText, assistantText string) []Candidate {
	candidates := []Candidate{}
	for _, rule := range keywordRules {
		text := userText
		if rule.fromAssistant {
			text = assistantText
		}
		if text == "" {
			continue
		}
		if !containsAny(strings.ToLower(text), rule.keywords) {
			continue
		}
		// A whole-text match without a sentence-level match (keyword spanning
		// a sentence boundary) produces nothing for this category.
		sentence, ok := firstMatchingSentence(text, rule.keywords)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Category: rule.category, Content: sentence})
	}
	return candidates
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// firstMatchingSentence splits text on sentence boundaries and returns the
// first trimmed sentence containing one of the keywords.
func firstMatchingSentence(text string, keywords []string) (string, bool) {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if containsAny(strings.ToLower(sentence), keywords) {
			return sentence, true
		}
	}
	return "", false
}

// Ensure KeywordExtractor implements Extractor.
var _ Extractor = (*KeywordExtractor)(nil)
