package memory

import (
	"unicode/utf8"

	"github.com/amicoach/amicoach/store"
)

// Base importance per category. Breakthroughs and goals rank above plain
// triggers because they carry more durable therapeutic value.
var categoryBaseImportance = map[store.MemoryCategory]float64{
	store.MemoryCategoryTrigger:      0.70,
	store.MemoryCategoryCoping:       0.80,
	store.MemoryCategoryBreakthrough: 0.90,
	store.MemoryCategoryGoal:         0.85,
}

const (
	// defaultBaseImportance is the fallback for categories outside the
	// enumeration. Unreachable through the validated facade.
	defaultBaseImportance = 0.50

	// Length is a crude proxy for specificity: content/lengthBonusChars
	// extra importance, capped at lengthBonusMax.
	lengthBonusChars = 500
	lengthBonusMax   = 0.20
)

// Score computes the importance of a memory fragment. It is total over its
// input domain and the result always lies within [0, 1].
func Score(content string, category store.MemoryCategory) float64 {
	base, ok := categoryBaseImportance[category]
	if !ok {
		base = defaultBaseImportance
	}

	bonus := float64(utf8.RuneCountInString(content)) / lengthBonusChars
	if bonus > lengthBonusMax {
		bonus = lengthBonusMax
	}

	score := base + bonus
	if score > 1.0 {
		score = 1.0
	}
	return score
}
