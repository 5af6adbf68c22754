package store

import "github.com/pkg/errors"

// MemoryCategory classifies the therapeutic significance of a memory.
type MemoryCategory string

const (
	// MemoryCategoryTrigger marks a source of anxiety or distress.
	MemoryCategoryTrigger MemoryCategory = "TRIGGER"
	// MemoryCategoryCoping marks a coping strategy suggested to the user.
	MemoryCategoryCoping MemoryCategory = "COPING"
	// MemoryCategoryBreakthrough marks a realization or insight.
	MemoryCategoryBreakthrough MemoryCategory = "BREAKTHROUGH"
	// MemoryCategoryGoal marks a stated goal or intention.
	MemoryCategoryGoal MemoryCategory = "GOAL"
)

// Validate rejects category values outside the closed enumeration. Free-form
// strings are never passed through to the database.
func (c MemoryCategory) Validate() error {
	switch c {
	case MemoryCategoryTrigger, MemoryCategoryCoping, MemoryCategoryBreakthrough, MemoryCategoryGoal:
		return nil
	}
	return errors.Errorf("unknown memory category: %q", string(c))
}

// Memory represents an important fragment extracted from a conversation,
// scored for retrieval priority.
type Memory struct {
	ID             int32
	UserID         int32
	ConversationID int32
	Content        string
	Category       MemoryCategory
	Importance     float64 // always within [0, 1]
	CreatedTs      int64
}

// FindMemory specifies the conditions for finding memories.
// Results are ordered by importance descending with id ascending as the
// tie-break, so equal scores come back in insertion order.
type FindMemory struct {
	ID             *int32
	UserID         *int32
	ConversationID *int32
	Category       *MemoryCategory
	MinImportance  *float64
	Limit          *int
}

// UpdateMemory specifies the fields to update on a memory.
type UpdateMemory struct {
	ID         int32
	Content    *string
	Category   *MemoryCategory
	Importance *float64
}

// DeleteMemory specifies the conditions for deleting a memory.
type DeleteMemory struct {
	ID int32
}
