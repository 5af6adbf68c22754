// Package memory implements the important-memory subsystem: scoring
// conversation fragments, persisting them, and serving ranked retrieval for
// context priming.
package memory

import (
	"context"
	"errors"

	"github.com/amicoach/amicoach/store"
)

// Retrieval defaults applied when the caller leaves the option unset.
const (
	DefaultRetrieveLimit = 5
	DefaultMinImportance = 0.6
)

var (
	// ErrMemoryNotFound is returned when the target memory id does not exist.
	ErrMemoryNotFound = errors.New("memory not found")
	// ErrInvalidImportance is returned when an importance outside [0, 1] is supplied.
	ErrInvalidImportance = errors.New("importance must be within [0, 1]")
	// ErrInvalidCategory is returned when a category outside the closed enumeration is supplied.
	ErrInvalidCategory = errors.New("invalid memory category")
	// ErrEmptyContent is returned when a memory would be stored with no content.
	ErrEmptyContent = errors.New("memory content must not be empty")
	// ErrUserIDRequired is returned when a retrieval query is missing the owning user.
	ErrUserIDRequired = errors.New("user id is required")
)

// RetrieveOptions configures a ranked retrieval query.
type RetrieveOptions struct {
	// UserID is required; memories are strictly scoped to their owner.
	UserID int32
	// ConversationID optionally narrows results to one conversation.
	ConversationID *int32
	// Category optionally narrows results to one category.
	Category *store.MemoryCategory
	// Limit caps the result count. Zero or negative means DefaultRetrieveLimit.
	Limit int
	// MinImportance is the inclusive score floor. Nil means DefaultMinImportance.
	MinImportance *float64
}

// UpdatePatch carries the fields of a user-driven memory correction.
// Importance set here bypasses the scorer and is bound-checked instead.
type UpdatePatch struct {
	Content    *string
	Category   *store.MemoryCategory
	Importance *float64
}

// Service is the interface the rest of the system uses to work with memories.
type Service interface {
	// Store scores content for the given category and persists a new memory.
	Store(ctx context.Context, userID, conversationID int32, content string, category store.MemoryCategory) (*store.Memory, error)
	// Retrieve returns at most opts.Limit memories with importance >=
	// opts.MinImportance, ordered by importance descending. Equal scores come
	// back in insertion order.
	Retrieve(ctx context.Context, opts RetrieveOptions) ([]*store.Memory, error)
	// Get returns the memory with the given id or ErrMemoryNotFound.
	Get(ctx context.Context, id int32) (*store.Memory, error)
	// Update applies a correction patch. Validation failures are reported
	// before any write happens.
	Update(ctx context.Context, id int32, patch UpdatePatch) (*store.Memory, error)
	// Delete removes the memory or returns ErrMemoryNotFound.
	Delete(ctx context.Context, id int32) error
}

// Candidate is one extracted memory fragment proposed for storage.
type Candidate struct {
	Category store.MemoryCategory
	Content  string
}

// Extractor decides which fragments of a conversation turn are worth
// remembering. Implementations can range from keyword matching to an LLM
// classifier; callers only depend on this contract.
type Extractor interface {
	Extract(userText, assistantText string) []Candidate
}
