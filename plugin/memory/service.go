package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/amicoach/amicoach/store"
)

// StoreService is the default Service backed by the record store. It holds no
// state of its own: every operation is one scorer call plus store calls, and
// store failures propagate to the caller unmodified.
type StoreService struct {
	store *store.Store
}

// NewService creates a memory service on top of the given store.
func NewService(s *store.Store) *StoreService {
	return &StoreService{store: s}
}

// Store scores content for the given category and persists a new memory.
func (s *StoreService) Store(ctx context.Context, userID, conversationID int32, content string, category store.MemoryCategory) (*store.Memory, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if err := category.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCategory, err)
	}

	return s.store.CreateMemory(ctx, &store.Memory{
		UserID:         userID,
		ConversationID: conversationID,
		Content:        content,
		Category:       category,
		Importance:     Score(content, category),
	})
}

// Retrieve returns the highest-importance memories for a user above the
// minimum-importance floor.
func (s *StoreService) Retrieve(ctx context.Context, opts RetrieveOptions) ([]*store.Memory, error) {
	if opts.UserID == 0 {
		return nil, ErrUserIDRequired
	}
	if opts.Category != nil {
		if err := opts.Category.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCategory, err)
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}
	minImportance := DefaultMinImportance
	if opts.MinImportance != nil {
		minImportance = *opts.MinImportance
	}

	return s.store.ListMemories(ctx, &store.FindMemory{
		UserID:         &opts.UserID,
		ConversationID: opts.ConversationID,
		Category:       opts.Category,
		MinImportance:  &minImportance,
		Limit:          &limit,
	})
}

// Get returns the memory with the given id.
func (s *StoreService) Get(ctx context.Context, id int32) (*store.Memory, error) {
	m, err := s.store.GetMemory(ctx, &store.FindMemory{ID: &id})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemoryNotFound
	}
	return m, nil
}

// Update applies a user-driven correction. All validation happens before any
// write: an invalid patch leaves the stored record untouched.
func (s *StoreService) Update(ctx context.Context, id int32, patch UpdatePatch) (*store.Memory, error) {
	if patch.Content == nil && patch.Category == nil && patch.Importance == nil {
		return nil, fmt.Errorf("empty update for memory %d", id)
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, ErrEmptyContent
	}
	if patch.Category != nil {
		if err := patch.Category.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCategory, err)
		}
	}
	if patch.Importance != nil && (*patch.Importance < 0.0 || *patch.Importance > 1.0) {
		return nil, ErrInvalidImportance
	}

	m, err := s.store.UpdateMemory(ctx, &store.UpdateMemory{
		ID:         id,
		Content:    patch.Content,
		Category:   patch.Category,
		Importance: patch.Importance,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemoryNotFound
		}
		return nil, err
	}
	return m, nil
}

// Delete removes the memory with the given id.
func (s *StoreService) Delete(ctx context.Context, id int32) error {
	m, err := s.store.GetMemory(ctx, &store.FindMemory{ID: &id})
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMemoryNotFound
	}
	return s.store.DeleteMemory(ctx, &store.DeleteMemory{ID: id})
}

// Ensure StoreService implements Service.
var _ Service = (*StoreService)(nil)
