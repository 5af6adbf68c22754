package store

import (
	"context"

	"github.com/amicoach/amicoach/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Migrate brings the backing schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	return s.driver.CreateUser(ctx, create)
}

func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

// GetUser returns the first user matching find, or nil when absent.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	list, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the first conversation matching find, or nil when absent.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	return s.driver.UpdateConversation(ctx, update)
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

func (s *Store) CreateMemory(ctx context.Context, create *Memory) (*Memory, error) {
	return s.driver.CreateMemory(ctx, create)
}

func (s *Store) ListMemories(ctx context.Context, find *FindMemory) ([]*Memory, error) {
	return s.driver.ListMemories(ctx, find)
}

// GetMemory returns the first memory matching find, or nil when absent.
func (s *Store) GetMemory(ctx context.Context, find *FindMemory) (*Memory, error) {
	list, err := s.driver.ListMemories(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateMemory(ctx context.Context, update *UpdateMemory) (*Memory, error) {
	return s.driver.UpdateMemory(ctx, update)
}

func (s *Store) DeleteMemory(ctx context.Context, delete *DeleteMemory) error {
	return s.driver.DeleteMemory(ctx, delete)
}

func (s *Store) CreateHomework(ctx context.Context, create *Homework) (*Homework, error) {
	return s.driver.CreateHomework(ctx, create)
}

func (s *Store) ListHomework(ctx context.Context, find *FindHomework) ([]*Homework, error) {
	return s.driver.ListHomework(ctx, find)
}

// GetHomework returns the first homework matching find, or nil when absent.
func (s *Store) GetHomework(ctx context.Context, find *FindHomework) (*Homework, error) {
	list, err := s.driver.ListHomework(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateHomework(ctx context.Context, update *UpdateHomework) (*Homework, error) {
	return s.driver.UpdateHomework(ctx, update)
}
