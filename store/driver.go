package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate brings the schema up to date. It is idempotent.
	Migrate(ctx context.Context) error

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error)
	DeleteConversation(ctx context.Context, delete *DeleteConversation) error

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)

	// Memory model related methods.
	CreateMemory(ctx context.Context, create *Memory) (*Memory, error)
	ListMemories(ctx context.Context, find *FindMemory) ([]*Memory, error)
	UpdateMemory(ctx context.Context, update *UpdateMemory) (*Memory, error)
	DeleteMemory(ctx context.Context, delete *DeleteMemory) error

	// Homework model related methods.
	CreateHomework(ctx context.Context, create *Homework) (*Homework, error)
	ListHomework(ctx context.Context, find *FindHomework) ([]*Homework, error)
	UpdateHomework(ctx context.Context, update *UpdateHomework) (*Homework, error)
}
