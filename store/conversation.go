package store

// Conversation represents a coaching conversation between a user and the assistant.
type Conversation struct {
	ID     int32
	UID    string
	UserID int32

	Title           string
	IsFormalSession bool
	SessionNumber   *int32
	StartedTs       int64
	EndedTs         *int64
	Summary         *string
}

// FindConversation specifies the conditions for finding conversations.
type FindConversation struct {
	ID              *int32
	UID             *string
	UserID          *int32
	IsFormalSession *bool
	Limit           *int
	Offset          *int
}

// UpdateConversation specifies the fields to update on a conversation.
type UpdateConversation struct {
	ID      int32
	Title   *string
	EndedTs *int64
	Summary *string
}

// DeleteConversation specifies the conditions for deleting a conversation.
// Messages are removed with the conversation; extracted memories are kept.
type DeleteConversation struct {
	ID int32
}

// Message represents a single message within a conversation.
type Message struct {
	ID             int32
	ConversationID int32
	UserID         int32
	Content        string
	IsFromUser     bool
	CreatedTs      int64
}

// FindMessage specifies the conditions for finding messages.
type FindMessage struct {
	ID             *int32
	ConversationID *int32
	Limit          *int

	// OrderByTimeDesc returns newest messages first. Combined with Limit it
	// selects the tail of a conversation instead of the head.
	OrderByTimeDesc bool
}
