package store

// Homework represents a homework assignment given by the coach.
type Homework struct {
	ID             int32
	UserID         int32
	ConversationID int32

	Title       string
	Description string
	Technique   string

	IsCompleted     bool
	CompletionNotes *string
	CompletionTs    *int64
	CreatedTs       int64
}

// FindHomework specifies the conditions for finding homework assignments.
type FindHomework struct {
	ID             *int32
	UserID         *int32
	ConversationID *int32
	IsCompleted    *bool
	Limit          *int
}

// UpdateHomework specifies the fields to update on a homework assignment.
type UpdateHomework struct {
	ID              int32
	IsCompleted     *bool
	CompletionNotes *string
	CompletionTs    *int64
}
