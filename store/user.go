package store

// User represents a registered user of the coaching service.
type User struct {
	ID           int32
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedTs    int64
}

// FindUser specifies the conditions for finding users.
type FindUser struct {
	ID       *int32
	Username *string
	Email    *string
}
