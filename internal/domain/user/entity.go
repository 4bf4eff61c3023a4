package user

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by stores when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by stores when the unique email index rejects an insert.
	ErrEmailTaken = errors.New("email already registered")
)

// User represents a registered account.
type User struct {
	ID           string    // ID is the UUID of the user
	Name         string    // Name is the display name
	Email        string    // Email is unique and stored normalized
	PasswordHash string    // PasswordHash is the bcrypt hash, never the plaintext
	CreatedAt    time.Time // CreatedAt is set on registration
	UpdatedAt    time.Time
}
