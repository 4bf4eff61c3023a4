package note

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no note matches.
var ErrNotFound = errors.New("note not found")

// Note is a text note owned by exactly one user.
type Note struct {
	ID        string
	UserID    string // owner, immutable after creation
	Title     string
	Content   string
	Date      time.Time // user-assignable logical date
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy reports whether userID owns the note.
func (n *Note) OwnedBy(userID string) bool {
	return n != nil && n.UserID == userID
}
