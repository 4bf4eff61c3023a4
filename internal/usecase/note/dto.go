package note

import (
	"time"

	"notes-service/pkg/optional"
)

// CreateNoteRequest represents the request payload for creating a note.
type CreateNoteRequest struct {
	UserID  string `validate:"required"`
	Title   string `validate:"required,max=200"`
	Content string `validate:"required,max=20000"`
	Date    *time.Time // nil means now
}

// UpdateNoteRequest carries a partial update. Absent, null and blank
// title/content leave the stored value untouched.
type UpdateNoteRequest struct {
	UserID  string
	NoteID  string
	Title   optional.Value[string]
	Content optional.Value[string]
	Date    optional.Value[time.Time]
}

// DeleteNoteResponse confirms a deletion.
type DeleteNoteResponse struct {
	ID      string
	Message string
}

// Note is the note DTO returned to callers.
type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
