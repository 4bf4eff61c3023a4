package note

import "context"

// Usecase defines the note operations available to an authenticated user.
type Usecase interface {
	ListNotes(ctx context.Context, userID string) ([]Note, error)
	GetNote(ctx context.Context, userID, noteID string) (*Note, error)
	CreateNote(ctx context.Context, in CreateNoteRequest) (*Note, error)
	UpdateNote(ctx context.Context, in UpdateNoteRequest) (*Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) (*DeleteNoteResponse, error)
}
