package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"notes-service/internal/domain/note"
)

// NoteRepoPG is the note store backed by GORM.
type NoteRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewNoteRepoPG creates a new instance of NoteRepoPG.
func NewNoteRepoPG(db *gorm.DB, log *zap.Logger) *NoteRepoPG {
	return &NoteRepoPG{db: db, log: log}
}

// Create inserts a note. An empty ID is filled with a fresh UUID.
func (r *NoteRepoPG) Create(ctx context.Context, n *note.Note) error {
	if n == nil {
		return errors.New("note cannot be nil")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	model := fromNote(n)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create note in db", zap.Error(err), zap.String("user_id", n.UserID))
		return fmt.Errorf("failed to create note: %w", err)
	}

	r.log.Debug("note created in db", zap.String("id", n.ID), zap.String("user_id", n.UserID))
	return nil
}

// GetByID retrieves a note regardless of owner; ownership is the caller's decision.
func (r *NoteRepoPG) GetByID(ctx context.Context, id string) (*note.Note, error) {
	var model NoteSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, note.ErrNotFound
		}
		r.log.Error("failed to get note from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return toNote(model), nil
}

// ListByOwner returns every note of ownerID, newest date first.
func (r *NoteRepoPG) ListByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	var models []NoteSchema
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("note_date DESC").
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list notes from db", zap.Error(err), zap.String("user_id", ownerID))
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := make([]note.Note, len(models))
	for i, m := range models {
		notes[i] = *toNote(m)
	}
	return notes, nil
}

// Update writes the mutable columns of n. The owner is part of the filter, so a
// note that changed hands or vanished yields note.ErrNotFound.
func (r *NoteRepoPG) Update(ctx context.Context, n *note.Note) error {
	if n == nil {
		return errors.New("note cannot be nil")
	}

	res := r.db.WithContext(ctx).
		Model(&NoteSchema{}).
		Where("id = ? AND user_id = ?", n.ID, n.UserID).
		Updates(map[string]any{
			"title":      n.Title,
			"content":    n.Content,
			"note_date":  n.Date,
			"updated_at": n.UpdatedAt,
		})
	if res.Error != nil {
		r.log.Error("failed to update note in db", zap.Error(res.Error), zap.String("id", n.ID))
		return fmt.Errorf("failed to update note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return note.ErrNotFound
	}

	r.log.Debug("note updated in db", zap.String("id", n.ID))
	return nil
}

// Delete removes the note with id owned by ownerID.
func (r *NoteRepoPG) Delete(ctx context.Context, id, ownerID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&NoteSchema{})
	if res.Error != nil {
		r.log.Error("failed to delete note in db", zap.Error(res.Error), zap.String("id", id))
		return fmt.Errorf("failed to delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return note.ErrNotFound
	}

	r.log.Debug("note deleted in db", zap.String("id", id))
	return nil
}

func fromNote(n *note.Note) NoteSchema {
	return NoteSchema{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		Date:      n.Date,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func toNote(m NoteSchema) *note.Note {
	return &note.Note{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Content:   m.Content,
		Date:      m.Date.UTC(),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}
