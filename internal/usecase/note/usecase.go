package note

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "notes-service/internal/domain/note"
	apperrors "notes-service/pkg/errors"
	"notes-service/pkg/logger"
	"notes-service/pkg/security"
)

const deletedMessage = "Note deleted successfully"

// Repository is the note store.
type Repository interface {
	Create(ctx context.Context, n *domain.Note) error
	GetByID(ctx context.Context, id string) (*domain.Note, error)           // ErrNotFound when absent
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Note, error) // date desc
	Update(ctx context.Context, n *domain.Note) error                       // filtered by id and owner
	Delete(ctx context.Context, id, ownerID string) error                   // filtered by id and owner
}

// Service implements Usecase.
type Service struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New creates the notes service.
func New(r Repository, log *zap.Logger) *Service {
	return &Service{
		repo:     r,
		log:      log,
		validate: security.NewValidator(),
		now:      time.Now,
	}
}

// fields re-validates title and content after a partial update is merged.
type fields struct {
	Title   string `validate:"required,max=200"`
	Content string `validate:"required,max=20000"`
}

// ListNotes returns every note of userID, most recent date first.
func (s *Service) ListNotes(ctx context.Context, userID string) ([]Note, error) {
	notes, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to list notes", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list notes", err)
	}

	out := make([]Note, len(notes))
	for i := range notes {
		out[i] = toDTO(&notes[i])
	}
	return out, nil
}

// GetNote returns one note owned by userID.
func (s *Service) GetNote(ctx context.Context, userID, noteID string) (*Note, error) {
	n, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	out := toDTO(n)
	return &out, nil
}

// CreateNote stores a new note. Title and content are trimmed before
// validation; a missing date defaults to now.
func (s *Service) CreateNote(ctx context.Context, in CreateNoteRequest) (*Note, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	log := logger.WithContext(ctx, s.log)

	if err := s.validate.Struct(in); err != nil {
		log.Warn("create note validation failed", zap.Error(err))
		return nil, apperrors.FromValidator(err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	date := now
	if in.Date != nil {
		date = in.Date.UTC().Truncate(time.Microsecond)
	}

	n := &domain.Note{
		UserID:    in.UserID,
		Title:     in.Title,
		Content:   in.Content,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		log.Error("failed to create note", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create note", err)
	}

	log.Info("note created", zap.String("note_id", n.ID))
	out := toDTO(n)
	return &out, nil
}

// UpdateNote applies the supplied fields to a note owned by in.UserID.
func (s *Service) UpdateNote(ctx context.Context, in UpdateNoteRequest) (*Note, error) {
	log := logger.WithContext(ctx, s.log)

	n, err := s.owned(ctx, in.UserID, in.NoteID)
	if err != nil {
		return nil, err
	}

	if title, ok := in.Title.Get(); ok && strings.TrimSpace(title) != "" {
		n.Title = strings.TrimSpace(title)
	}
	if content, ok := in.Content.Get(); ok && strings.TrimSpace(content) != "" {
		n.Content = strings.TrimSpace(content)
	}
	if date, ok := in.Date.Get(); ok {
		n.Date = date.UTC().Truncate(time.Microsecond)
	}

	if err := s.validate.Struct(fields{Title: n.Title, Content: n.Content}); err != nil {
		log.Warn("update note validation failed", zap.Error(err))
		return nil, apperrors.FromValidator(err)
	}

	n.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)

	if err := s.repo.Update(ctx, n); err != nil {
		// deleted between the read and the write
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("note", in.NoteID)
		}
		log.Error("failed to update note", zap.String("note_id", in.NoteID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to update note", err)
	}

	log.Info("note updated", zap.String("note_id", n.ID))
	out := toDTO(n)
	return &out, nil
}

// DeleteNote permanently removes a note owned by userID.
func (s *Service) DeleteNote(ctx context.Context, userID, noteID string) (*DeleteNoteResponse, error) {
	log := logger.WithContext(ctx, s.log)

	if _, err := s.owned(ctx, userID, noteID); err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, noteID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("note", noteID)
		}
		log.Error("failed to delete note", zap.String("note_id", noteID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to delete note", err)
	}

	log.Info("note deleted", zap.String("note_id", noteID))
	return &DeleteNoteResponse{ID: noteID, Message: deletedMessage}, nil
}

// owned loads noteID and checks it belongs to userID.
func (s *Service) owned(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	if !security.IsValidID(noteID) {
		return nil, apperrors.NewNotFoundError("note", noteID)
	}

	n, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("note", noteID)
		}
		logger.WithContext(ctx, s.log).Error("failed to get note", zap.String("note_id", noteID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to get note", err)
	}

	if !n.OwnedBy(userID) {
		logger.WithContext(ctx, s.log).Warn("note access denied",
			zap.String("note_id", noteID),
			zap.String("owner_id", n.UserID),
		)
		return nil, apperrors.NewForbiddenError("note", n.UserID)
	}

	return n, nil
}

func toDTO(n *domain.Note) Note {
	return Note{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		Date:      n.Date,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
