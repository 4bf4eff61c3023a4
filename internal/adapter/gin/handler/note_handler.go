package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"notes-service/internal/usecase/note"
	"notes-service/pkg/optional"
)

// NoteHandler handles HTTP requests for note operations. Every route expects
// the auth middleware to have run.
type NoteHandler struct {
	uc  note.Usecase
	log *zap.Logger
}

// NewNoteHandler creates a new NoteHandler instance
func NewNoteHandler(uc note.Usecase, log *zap.Logger) *NoteHandler {
	return &NoteHandler{
		uc:  uc,
		log: log,
	}
}

// CreateNoteRequest represents the HTTP request body for creating a note
type CreateNoteRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Date    *string `json:"date"`
}

// UpdateNoteRequest represents the HTTP request body for a partial update
type UpdateNoteRequest struct {
	Title   optional.Value[string] `json:"title"`
	Content optional.Value[string] `json:"content"`
	Date    optional.Value[string] `json:"date"`
}

// NoteResponse represents the HTTP response for note data
type NoteResponse struct {
	ID        string    `json:"_id"`
	User      string    `json:"user"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeleteNoteResponse confirms a deletion
type DeleteNoteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ListNotes handles GET /api/notes
func (h *NoteHandler) ListNotes(c *gin.Context) {
	userID, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	notes, err := h.uc.ListNotes(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]NoteResponse, len(notes))
	for i := range notes {
		out[i] = toNoteResponse(&notes[i])
	}
	c.JSON(http.StatusOK, out)
}

// GetNote handles GET /api/notes/:id
func (h *NoteHandler) GetNote(c *gin.Context) {
	userID, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	n, err := h.uc.GetNote(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toNoteResponse(n))
}

// CreateNote handles POST /api/notes
func (h *NoteHandler) CreateNote(c *gin.Context) {
	userID, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid create note request", zap.Error(err))
		respondError(c, h.log, bindError(err))
		return
	}

	in := note.CreateNoteRequest{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
	}
	if req.Date != nil && *req.Date != "" {
		date, err := parseDate(*req.Date)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		in.Date = &date
	}

	n, err := h.uc.CreateNote(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toNoteResponse(n))
}

// UpdateNote handles PUT /api/notes/:id
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	userID, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	// an empty body is an empty update
	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warn("invalid update note request", zap.Error(err))
		respondError(c, h.log, bindError(err))
		return
	}

	in := note.UpdateNoteRequest{
		UserID:  userID,
		NoteID:  c.Param("id"),
		Title:   req.Title,
		Content: req.Content,
	}
	if raw, ok := req.Date.Get(); ok && raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		in.Date = optional.Some(date)
	}

	n, err := h.uc.UpdateNote(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toNoteResponse(n))
}

// DeleteNote handles DELETE /api/notes/:id
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	resp, err := h.uc.DeleteNote(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, DeleteNoteResponse{Message: resp.Message, ID: resp.ID})
}

func toNoteResponse(n *note.Note) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		User:      n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		Date:      n.Date,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
