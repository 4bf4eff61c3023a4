package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"notes-service/internal/usecase/auth"
	"notes-service/internal/usecase/note"
	apperrors "notes-service/pkg/errors"
)

// MockAuthUsecase is a mock implementation of auth.Usecase
type MockAuthUsecase struct {
	mock.Mock
}

func (m *MockAuthUsecase) Register(ctx context.Context, in auth.RegisterRequest) (*auth.AuthResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AuthResponse), args.Error(1)
}

func (m *MockAuthUsecase) Login(ctx context.Context, in auth.LoginRequest) (*auth.AuthResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AuthResponse), args.Error(1)
}

func (m *MockAuthUsecase) VerifyToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockAuthUsecase) Me(ctx context.Context, userID string) (*auth.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

// MockNoteUsecase is a mock implementation of note.Usecase
type MockNoteUsecase struct {
	mock.Mock
}

func (m *MockNoteUsecase) ListNotes(ctx context.Context, userID string) ([]note.Note, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]note.Note), args.Error(1)
}

func (m *MockNoteUsecase) GetNote(ctx context.Context, userID, noteID string) (*note.Note, error) {
	args := m.Called(ctx, userID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*note.Note), args.Error(1)
}

func (m *MockNoteUsecase) CreateNote(ctx context.Context, in note.CreateNoteRequest) (*note.Note, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*note.Note), args.Error(1)
}

func (m *MockNoteUsecase) UpdateNote(ctx context.Context, in note.UpdateNoteRequest) (*note.Note, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*note.Note), args.Error(1)
}

func (m *MockNoteUsecase) DeleteNote(ctx context.Context, userID, noteID string) (*note.DeleteNoteResponse, error) {
	args := m.Called(ctx, userID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*note.DeleteNoteResponse), args.Error(1)
}

const testUserID = "user-1"

// asUser stands in for the auth middleware.
func asUser(c *gin.Context) {
	c.Set("user_id", testUserID)
	c.Next()
}

func setupAuthTest(t *testing.T) (*gin.Engine, *MockAuthUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockAuthUsecase)
	h := NewAuthHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/me", asUser, h.Me)
	r.GET("/me-anonymous", h.Me)
	return r, mockUsecase
}

func setupNoteTest(t *testing.T) (*gin.Engine, *MockNoteUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockNoteUsecase)
	h := NewNoteHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	notes := r.Group("/notes", asUser)
	notes.GET("", h.ListNotes)
	notes.POST("", h.CreateNote)
	notes.GET("/:id", h.GetNote)
	notes.PUT("/:id", h.UpdateNote)
	notes.DELETE("/:id", h.DeleteNote)
	return r, mockUsecase
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var sampleTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// ==================== AUTH ====================

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)
		mockUsecase.On("Register", mock.Anything, auth.RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "secret123"}).
			Return(&auth.AuthResponse{
				Token:     "tok",
				ExpiresAt: sampleTime,
				User:      auth.User{ID: "u-1", Name: "Jane", Email: "jane@example.com", CreatedAt: sampleTime},
			}, nil)

		w := doJSON(r, http.MethodPost, "/register", `{"name":"Jane","email":"jane@example.com","password":"secret123"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "tok", resp["token"])
		user := resp["user"].(map[string]any)
		assert.Equal(t, "u-1", user["_id"])
		assert.NotContains(t, user, "password")
		assert.NotContains(t, user, "passwordHash")
	})

	t.Run("Invalid Body", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)

		w := doJSON(r, http.MethodPost, "/register", "not json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUsecase.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("Validation Error", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)
		mockUsecase.On("Register", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError("validation failed", apperrors.FieldError{Field: "email", Message: "email is required"}))

		w := doJSON(r, http.MethodPost, "/register", `{"name":"Jane"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "email", resp.Errors[0].Field)
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)
		mockUsecase.On("Register", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewConflictError("user", "email already registered"))

		w := doJSON(r, http.MethodPost, "/register", `{"name":"Jane","email":"jane@example.com","password":"secret123"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "email already registered", decodeError(t, w).Message)
	})
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)
		mockUsecase.On("Login", mock.Anything, auth.LoginRequest{Email: "jane@example.com", Password: "secret123"}).
			Return(&auth.AuthResponse{Token: "tok", User: auth.User{ID: "u-1"}}, nil)

		w := doJSON(r, http.MethodPost, "/login", `{"email":"jane@example.com","password":"secret123"}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Bad Credentials Is 400", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)
		mockUsecase.On("Login", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidCredentials)

		w := doJSON(r, http.MethodPost, "/login", `{"email":"jane@example.com","password":"wrong"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid credentials", decodeError(t, w).Message)
	})

	t.Run("Internal Error Hides Details", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)
		mockUsecase.On("Login", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewInternalError("failed to log in", errors.New("pq: connection refused")))

		w := doJSON(r, http.MethodPost, "/login", `{"email":"jane@example.com","password":"x"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decodeError(t, w).Message)
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}

func TestMe(t *testing.T) {
	r, mockUsecase := setupAuthTest(t)
	mockUsecase.On("Me", mock.Anything, testUserID).Return(&auth.User{ID: testUserID, Name: "Jane", Email: "jane@example.com"}, nil)

	w := doJSON(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "jane@example.com", resp.Email)

	w = doJSON(r, http.MethodGet, "/me-anonymous", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ==================== NOTES ====================

func sampleNote(id string) *note.Note {
	return &note.Note{
		ID:        id,
		UserID:    testUserID,
		Title:     "Groceries",
		Content:   "Milk, eggs",
		Date:      sampleTime,
		CreatedAt: sampleTime,
		UpdatedAt: sampleTime,
	}
}

func TestListNotes(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		mockUsecase.On("ListNotes", mock.Anything, testUserID).Return([]note.Note{*sampleNote("n-1"), *sampleNote("n-2")}, nil)

		w := doJSON(r, http.MethodGet, "/notes", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, "n-1", resp[0]["_id"])
		assert.Equal(t, testUserID, resp[0]["user"])
		assert.Equal(t, "2024-03-10T12:00:00Z", resp[0]["date"])
	})

	t.Run("Empty List Is Array", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		mockUsecase.On("ListNotes", mock.Anything, testUserID).Return([]note.Note{}, nil)

		w := doJSON(r, http.MethodGet, "/notes", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})
}

func TestGetNote(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		mockUsecase.On("GetNote", mock.Anything, testUserID, "n-1").Return(sampleNote("n-1"), nil)

		w := doJSON(r, http.MethodGet, "/notes/n-1", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Foreign Note Looks Missing", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		mockUsecase.On("GetNote", mock.Anything, testUserID, "n-2").Return(nil, apperrors.NewForbiddenError("note", "user-2"))
		mockUsecase.On("GetNote", mock.Anything, testUserID, "n-3").Return(nil, apperrors.NewNotFoundError("note", "n-3"))

		forbidden := doJSON(r, http.MethodGet, "/notes/n-2", "")
		missing := doJSON(r, http.MethodGet, "/notes/n-3", "")

		assert.Equal(t, http.StatusNotFound, forbidden.Code)
		assert.Equal(t, http.StatusNotFound, missing.Code)
		assert.Equal(t, decodeError(t, missing).Message, decodeError(t, forbidden).Message)
		assert.NotContains(t, forbidden.Body.String(), "user-2")
	})
}

func TestCreateNote(t *testing.T) {
	t.Run("Success Without Date", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		mockUsecase.On("CreateNote", mock.Anything, note.CreateNoteRequest{UserID: testUserID, Title: "Groceries", Content: "Milk, eggs"}).
			Return(sampleNote("n-1"), nil)

		w := doJSON(r, http.MethodPost, "/notes", `{"title":"Groceries","content":"Milk, eggs"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Date Only", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		mockUsecase.On("CreateNote", mock.Anything, mock.MatchedBy(func(in note.CreateNoteRequest) bool {
			return in.Date != nil && in.Date.Equal(want)
		})).Return(sampleNote("n-1"), nil)

		w := doJSON(r, http.MethodPost, "/notes", `{"title":"a","content":"b","date":"2024-01-15"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Bad Date", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)

		w := doJSON(r, http.MethodPost, "/notes", `{"title":"a","content":"b","date":"yesterday"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "date", resp.Errors[0].Field)
		mockUsecase.AssertNotCalled(t, "CreateNote", mock.Anything, mock.Anything)
	})

	t.Run("Validation Error", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		mockUsecase.On("CreateNote", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError("validation failed", apperrors.FieldError{Field: "title", Message: "title is required"}))

		w := doJSON(r, http.MethodPost, "/notes", `{"title":"  ","content":"b"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateNote(t *testing.T) {
	t.Run("Content Only", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		mockUsecase.On("UpdateNote", mock.Anything, mock.MatchedBy(func(in note.UpdateNoteRequest) bool {
			content, hasContent := in.Content.Get()
			_, hasTitle := in.Title.Get()
			_, hasDate := in.Date.Get()
			return in.NoteID == "n-1" && in.UserID == testUserID &&
				!hasTitle && !hasDate &&
				hasContent && content == "Milk, eggs, bread"
		})).Return(sampleNote("n-1"), nil)

		w := doJSON(r, http.MethodPut, "/notes/n-1", `{"content":"Milk, eggs, bread"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Null Title Carries No Value", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		mockUsecase.On("UpdateNote", mock.Anything, mock.MatchedBy(func(in note.UpdateNoteRequest) bool {
			_, hasTitle := in.Title.Get()
			return !hasTitle
		})).Return(sampleNote("n-1"), nil)

		w := doJSON(r, http.MethodPut, "/notes/n-1", `{"title":null}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Date", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		want := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
		mockUsecase.On("UpdateNote", mock.Anything, mock.MatchedBy(func(in note.UpdateNoteRequest) bool {
			d, ok := in.Date.Get()
			return ok && d.Equal(want)
		})).Return(sampleNote("n-1"), nil)

		w := doJSON(r, http.MethodPut, "/notes/n-1", `{"date":"2024-05-01T10:30:00+02:00"}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		mockUsecase.On("UpdateNote", mock.Anything, mock.Anything).Return(nil, apperrors.NewNotFoundError("note", "n-9"))

		w := doJSON(r, http.MethodPut, "/notes/n-9", `{"title":"x"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Empty Body Is Empty Update", func(t *testing.T) {
		r, mockUsecase := setupNoteTest(t)
		mockUsecase.On("UpdateNote", mock.Anything, mock.MatchedBy(func(in note.UpdateNoteRequest) bool {
			_, hasTitle := in.Title.Get()
			_, hasContent := in.Content.Get()
			_, hasDate := in.Date.Get()
			return in.NoteID == "n-1" && !hasTitle && !hasContent && !hasDate
		})).Return(sampleNote("n-1"), nil)

		w := doJSON(r, http.MethodPut, "/notes/n-1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Invalid Body", func(t *testing.T) {
		r, _ := setupNoteTest(t)

		w := doJSON(r, http.MethodPut, "/notes/n-1", `{"title":42}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Body Over Limit", func(t *testing.T) {
		r, _ := setupNoteTest(t)
		req := httptest.NewRequest(http.MethodPut, "/notes/n-1", bytes.NewBufferString(`{"content":"`+strings.Repeat("x", 64)+`"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		req.Body = http.MaxBytesReader(w, req.Body, 16)
		req.ContentLength = -1
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.JSONEq(t, `{"message":"request body too large"}`, w.Body.String())
	})
}

func TestDeleteNote(t *testing.T) {
	r, mockUsecase := setupNoteTest(t)
	mockUsecase.On("DeleteNote", mock.Anything, testUserID, "n-1").
		Return(&note.DeleteNoteResponse{ID: "n-1", Message: "Note deleted successfully"}, nil)
	mockUsecase.On("DeleteNote", mock.Anything, testUserID, "n-2").
		Return(nil, apperrors.NewForbiddenError("note", "user-2"))

	w := doJSON(r, http.MethodDelete, "/notes/n-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Note deleted successfully","id":"n-1"}`, w.Body.String())

	w = doJSON(r, http.MethodDelete, "/notes/n-2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
