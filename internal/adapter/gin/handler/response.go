package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"notes-service/internal/adapter/gin/middleware"
	apperrors "notes-service/pkg/errors"
	"notes-service/pkg/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string                 `json:"message"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

var errInvalidBody = apperrors.NewValidationError("invalid request body")

// bindError maps a JSON binding failure to the error shown to the client.
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewPayloadTooLargeError(tooLarge.Limit)
	}
	return errInvalidBody
}

// respondError renders err with the status its type carries. Details of
// internal errors are logged and never returned.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := apperrors.Status(err)
	body := ErrorResponse{Message: "internal server error"}

	var he apperrors.HTTPError
	if errors.As(err, &he) {
		body.Message = he.PublicMessage()
	}

	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		body.Errors = ve.Fields
	}

	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context(), log).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, body)
}

// currentUser returns the id set by the auth middleware. Routes using it are
// always mounted behind RequireAuth.
func currentUser(c *gin.Context, log *zap.Logger) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, log, apperrors.ErrUnauthorized)
	}
	return userID, ok
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("validation failed", apperrors.FieldError{
			Field:   "date",
			Message: "date must be an RFC 3339 timestamp or YYYY-MM-DD",
		})
	}
	return t, nil
}
