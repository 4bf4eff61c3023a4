package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Common application errors
var (
	ErrInvalidCredentials = NewAuthError("invalid credentials")
	ErrUnauthorized       = NewAuthError("not authorized")
)

// HTTPError is implemented by every error in this package. The API layer uses it
// to pick a status code and the message that is safe to show to clients.
type HTTPError interface {
	error
	HTTPStatus() int
	PublicMessage() string
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Message string
	Fields  []FieldError
}

// NewValidationError creates a new validation error
func NewValidationError(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{
		Message: message,
		Fields:  fields,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, ", "))
}

func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

func (e *ValidationError) PublicMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// AuthError represents bad credentials or an invalid bearer token.
type AuthError struct {
	Message string
}

// NewAuthError creates a new authentication error
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) HTTPStatus() int { return http.StatusUnauthorized }

func (e *AuthError) PublicMessage() string { return e.Message }

// ForbiddenError is returned when an authenticated user touches a resource owned
// by someone else. It is rendered exactly like a NotFoundError so callers cannot
// discover resources they do not own.
type ForbiddenError struct {
	Resource string
	OwnerID  string
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(resource, ownerID string) *ForbiddenError {
	return &ForbiddenError{Resource: resource, OwnerID: ownerID}
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s belongs to another user", e.Resource)
}

func (e *ForbiddenError) HTTPStatus() int { return http.StatusNotFound }

func (e *ForbiddenError) PublicMessage() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: id=%s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

func (e *NotFoundError) PublicMessage() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// ConflictError represents a resource already exists error
type ConflictError struct {
	Resource string
	Message  string
}

// NewConflictError creates a new conflict error
func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e *ConflictError) HTTPStatus() int { return http.StatusConflict }

func (e *ConflictError) PublicMessage() string { return e.Error() }

// PayloadTooLargeError is returned when a request body exceeds the configured cap.
type PayloadTooLargeError struct {
	Limit int64
}

// NewPayloadTooLargeError creates a new payload too large error
func NewPayloadTooLargeError(limit int64) *PayloadTooLargeError {
	return &PayloadTooLargeError{Limit: limit}
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.Limit)
}

func (e *PayloadTooLargeError) HTTPStatus() int { return http.StatusRequestEntityTooLarge }

func (e *PayloadTooLargeError) PublicMessage() string { return "request body too large" }

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

func (e *InternalError) HTTPStatus() int { return http.StatusInternalServerError }

func (e *InternalError) PublicMessage() string { return "internal server error" }

// Status returns the HTTP status for err, defaulting to 500 for errors outside
// this package.
func Status(err error) int {
	var he HTTPError
	if errors.As(err, &he) {
		return he.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// FromValidator converts validator.ValidationErrors into a ValidationError with
// one FieldError per failed rule. Other errors are returned unchanged.
func FromValidator(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		name := strings.ToLower(e.Field())
		var msg string
		switch e.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", name)
		case "email":
			msg = fmt.Sprintf("%s must be a valid email", name)
		case "min":
			msg = fmt.Sprintf("%s must be at least %s characters", name, e.Param())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", name, e.Param())
		case "maxbytes":
			msg = fmt.Sprintf("%s must be at most %s bytes", name, e.Param())
		case "uuid":
			msg = fmt.Sprintf("%s must be a valid id", name)
		default:
			msg = fmt.Sprintf("%s is invalid", name)
		}
		fields = append(fields, FieldError{Field: name, Message: msg})
	}

	return NewValidationError("validation failed", fields...)
}
