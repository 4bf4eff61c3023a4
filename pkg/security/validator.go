package security

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// NewValidator returns a validator with the service's custom tags registered:
//
//	maxbytes=N  string length in bytes is at most N (max counts runes)
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("maxbytes", maxBytes)
	return v
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// NormalizeEmail trims and lower-cases an email so lookups and the unique
// index agree regardless of how the user typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName trims a display name and collapses inner runs of whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// IsValidID reports whether id is a canonical UUID as generated for users and notes.
func IsValidID(id string) bool {
	if id == "" {
		return false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.String() == strings.ToLower(id)
}
