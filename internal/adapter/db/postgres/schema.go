package postgres

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"size:100;not null"`
	Email        string    `gorm:"size:254;not null;uniqueIndex"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false;not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// NoteSchema represents the database schema for the notes table.
// The (user_id, note_date) index serves the per-owner listing.
type NoteSchema struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_notes_user_date,priority:1"`
	Title     string    `gorm:"not null"`
	Content   string    `gorm:"type:text;not null"`
	Date      time.Time `gorm:"column:note_date;not null;index:idx_notes_user_date,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;not null"`
}

// TableName specifies the table name for the NoteSchema model.
func (NoteSchema) TableName() string {
	return "notes"
}

// Migrate creates or updates the users and notes tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}, &NoteSchema{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// isUniqueViolation detects unique index failures from both postgres and sqlite,
// with or without gorm's TranslateError enabled.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
