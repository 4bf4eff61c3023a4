package auth

import "time"

// RegisterRequest represents the request payload for creating an account.
type RegisterRequest struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,maxbytes=72"` // bcrypt rejects more than 72 bytes
}

// LoginRequest represents the request payload for logging in.
type LoginRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// AuthResponse carries a signed bearer token and the account it belongs to.
type AuthResponse struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// User is the public view of an account.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
