package auth

import "context"

// Usecase defines registration, login and bearer token verification.
type Usecase interface {
	Register(ctx context.Context, in RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, in LoginRequest) (*AuthResponse, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	Me(ctx context.Context, userID string) (*User, error)
}
