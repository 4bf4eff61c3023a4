package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "notes-service/internal/domain/user"
	apperrors "notes-service/pkg/errors"
	"notes-service/pkg/logger"
	"notes-service/pkg/security"
)

// Repository is the credential store.
type Repository interface {
	Create(ctx context.Context, u *domain.User) error                   // Create a user; ErrEmailTaken on duplicate email
	GetByID(ctx context.Context, id string) (*domain.User, error)       // ErrNotFound when absent
	GetByEmail(ctx context.Context, email string) (*domain.User, error) // (nil, nil) when absent
}

// TokenManager issues and parses bearer tokens.
type TokenManager interface {
	Generate(userID string) (string, time.Time, error)
	Parse(token string) (string, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Service implements Usecase.
type Service struct {
	repo     Repository
	tokens   TokenManager
	hasher   PasswordHasher
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New creates the auth service.
func New(r Repository, tokens TokenManager, hasher PasswordHasher, log *zap.Logger) *Service {
	return &Service{
		repo:     r,
		tokens:   tokens,
		hasher:   hasher,
		log:      log,
		validate: security.NewValidator(),
		now:      time.Now,
	}
}

// Register creates an account and returns a token for it. The plaintext
// password is never logged.
func (s *Service) Register(ctx context.Context, in RegisterRequest) (*AuthResponse, error) {
	in.Name = security.NormalizeName(in.Name)
	in.Email = security.NormalizeEmail(in.Email)
	log := logger.WithContext(ctx, s.log)

	log.Info("registering user", zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		log.Warn("register validation failed", zap.Error(err))
		return nil, apperrors.FromValidator(err)
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to register user", err)
	}
	if existing != nil {
		log.Warn("email already registered", zap.String("email", in.Email))
		return nil, apperrors.NewConflictError("user", "email already registered")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to register user", err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, apperrors.NewConflictError("user", "email already registered")
		}
		log.Error("failed to create user", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to register user", err)
	}

	log.Info("user registered", zap.String("user_id", u.ID))
	return s.issue(ctx, u)
}

// Login checks credentials. Unknown email and wrong password produce the same
// error so callers cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, in LoginRequest) (*AuthResponse, error) {
	in.Email = security.NormalizeEmail(in.Email)
	log := logger.WithContext(ctx, s.log)

	if err := s.validate.Struct(in); err != nil {
		log.Warn("login validation failed", zap.Error(err))
		return nil, apperrors.FromValidator(err)
	}

	u, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to look up user", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to log in", err)
	}
	if u == nil {
		log.Info("login failed", zap.String("reason", "unknown email"))
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(u.PasswordHash, in.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			log.Info("login failed", zap.String("reason", "password mismatch"), zap.String("user_id", u.ID))
			return nil, apperrors.ErrInvalidCredentials
		}
		log.Error("failed to compare password", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to log in", err)
	}

	log.Info("user logged in", zap.String("user_id", u.ID))
	return s.issue(ctx, u)
}

// VerifyToken returns the user id embedded in a valid, unexpired token.
func (s *Service) VerifyToken(ctx context.Context, token string) (string, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, security.ErrTokenExpired) {
			msg = "token expired"
		}
		logger.WithContext(ctx, s.log).Debug("token rejected", zap.Error(err))
		return "", apperrors.NewAuthError(msg)
	}
	return userID, nil
}

// Me returns the profile of the authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user", userID)
		}
		logger.WithContext(ctx, s.log).Error("failed to load user", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to load user", err)
	}

	out := toDTO(u)
	return &out, nil
}

func (s *Service) issue(ctx context.Context, u *domain.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Generate(u.ID)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to issue token", zap.String("user_id", u.ID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to issue token", err)
	}

	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toDTO(u),
	}, nil
}

func toDTO(u *domain.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
