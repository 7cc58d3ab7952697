package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/repositories"
)

// Session is a signed-in user with their token.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AuthService defines the interface for account operations.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	// Login returns apperrors.ErrInvalidCredentials for an unknown email or
	// a wrong password.
	Login(ctx context.Context, email, password string) (*Session, error)
	// Logout revokes the token described by claims until it expires.
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// authService implements AuthService.
type authService struct {
	users      repositories.UserRepository
	tokens     *auth.TokenManager
	revocation auth.RevocationStore
	logger     *zap.Logger
}

// NewAuthService creates a new account service with dependencies.
func NewAuthService(users repositories.UserRepository, tokens *auth.TokenManager, revocation auth.RevocationStore, logger *zap.Logger) AuthService {
	return &authService{
		users:      users,
		tokens:     tokens,
		revocation: revocation,
		logger:     logger.Named("auth"),
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = models.NormalizeEmail(email)

	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("Name, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("Invalid email address")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Debug("Password mismatch", zap.String("user_id", user.ID.String()))
		return nil, apperrors.ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &Session{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil || s.revocation == nil {
		return nil
	}
	if err := s.revocation.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)
