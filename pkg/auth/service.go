package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrTokenRevoked         = errors.New("token has been revoked")
)

// AuthService defines the interface for authenticating requests.
type AuthService interface {
	// ValidateRequest extracts and validates a JWT from the request.
	// It checks for the token in:
	//   1. Cookie named "token" (browser clients)
	//   2. Authorization header with "Bearer" scheme (API clients)
	// Returns the validated claims, the raw token string, or an error.
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

// authService implements AuthService.
type authService struct {
	tokens     *TokenManager
	revocation RevocationStore
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService. revocation may be nil when
// logout revocation is not tracked.
func NewAuthService(tokens *TokenManager, revocation RevocationStore, logger *zap.Logger) AuthService {
	return &authService{
		tokens:     tokens,
		revocation: revocation,
		logger:     logger,
	}
}

// ValidateRequest extracts and validates a JWT from the request.
func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	tokenString, source, err := tokenFromRequest(r)
	if err != nil {
		s.logger.Debug("No usable token in request",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		return nil, "", err
	}

	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", source))
		return nil, "", err
	}

	if s.revocation != nil && claims.ID != "" {
		revoked, err := s.revocation.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			s.logger.Error("Failed to check token revocation", zap.Error(err))
			return nil, "", err
		}
		if revoked {
			return nil, "", ErrTokenRevoked
		}
	}

	return claims, tokenString, nil
}

// tokenFromRequest returns the session token and where it was found. The
// cookie wins over the Authorization header.
func tokenFromRequest(r *http.Request) (string, string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, "cookie", nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "", ErrMissingAuthorization
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.Contains(token, " ") {
		return "", "", ErrInvalidAuthFormat
	}
	return token, "header", nil
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)
