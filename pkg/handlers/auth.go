package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse wraps a user with a status message.
type UserResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// LoginResponse is returned on successful login. The token is also set as an
// HttpOnly cookie; it is echoed here for Bearer clients such as MCP tools.
type LoginResponse struct {
	Message   string       `json:"message"`
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// MessageResponse carries a single status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthHandler handles account registration and session endpoints.
type AuthHandler struct {
	authService  services.AuthService
	cookieSecure bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService services.AuthService, cookieSecure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
// Every route runs inside a database scope; logout and me also require auth.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/auth/register", scope(h.Register))
	mux.HandleFunc("POST /api/auth/login", scope(h.Login))
	mux.HandleFunc("POST /api/auth/logout", authMiddleware.RequireAuth(h.Logout))
	mux.HandleFunc("GET /api/auth/me", authMiddleware.RequireAuth(scope(h.Me)))
	mux.HandleFunc("GET /api/user/me", authMiddleware.RequireAuth(scope(h.Me)))
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var validationErr *apperrors.ValidationError
		switch {
		case errors.As(err, &validationErr):
			h.writeError(w, http.StatusBadRequest, "invalid_request", validationErr.Message)
		case errors.Is(err, apperrors.ErrConflict):
			h.writeError(w, http.StatusConflict, "user_exists", "User already exists")
		default:
			h.logger.Error("Registration failed", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal_error", "Server error")
		}
		return
	}

	h.logger.Info("User registered", zap.String("user_id", user.ID.String()))

	if err := WriteJSON(w, http.StatusCreated, UserResponse{
		Message: "User created",
		User:    user,
	}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Login handles POST /api/auth/login.
// On success the session token is set as an httpOnly cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "missing_parameters", "Email and password are required")
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			h.writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Server error")
		return
	}

	auth.SetSessionCookie(w, session.Token, session.ExpiresAt, h.cookieSecure)

	if err := WriteJSON(w, http.StatusOK, LoginResponse{
		Message:   "User logged in successfully",
		User:      session.User,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Logout handles POST /api/auth/logout.
// Clears the session cookie and revokes the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetClaims(r.Context())

	if err := h.authService.Logout(r.Context(), claims); err != nil {
		h.logger.Error("Failed to revoke session", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Server error")
		return
	}

	auth.ClearSessionCookie(w, h.cookieSecure)

	if err := WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Me handles GET /api/auth/me and GET /api/user/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		h.logger.Error("Failed to load user", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Server error")
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}

func (h *AuthHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
