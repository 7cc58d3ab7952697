package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/testhelpers"
)

// mockAuthService is a mock implementation of AuthService for testing.
type mockAuthService struct {
	claims      *Claims
	token       string
	validateErr error
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	if m.validateErr != nil {
		return nil, "", m.validateErr
	}
	return m.claims, m.token, nil
}

func TestMiddleware_RequireAuth_Success(t *testing.T) {
	userID := uuid.New()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}}
	middleware := NewMiddleware(&mockAuthService{claims: claims, token: "test-token"}, zap.NewNop())

	var handlerCalled bool
	var ctxUserID uuid.UUID
	var ctxToken string

	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		ctxUserID, _ = GetUserUUIDFromContext(r.Context())
		ctxToken, _ = GetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))

	if !handlerCalled {
		t.Error("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if ctxUserID != userID {
		t.Errorf("expected user %s in context, got %s", userID, ctxUserID)
	}
	if ctxToken != "test-token" {
		t.Errorf("expected token 'test-token' in context, got %q", ctxToken)
	}
}

func TestMiddleware_RequireAuth_Unauthorized(t *testing.T) {
	middleware := NewMiddleware(&mockAuthService{validateErr: ErrMissingAuthorization}, zap.NewNop())

	handlerCalled := false
	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))

	if handlerCalled {
		t.Error("expected handler not to be called")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["error"] != "unauthorized" {
		t.Errorf("expected error 'unauthorized', got %q", body["error"])
	}
}

func TestGetUserUUIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := GetUserUUIDFromContext(req.Context()); ok {
		t.Error("expected no user without claims")
	}

	bad := WithClaims(req.Context(), &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"}}, "")
	if _, err := RequireUserUUIDFromContext(bad); err == nil {
		t.Error("expected error for malformed subject")
	}
}

func TestSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "abc", time.Now().Add(time.Hour), true)
	ClearSessionCookie(rec, false)

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}

	set := cookies[0]
	if set.Name != CookieName || set.Value != "abc" || !set.HttpOnly || !set.Secure || set.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected session cookie: %+v", set)
	}
	if set.MaxAge <= 0 {
		t.Errorf("expected positive MaxAge, got %d", set.MaxAge)
	}

	cleared := cookies[1]
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Errorf("expected cleared cookie, got %+v", cleared)
	}
}

func TestMiddleware_RequireAuth_BearerToken(t *testing.T) {
	tokens, err := NewTokenManager(testhelpers.TestJWTSecret, time.Hour)
	require.NoError(t, err)
	middleware := NewMiddleware(NewAuthService(tokens, NewMemoryRevocationStore(), zap.NewNop()), zap.NewNop())

	userID := uuid.New()
	var got uuid.UUID
	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetUserUUIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(userID, "ann@example.com"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, got)
}
