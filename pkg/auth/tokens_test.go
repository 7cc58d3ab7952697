package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return m
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	m := newTestTokenManager(t)
	user := &models.User{ID: uuid.New(), Email: "ada@example.com"}

	token, issued, err := m.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, issued.ID, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_DefaultTTL(t *testing.T) {
	m, err := NewTokenManager("s", 0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, m.TTL())

	_, err = NewTokenManager("", time.Hour)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	m := newTestTokenManager(t)
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, _, err := m.Issue(&models.User{ID: uuid.New()})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	other, err := NewTokenManager("other-secret", time.Hour)
	require.NoError(t, err)
	token, _, err := other.Issue(&models.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = newTestTokenManager(t).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsUnsignedToken(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestTokenManager(t).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RequiresExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uuid.NewString()}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newTestTokenManager(t).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret!"))
}
