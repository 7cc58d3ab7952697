package testhelpers

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TestJWTSecret is the signing secret used by GenerateTestJWT.
const TestJWTSecret = "test-secret-do-not-use-in-production"

// GenerateTestJWT signs an HS256 session token for userID with TestJWTSecret.
// It mirrors the claims issued by the auth package.
func GenerateTestJWT(userID uuid.UUID, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	if err != nil {
		panic(fmt.Sprintf("sign test token: %v", err))
	}
	return signed
}

// GenerateTestJWTWithBearer returns token with "Bearer " prefix for Authorization header.
func GenerateTestJWTWithBearer(userID uuid.UUID, email string) string {
	return "Bearer " + GenerateTestJWT(userID, email)
}
