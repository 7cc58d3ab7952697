package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
	"github.com/ekaya-inc/ekaya-insights/pkg/database"
	"github.com/ekaya-inc/ekaya-insights/pkg/insights"
	"github.com/ekaya-inc/ekaya-insights/pkg/llm"
	"github.com/ekaya-inc/ekaya-insights/pkg/repositories"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// stubAuthService authenticates every request as a fixed user, or rejects
// every request when userID is uuid.Nil.
type stubAuthService struct {
	userID uuid.UUID
}

func (m *stubAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.userID == uuid.Nil {
		return nil, "", errors.New("no token")
	}
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   m.userID.String(),
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	return claims, "test-token", nil
}

func newStubAuthMiddleware(userID uuid.UUID) *auth.Middleware {
	return auth.NewMiddleware(&stubAuthService{userID: userID}, zap.NewNop())
}

// noScope runs handlers without a database scope, as the memory driver does.
var noScope = database.WithScopeContext(nil, zap.NewNop())

// testInsightsReply is what the mock LLM answers for every upload.
const testInsightsReply = `[{"insight":"Scores average 85","impact":"Performance is strong"}]`

// newTestDatasetService wires the real pipeline to an in-memory store and a
// mock LLM.
func newTestDatasetService(t *testing.T, maxRows int) (services.DatasetService, *llm.MockLLMClient) {
	t.Helper()

	client := llm.NewMockLLMClient()
	client.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (*llm.GenerateResponseResult, error) {
		return &llm.GenerateResponseResult{Content: testInsightsReply}, nil
	}

	generator := insights.NewGenerator(client, insights.Config{RateLimit: 1000}, zap.NewNop())
	pipeline := services.NewPipeline(maxRows, generator, zap.NewNop())
	return services.NewDatasetService(pipeline, repositories.NewMemoryDatasetRepository(), zap.NewNop()), client
}
