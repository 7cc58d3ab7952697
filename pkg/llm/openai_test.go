package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewOpenAIClient(&Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestOpenAIClient_GenerateResponse(t *testing.T) {
	var received struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  [{\"insight\": \"x\"}]  "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	})

	result, err := client.GenerateResponse(context.Background(), "analyze", "be brief", 0.7)
	require.NoError(t, err)

	assert.Equal(t, `[{"insight": "x"}]`, result.Content)
	assert.Equal(t, 12, result.PromptTokens)
	assert.Equal(t, 5, result.CompletionTokens)
	assert.Equal(t, 17, result.TotalTokens)

	assert.Equal(t, DefaultOpenAIModel, received.Model)
	assert.InDelta(t, 0.7, received.Temperature, 0.001)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, "system", received.Messages[0].Role)
	assert.Equal(t, "user", received.Messages[1].Role)
	assert.Equal(t, "analyze", received.Messages[1].Content)
}

func TestOpenAIClient_GenerateResponse_NoSystemMessage(t *testing.T) {
	var roles []string
	client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, m := range body.Messages {
			roles = append(roles, m.Role)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`))
	})

	_, err := client.GenerateResponse(context.Background(), "p", "", 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, roles)
}

func TestOpenAIClient_GenerateResponse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantType  ErrorType
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": {"message": "Incorrect API key", "type": "invalid_request_error"}}`, ErrorTypeAuth, false},
		{"rate limited", http.StatusTooManyRequests, `{"error": {"message": "Rate limit reached", "type": "requests"}}`, ErrorTypeRateLimit, true},
		{"server error", http.StatusInternalServerError, `{"error": {"message": "boom", "type": "server_error"}}`, ErrorTypeEndpoint, true},
		{"no choices", http.StatusOK, `{"choices": []}`, ErrorTypeResponse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GenerateResponse(context.Background(), "p", "", 0.7)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, GetErrorType(err))
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestOpenAIClient_RequiresCredentials(t *testing.T) {
	_, err := NewOpenAIClient(&Config{}, zap.NewNop())
	assert.Error(t, err)
}
