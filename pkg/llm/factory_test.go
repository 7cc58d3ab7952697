package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfig_ModelOrDefault(t *testing.T) {
	tests := []struct {
		cfg      Config
		expected string
	}{
		{Config{}, DefaultOpenAIModel},
		{Config{Provider: "OpenAI"}, DefaultOpenAIModel},
		{Config{Provider: "anthropic"}, DefaultAnthropicModel},
		{Config{Provider: " gemini "}, DefaultGeminiModel},
		{Config{Provider: "openai", Model: "gpt-4.1"}, "gpt-4.1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.cfg.modelOrDefault(), "provider %q", tt.cfg.Provider)
	}
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	client, err := NewClient(ctx, &Config{APIKey: "sk-test"}, logger)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, client.GetProvider())
	assert.Equal(t, DefaultOpenAIModel, client.GetModel())

	client, err = NewClient(ctx, &Config{Provider: "anthropic", APIKey: "key"}, logger)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, client.GetProvider())

	client, err = NewClient(ctx, &Config{Provider: "none"}, logger)
	require.NoError(t, err)
	assert.Equal(t, ProviderNone, client.GetProvider())

	_, err = NewClient(ctx, &Config{Provider: "watson"}, logger)
	assert.ErrorContains(t, err, "unknown AI provider")

	_, err = NewClient(ctx, &Config{Provider: "openai"}, logger)
	assert.Error(t, err, "openai without key or base URL")
}

func TestDisabledClient(t *testing.T) {
	_, err := NewDisabledClient().GenerateResponse(context.Background(), "p", "", 0.7)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, ErrorTypeConfig, GetErrorType(err))
	assert.False(t, IsRetryable(err))
}
