package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Default models per provider.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// ErrDisabled is returned by the client used when no provider is configured.
var ErrDisabled = errors.New("AI provider is not configured")

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider string // openai, anthropic, gemini or none
	Model    string // optional; provider default when empty
	APIKey   string
	BaseURL  string // optional override, e.g. an OpenAI-compatible gateway
}

func (c *Config) modelOrDefault() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.provider() {
	case ProviderAnthropic:
		return DefaultAnthropicModel
	case ProviderGemini:
		return DefaultGeminiModel
	default:
		return DefaultOpenAIModel
	}
}

func (c *Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderOpenAI
	}
	return p
}

// NewClient creates the client selected by cfg.Provider.
func NewClient(ctx context.Context, cfg *Config, logger *zap.Logger) (LLMClient, error) {
	switch cfg.provider() {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	case ProviderNone:
		return NewDisabledClient(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// DisabledClient fails every request with ErrDisabled.
type DisabledClient struct{}

// NewDisabledClient returns a client that never reaches a provider.
func NewDisabledClient() *DisabledClient {
	return &DisabledClient{}
}

// GenerateResponse always returns ErrDisabled.
func (c *DisabledClient) GenerateResponse(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	return nil, NewError(ErrorTypeConfig, "no AI provider configured", false, ErrDisabled)
}

// GetModel returns an empty model name.
func (c *DisabledClient) GetModel() string {
	return ""
}

// GetProvider returns ProviderNone.
func (c *DisabledClient) GetProvider() string {
	return ProviderNone
}

var _ LLMClient = (*DisabledClient)(nil)
