// Package llm provides text-generation clients for the supported AI providers.
package llm

import (
	"context"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

// GenerateResponseResult holds a completion and its token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMClient defines the interface for text generation.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse sends prompt (with an optional system message) and
	// returns the model's reply.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetProvider returns the provider name, e.g. "openai".
	GetProvider() string
}
