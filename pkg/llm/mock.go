package llm

import (
	"context"
	"sync"
)

// MockLLMClient is a configurable LLMClient for tests.
type MockLLMClient struct {
	// GenerateResponseFunc is called by GenerateResponse. If nil, an empty
	// result is returned.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	mu                    sync.Mutex
	generateResponseCalls int
	lastPrompt            string
}

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{Model: "mock-model"}
}

// GenerateResponse implements LLMClient.
func (m *MockLLMClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.generateResponseCalls++
	m.lastPrompt = prompt
	m.mu.Unlock()

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return &GenerateResponseResult{}, nil
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetProvider implements LLMClient.
func (m *MockLLMClient) GetProvider() string {
	return "mock"
}

// Calls returns how many times GenerateResponse was invoked.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateResponseCalls
}

// LastPrompt returns the prompt of the most recent call.
func (m *MockLLMClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

var _ LLMClient = (*MockLLMClient)(nil)
