package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient talks to the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiClient creates a client for cfg.
func NewGeminiClient(ctx context.Context, cfg *Config, logger *zap.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.modelOrDefault(),
		logger: logger.Named("llm.gemini"),
	}, nil
}

// GenerateResponse generates content for a single prompt.
func (c *GeminiClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (*GenerateResponseResult, error) {
	config := &genai.GenerateContentConfig{
		CandidateCount: 1,
		Temperature:    genai.Ptr(float32(temperature)),
	}
	if systemMessage != "" {
		config.SystemInstruction = genai.NewContentFromText(systemMessage, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, classifyGeminiError(err, c.model)
	}

	result := &GenerateResponseResult{Content: strings.TrimSpace(resp.Text())}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// GetModel returns the configured model name.
func (c *GeminiClient) GetModel() string {
	return c.model
}

// GetProvider returns ProviderGemini.
func (c *GeminiClient) GetProvider() string {
	return ProviderGemini
}

func classifyGeminiError(err error, model string) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(err, apiErr.Code, model, "")
	}
	return ClassifyError(err)
}

var _ LLMClient = (*GeminiClient)(nil)
