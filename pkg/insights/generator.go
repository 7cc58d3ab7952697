package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ekaya-inc/ekaya-insights/pkg/llm"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/retry"
)

// Defaults applied when Config fields are zero.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultTemperature = 0.7
	DefaultRateLimit   = 2.0
)

// Config tunes a Generator.
type Config struct {
	// Timeout bounds a whole Generate call including retries.
	Timeout time.Duration
	// Temperature is passed to the provider.
	Temperature float64
	// RateLimit caps provider calls per second. Zero uses DefaultRateLimit.
	RateLimit float64
	// Retry controls backoff for retryable provider errors. Nil disables retries.
	Retry *retry.Config
	// CircuitBreaker configures the breaker guarding the provider.
	CircuitBreaker llm.CircuitBreakerConfig
}

// Generator turns column summaries into insights. It never fails: provider
// problems are reported through fallback insights.
type Generator interface {
	Generate(ctx context.Context, summary []models.ColumnSummary) []models.Insight
	// Classify runs the provider call and returns the raw outcome.
	Classify(ctx context.Context, summary []models.ColumnSummary) Outcome
}

type generator struct {
	client      llm.LLMClient
	limiter     *rate.Limiter
	breaker     *llm.CircuitBreaker
	retryConfig *retry.Config
	timeout     time.Duration
	temperature float64
	logger      *zap.Logger
}

// NewGenerator creates a Generator backed by client.
func NewGenerator(client llm.LLMClient, cfg Config, logger *zap.Logger) Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.CircuitBreaker.ResetAfter <= 0 {
		cfg.CircuitBreaker = llm.DefaultCircuitBreakerConfig()
	}

	return &generator{
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		breaker:     llm.NewCircuitBreaker(cfg.CircuitBreaker),
		retryConfig: cfg.Retry,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
		logger:      logger.Named("insights"),
	}
}

func (g *generator) Generate(ctx context.Context, summary []models.ColumnSummary) []models.Insight {
	return Insights(g.Classify(ctx, summary))
}

func (g *generator) Classify(ctx context.Context, summary []models.ColumnSummary) Outcome {
	prompt, err := BuildPrompt(summary)
	if err != nil {
		g.logger.Error("Failed to build insight prompt", zap.Error(err))
		return ServiceError{Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.complete(ctx, prompt)
	if err != nil {
		g.logger.Warn("AI insight generation failed, using fallback",
			zap.String("provider", g.client.GetProvider()),
			zap.String("model", g.client.GetModel()),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.Error(err))
		return ServiceError{Err: err}
	}

	outcome := ParseReply(text)
	if _, ok := outcome.(RawText); ok {
		g.logger.Warn("AI returned invalid JSON, falling back to raw text",
			zap.Int("response_len", len(text)))
	}
	return outcome
}

// complete runs one guarded provider call, retrying retryable failures
// inside the caller's deadline.
func (g *generator) complete(ctx context.Context, prompt string) (string, error) {
	if err := g.breaker.Allow(); err != nil {
		return "", err
	}

	call := func() (string, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
		result, err := g.client.GenerateResponse(ctx, prompt, systemMessage, g.temperature)
		if err != nil {
			return "", err
		}
		if result == nil {
			return "", nil
		}
		return result.Content, nil
	}

	var (
		text string
		err  error
	)
	if g.retryConfig != nil {
		text, err = retry.DoIfRetryable(ctx, g.retryConfig, call)
	} else {
		text, err = call()
	}

	if err != nil {
		// Configuration errors say nothing about provider health.
		if !errors.Is(err, llm.ErrDisabled) {
			g.breaker.RecordFailure()
		}
		return "", err
	}

	g.breaker.RecordSuccess()
	return text, nil
}
