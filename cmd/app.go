package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/database"
	"github.com/ekaya-inc/ekaya-insights/pkg/insights"
	"github.com/ekaya-inc/ekaya-insights/pkg/llm"
	"github.com/ekaya-inc/ekaya-insights/pkg/logging"
	"github.com/ekaya-inc/ekaya-insights/pkg/repositories"
	"github.com/ekaya-inc/ekaya-insights/pkg/retry"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// app holds the long-lived components shared by the HTTP routes.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	db    *database.DB // nil with the memory storage driver
	redis *redis.Client

	datasetService services.DatasetService
	accountService services.AuthService
	requestAuth    auth.AuthService
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	var (
		datasetRepo repositories.DatasetRepository
		userRepo    repositories.UserRepository
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		datasetRepo = repositories.NewMemoryDatasetRepository()
		userRepo = repositories.NewMemoryUserRepository()
	default:
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.db = db
		datasetRepo = repositories.NewDatasetRepository()
		userRepo = repositories.NewUserRepository()
	}

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to connect to redis: %s", logging.SanitizeError(err))
	}
	a.redis = redisClient

	var revocation auth.RevocationStore
	if redisClient != nil {
		revocation = auth.NewRedisRevocationStore(redisClient)
	} else {
		revocation = auth.NewMemoryRevocationStore()
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		a.Close()
		return nil, err
	}

	generator, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	pipeline := services.NewPipeline(cfg.Upload.MaxRows, generator, logger)
	a.datasetService = services.NewDatasetService(pipeline, datasetRepo, logger)
	a.accountService = services.NewAuthService(userRepo, tokens, revocation, logger)
	a.requestAuth = auth.NewAuthService(tokens, revocation, logger.Named("auth"))

	return a, nil
}

// scope returns the per-request database scope middleware. It passes requests
// straight through with the memory driver.
func (a *app) scope() func(http.HandlerFunc) http.HandlerFunc {
	return database.WithScopeContext(a.db, a.logger)
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db, err := database.NewConnection(connCtx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %s", logging.SanitizeError(err))
	}
	return db, nil
}

// newGenerator builds the insight generator for the configured AI provider.
func newGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (insights.Generator, error) {
	provider := cfg.AI.ResolvedProvider()
	client, err := llm.NewClient(ctx, &llm.Config{
		Provider: provider,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey(),
		BaseURL:  config.ResolveURLForDocker(cfg.AI.BaseURL),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	var retryConfig *retry.Config
	if cfg.AI.MaxRetries > 0 {
		retryConfig = retry.DefaultConfig()
		retryConfig.MaxRetries = cfg.AI.MaxRetries
	}

	if provider == llm.ProviderNone {
		logger.Warn("No AI provider configured; uploads will store a fallback insight")
	} else {
		logger.Info("AI insights enabled",
			zap.String("provider", client.GetProvider()),
			zap.String("model", client.GetModel()))
	}

	return insights.NewGenerator(client, insights.Config{
		Timeout:     cfg.AI.Timeout,
		Temperature: cfg.AI.Temperature,
		RateLimit:   cfg.AI.RateLimitRPS,
		Retry:       retryConfig,
	}, logger), nil
}
