package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/handlers"
	"github.com/ekaya-inc/ekaya-insights/pkg/mcp"
	"github.com/ekaya-inc/ekaya-insights/pkg/middleware"
)

// shutdownTimeout bounds how long in-flight requests may drain on shutdown.
const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	migrate bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, root, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.migrate, "migrate", true, "apply database migrations before serving")
	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions, opts serveOptions) error {
	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.migrate && cfg.Storage.Driver == config.StorageDriverPostgres {
		if err := migrateUp(cfg, logger); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting ekaya-insights",
		zap.String("addr", server.Addr),
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Env),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("ai_provider", cfg.AI.ResolvedProvider()),
		zap.Bool("tls", cfg.TLSCertPath != ""))

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSCertPath != "" {
			err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", shutdownTimeout))

	// The signal context is already cancelled, so drain on a fresh one.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// newRouter registers every route on a fresh mux and wraps it with request
// logging.
func newRouter(a *app) http.Handler {
	mux := http.NewServeMux()
	authMiddleware := auth.NewMiddleware(a.requestAuth, a.logger.Named("auth"))
	scope := a.scope()

	handlers.NewHealthHandler(a.cfg, a.logger).RegisterRoutes(mux)

	handlers.NewAuthHandler(a.accountService, a.cfg.Auth.CookieSecure, a.logger.Named("auth")).
		RegisterRoutes(mux, authMiddleware, scope)

	handlers.NewUploadHandler(a.datasetService, handlers.UploadConfig{
		MaxBytes: a.cfg.Upload.MaxBytes,
		TempDir:  a.cfg.Upload.TempDir,
	}, a.logger.Named("upload")).RegisterRoutes(mux, authMiddleware, scope)

	handlers.NewDatasetsHandler(a.datasetService, a.logger.Named("datasets")).
		RegisterRoutes(mux, authMiddleware, scope)

	mcpServer := mcp.NewServer(a.cfg.Version, mcp.Deps{
		DatasetService: a.datasetService,
		AIProvider:     a.cfg.AI.ResolvedProvider(),
	}, a.logger)
	handlers.NewMCPHandler(mcpServer, a.logger.Named("mcp")).RegisterRoutes(mux, authMiddleware, scope)

	return middleware.RequestLogger(a.logger.Named("http"))(mux)
}
