// Package cmd implements the ekaya-insights command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/logging"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	version    string
	configPath string
	logLevel   string
}

// Execute is the entry point called by main.main().
func Execute(version string) {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	root := &cobra.Command{
		Use:           "ekaya-insights",
		Short:         "Upload CSV files and get column statistics with AI insights",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running the bare binary starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, serveOptions{migrate: true})
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultConfigPath, "optional YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newAnalyzeCmd(opts),
	)
	return root
}

// load reads configuration and builds the logger for a subcommand.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFrom(o.configPath, o.version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env, o.logLevel)
	if err != nil {
		return nil, nil, err
	}

	if cfg.UsingDevSecret {
		logger.Warn("JWT_SECRET is not set; using the local development secret")
	}
	return cfg, logger, nil
}
