package cmd

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/database"
	"github.com/ekaya-inc/ekaya-insights/pkg/logging"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.Storage.Driver != config.StorageDriverPostgres {
				return fmt.Errorf("migrate requires STORAGE_DRIVER=postgres, got %q", cfg.Storage.Driver)
			}
			return migrateUp(cfg, logger)
		},
	}
}

// migrateUp applies pending migrations over a short-lived database/sql handle.
func migrateUp(cfg *config.Config, logger *zap.Logger) error {
	connStr := cfg.Database.ConnectionString()

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %s", logging.SanitizeError(err))
	}
	defer db.Close()

	logger.Info("Applying migrations", zap.String("database", logging.SanitizeConnectionString(connStr)))
	if err := database.RunMigrations(db, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %s", logging.SanitizeError(err))
	}
	return nil
}
