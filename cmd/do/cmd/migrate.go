package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goalbuddy/server/internal/config"
	"github.com/goalbuddy/server/internal/db"
	"github.com/goalbuddy/server/internal/logger"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect database migrations",
	}

	cmd.AddCommand(migrateSubCmd("up", "Apply all pending migrations", db.RunMigrations))
	cmd.AddCommand(migrateSubCmd("down", "Roll back the most recent migration", db.MigrateDown))
	cmd.AddCommand(migrateSubCmd("status", "Show applied and pending migrations", db.MigrationStatus))
	return cmd
}

func migrateSubCmd(use, short string, run func(database *sql.DB, driver string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

			database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close(database)

			return run(database.DB, cfg.DBDriver)
		},
	}
}
