package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/places-api/internal/config"
	"github.com/redmonkez12/places-api/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations to the PostgreSQL database configured through DB_* variables.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate requires DB_DRIVER=%s, got %q", config.DriverPostgres, cfg.Database.Driver)
	}

	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := database.Migrate(ctx, db.DB); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
