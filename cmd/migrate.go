package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/employee-directory/db"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations",
	}
	migrateRollback bool
	migrateStatus   bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print applied and pending migrations")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	sqlDB, err := goose.OpenDBWithDriver("pgx", cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(db.Migrations)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch {
	case migrateStatus:
		return goose.StatusContext(ctx, sqlDB, db.MigrationsDir)
	case migrateRollback:
		if err := goose.DownContext(ctx, sqlDB, db.MigrationsDir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		slog.Info("rolled back latest migration")
	default:
		if err := goose.UpContext(ctx, sqlDB, db.MigrationsDir); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		slog.Info("migrations applied")
	}
	return nil
}
