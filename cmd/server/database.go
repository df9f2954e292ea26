package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskdue/internal/ciutil"
	"github.com/phrazzld/taskdue/internal/config"
	"github.com/phrazzld/taskdue/internal/platform/postgres"
	"github.com/phrazzld/taskdue/internal/platform/sqlite"
	"github.com/phrazzld/taskdue/internal/store"
)

// openStore opens the configured backend, brings its schema up to date and
// returns the store with a function that releases the connection.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (store.TaskStore, func() error, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite database opened", "path", cfg.Path)
		return sqlite.NewSQLiteTaskStore(db, logger), func() error { return sqlite.Close(db) }, nil

	case "postgres":
		db, err := postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db, "up", logger); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("postgres database opened", "url", ciutil.MaskSensitiveValue(cfg.URL))
		return postgres.NewPostgresTaskStore(db, logger), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// runMigrations handles the -migrate flag. SQLite only supports "up",
// which is also applied on every start.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, command, logger)

	case "sqlite":
		if command != "up" {
			return fmt.Errorf("migration command %q is not supported for sqlite", command)
		}
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		logger.Info("sqlite schema is up to date", "path", cfg.Database.Path)
		return sqlite.Close(db)

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
