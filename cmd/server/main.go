// Package main runs the taskdue HTTP server: a task list whose entries can
// complete themselves at a scheduled date and time.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/phrazzld/taskdue/internal/config"
	"github.com/phrazzld/taskdue/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run database migrations (up, down, status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"worker_count", cfg.Scheduler.WorkerCount)

	ctx := context.Background()

	if *migrateCmd != "" {
		if err := runMigrations(ctx, cfg, *migrateCmd, appLogger); err != nil {
			appLogger.Error("migration failed", "command", *migrateCmd, "error", err)
			os.Exit(1)
		}
		return
	}

	os.Exit(run(ctx, cfg, appLogger))
}

// run builds the application and serves until a shutdown signal arrives.
// It returns the process exit code.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		return 1
	}

	if err := app.startHTTPServer(); err != nil {
		logger.Error("server failed", "error", err)
		return 1
	}
	return app.exitCode
}
