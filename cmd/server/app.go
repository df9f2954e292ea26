package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskdue/internal/config"
	"github.com/phrazzld/taskdue/internal/events"
	"github.com/phrazzld/taskdue/internal/scheduler"
	"github.com/phrazzld/taskdue/internal/service"
	"github.com/phrazzld/taskdue/internal/store"
)

// schedulerStopTimeout bounds how long shutdown waits for running
// completion handlers.
const schedulerStopTimeout = 2 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	taskStore store.TaskStore
	closeDB   func() error

	scheduler    *scheduler.Scheduler
	eventEmitter *events.InMemoryEventEmitter
	taskService  service.TaskService
	recovery     *service.RecoveryCoordinator

	exitCode int
}

// newApplication opens the store, wires the services, runs recovery and
// starts the scheduler. Only a store that cannot be opened or read is fatal.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.taskStore, app.closeDB, err = openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open task store: %w", err)
	}

	app.scheduler = scheduler.New(scheduler.Config{
		WorkerCount: cfg.Scheduler.WorkerCount,
		QueueSize:   cfg.Scheduler.QueueSize,
	}, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLoggingHandler(logger))

	app.taskService, err = service.NewTaskService(app.taskStore, app.scheduler, app.eventEmitter, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}
	app.scheduler.SetHandler(app.taskService.HandleScheduledCompletion)

	app.recovery, err = service.NewRecoveryCoordinator(app.taskStore, app.taskService, app.scheduler, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create recovery coordinator: %w", err)
	}

	if _, err := app.recovery.Run(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	if err := app.scheduler.Start(); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	return app, nil
}

// shutdown stops the scheduler and closes the store. The scheduler gets at
// most schedulerStopTimeout; handlers still running after that are abandoned.
func (app *application) shutdown(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, schedulerStopTimeout)
	defer cancel()

	var errs []error
	if err := app.scheduler.Stop(stopCtx); err != nil {
		app.logger.Warn("scheduler did not stop cleanly", "error", err)
		errs = append(errs, err)
	}
	if err := app.closeDB(); err != nil {
		app.logger.Error("failed to close database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// cleanup releases what newApplication acquired before it failed.
func (app *application) cleanup() {
	if app.closeDB != nil {
		if err := app.closeDB(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
