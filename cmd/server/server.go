package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

// startHTTPServer serves the API until SIGINT or SIGTERM, then shuts the
// HTTP server down followed by the scheduler and the store. It returns an
// error only when the server cannot serve at all.
func (app *application) startHTTPServer() error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	timeout := time.Duration(app.config.Server.ShutdownTimeoutSeconds) * time.Second
	wait := gfshutdown.GracefulShutdown(context.Background(), timeout, map[string]gfshutdown.Operation{
		"application": func(ctx context.Context) error {
			app.logger.Info("Shutting down server...")
			if err := server.Shutdown(ctx); err != nil {
				app.logger.Error("Server shutdown failed", "error", err)
			}
			return app.shutdown(ctx)
		},
	})

	select {
	case err := <-serveErr:
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = app.shutdown(ctx)
		return err
	case app.exitCode = <-wait:
		app.logger.Info("Server shutdown completed", "exit_code", app.exitCode)
		return nil
	}
}
