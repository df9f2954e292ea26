// Package logger provides structured logging for the task service.
//
// It builds a log/slog JSON logger with a configurable level and offers
// helpers for carrying request- or component-scoped loggers through a
// context.Context.
package logger
