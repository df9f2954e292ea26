// Package service holds the task lifecycle use cases.
//
// TaskService is the only path that creates, completes or deletes tasks; the
// HTTP API, the scheduler handler and recovery all go through it.
// RecoveryCoordinator runs once at startup and turns the stored scheduled
// completions back into scheduler jobs.
package service
