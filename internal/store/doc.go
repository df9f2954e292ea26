// Package store defines interfaces for task persistence.
// These interfaces abstract the underlying storage engine from the
// lifecycle and scheduling logic, so PostgreSQL and SQLite backends
// can be swapped through configuration.
package store
