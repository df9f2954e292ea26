// Package sqlite implements store.TaskStore on an embedded SQLite database
// using gorm. It is the default backend for single-machine deployments.
package sqlite
