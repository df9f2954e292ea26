// Package postgres implements store.TaskStore on PostgreSQL using the pgx
// database/sql driver. The schema ships as embedded goose migrations.
package postgres
