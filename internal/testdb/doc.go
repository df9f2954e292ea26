// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database.
//
// Tests call GetTestDBWithT, which skips the test unless DATABASE_URL (or
// TASKDUE_TEST_DB_URL) is set, applies the embedded migrations and registers
// cleanup. ResetTasks empties the tasks table between tests, so tests using
// it must not run in parallel.
package testdb
