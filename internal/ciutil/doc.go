// Package ciutil resolves test infrastructure settings from the environment,
// with CI-specific defaults for the PostgreSQL integration database.
package ciutil
