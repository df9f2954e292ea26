// Package config loads and validates taskdue settings from environment
// variables and an optional config.yaml file.
package config
