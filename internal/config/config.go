package config

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1,lte=300"`
}

// DatabaseConfig selects and configures the task store backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	// URL is the PostgreSQL connection string; only used by the postgres driver.
	URL string `mapstructure:"url" validate:"required_if=Driver postgres"`
	// Path is the SQLite database file; only used by the sqlite driver.
	Path string `mapstructure:"path" validate:"required_if=Driver sqlite"`
}

// SchedulerConfig tunes the completion scheduler.
type SchedulerConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1,lte=64"`
	QueueSize   int `mapstructure:"queue_size" validate:"gte=1"`
}
