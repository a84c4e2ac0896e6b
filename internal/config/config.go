package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig holds the Postgres DSN and connection pool limits.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`

	MaxOpenConns           int `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns           int `mapstructure:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetimeMinutes int `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// ConnMaxLifetime is zero when connections may be reused forever.
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMinutes) * time.Minute
}

// CacheConfig configures the on-disk validation cache.
type CacheConfig struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string `mapstructure:"path" validate:"required_unless=InMemory true"`
	InMemory bool   `mapstructure:"in_memory"`

	ValidationTTLSeconds int `mapstructure:"validation_ttl_seconds" validate:"required,gt=0"`
	DraftTTLSeconds      int `mapstructure:"draft_ttl_seconds" validate:"required,gt=0"`
}

// ValidationTTL returns the lifetime of a cached validation result.
func (c CacheConfig) ValidationTTL() time.Duration {
	return time.Duration(c.ValidationTTLSeconds) * time.Second
}

// DraftTTL returns the lifetime of a stored plan draft.
func (c CacheConfig) DraftTTL() time.Duration {
	return time.Duration(c.DraftTTLSeconds) * time.Second
}

// TaskConfig contains the background validation job settings.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize           int `mapstructure:"queue_size" validate:"required,gt=0"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"required,gt=0"`
}

// TracingConfig selects the OpenTelemetry span exporter.
type TracingConfig struct {
	// Exporter is none, stdout or otlp.
	Exporter     string  `mapstructure:"exporter" validate:"oneof=none stdout otlp"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" validate:"required_if=Exporter otlp"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
	ServiceName  string  `mapstructure:"service_name" validate:"required"`
}
