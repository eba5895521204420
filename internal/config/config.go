// Package config loads the application configuration from environment
// variables and validates it before anything else starts.
package config

import (
	"time"

	"github.com/whalefeed/whalefeed/internal/pkg/validation"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces every environment variable, e.g. WHALEFEED_LOG_LEVEL.
const envPrefix = "whalefeed"

// Config is the full application configuration.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// QueryEndpoint is the base URL of the whale-transaction REST query
	// service, including its path.
	QueryEndpoint string `envconfig:"QUERY_ENDPOINT" required:"true" validate:"url"`

	// FeedEndpoint is the WebSocket URL of the live transaction feed.
	FeedEndpoint string `envconfig:"FEED_ENDPOINT" required:"true" validate:"url"`

	// HTTPTimeout bounds a single query request, retries included per attempt.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// PageSize is the fixed number of transactions per page.
	PageSize int `envconfig:"PAGE_SIZE" default:"20" validate:"gt=0"`

	// FilterDebounce absorbs rapid filter edits before refetching.
	FilterDebounce time.Duration `envconfig:"FILTER_DEBOUNCE" default:"100ms"`

	// Redis persists the active filter predicate across restarts. Leaving
	// the address empty disables persistence; filters are then
	// process-local.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// TelemetryEnabled turns on OTLP metrics and traces export.
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`
	ServiceName      string `envconfig:"SERVICE_NAME" default:"whalefeed"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}

	if err := validation.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
