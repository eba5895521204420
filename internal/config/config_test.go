package config

import (
	"testing"
	"time"

	"github.com/whalefeed/whalefeed/internal/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WHALEFEED_QUERY_ENDPOINT", "https://api.example.com/api/transactions")
	t.Setenv("WHALEFEED_FEED_ENDPOINT", "wss://feed.example.com/socket")
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 20, cfg.PageSize)
		assert.Equal(t, 100*time.Millisecond, cfg.FilterDebounce)
		assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
		assert.False(t, cfg.TelemetryEnabled)
		assert.Equal(t, "whalefeed", cfg.ServiceName)
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WHALEFEED_LOG_LEVEL", "debug")
		t.Setenv("WHALEFEED_PAGE_SIZE", "50")
		t.Setenv("WHALEFEED_REDIS_ADDR", "localhost:6379")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 50, cfg.PageSize)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	})

	t.Run("fails when a required endpoint is missing", func(t *testing.T) {
		t.Setenv("WHALEFEED_QUERY_ENDPOINT", "https://api.example.com")
		t.Setenv("WHALEFEED_FEED_ENDPOINT", "")

		_, err := Load()

		assert.Error(t, err)
	})

	t.Run("rejects an invalid log level", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WHALEFEED_LOG_LEVEL", "loud")

		_, err := Load()

		assert.ErrorIs(t, err, validation.ErrValidationFailed)
	})
}
