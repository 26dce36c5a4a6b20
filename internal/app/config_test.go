package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CSRF_SECRET", "csrf")
	unsetenv(t, "API_RATE_LIMIT", "APP_ENV", "APP_ADDR", "LIVE_POLL_INTERVAL", "WEBHOOK_TIMEOUT", "WEBHOOK_ASYNC")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 120, cfg.APIRateLimit)
	assert.Equal(t, 10*time.Second, cfg.LivePollInterval)
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout)
	assert.False(t, cfg.WebhookAsync)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "csrf")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsRateLimit(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("API_RATE_LIMIT", "0")

	_, err := LoadConfig()
	assert.EqualError(t, err, "API_RATE_LIMIT must be positive")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel(&Config{LogLevel: "debug"}).String())
	assert.Equal(t, "INFO", parseLevel(nil).String())
	assert.Equal(t, "WARN", parseLevel(&Config{LogLevel: "WARN"}).String())
}

// unsetenv clears keys for the test and restores them afterwards.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}
