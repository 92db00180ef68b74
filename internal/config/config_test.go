package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"ANYROUTER_BASE_URL", "ANYROUTER_TIMEOUT", "ANYROUTER_MAX_RETRIES",
		"ANYROUTER_RETRY_BASE_DELAY", "ANYROUTER_MAX_CONCURRENT", "ANYROUTER_HEADLESS",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "https://anyrouter.top", cfg.BaseURL)
	assert.Equal(t, "https://anyrouter.top/login", cfg.LoginURL())
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, float64(500_000), cfg.QuotaScale)
	assert.Equal(t, 0, cfg.MaxConcurrent)
	assert.False(t, cfg.Headless)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ANYROUTER_BASE_URL", "http://127.0.0.1:8080")
	t.Setenv("ANYROUTER_TIMEOUT", "5s")
	t.Setenv("ANYROUTER_MAX_RETRIES", "1")
	t.Setenv("ANYROUTER_MAX_CONCURRENT", "4")
	t.Setenv("ANYROUTER_HEADLESS", "true")

	cfg := FromEnv()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.BaseURL)
	assert.Equal(t, "http://127.0.0.1:8080/login", cfg.LoginURL())
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.True(t, cfg.Headless)
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("ANYROUTER_TIMEOUT", "not-a-duration")
	t.Setenv("ANYROUTER_MAX_RETRIES", "-2")
	t.Setenv("ANYROUTER_HEADLESS", "maybe")

	cfg := FromEnv()

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.False(t, cfg.Headless)
}
