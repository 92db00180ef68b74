// Package config builds the immutable runtime configuration. Every service
// constant lives here and is passed explicitly into the components that need
// it; nothing reads the environment after startup.
package config

import (
	"os"
	"strconv"
	"time"
)

const (
	defaultBaseURL   = "https://anyrouter.top"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"

	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = time.Second
	defaultQuotaScale     = 500_000

	defaultReadyTimeout  = 5 * time.Second
	defaultReadyFallback = 3 * time.Second
)

// Runtime holds every knob the check-in engine needs. Built once in wireApp.
type Runtime struct {
	BaseURL   string
	UserAgent string

	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	QuotaScale     float64

	// ReadyTimeout bounds the page-readiness wait during WAF harvesting;
	// ReadyFallback is the fixed sleep used when that wait times out.
	ReadyTimeout  time.Duration
	ReadyFallback time.Duration

	// MaxConcurrent caps the check-in phase; 0 means one goroutine per
	// account.
	MaxConcurrent int
	Headless      bool
	Debug         bool
	SkipNotify    bool
}

// FromEnv reads ANYROUTER_* overrides on top of the service defaults.
func FromEnv() Runtime {
	return Runtime{
		BaseURL:        envOrDefault("ANYROUTER_BASE_URL", defaultBaseURL),
		UserAgent:      envOrDefault("ANYROUTER_USER_AGENT", defaultUserAgent),
		Timeout:        envDuration("ANYROUTER_TIMEOUT", defaultTimeout),
		MaxRetries:     envInt("ANYROUTER_MAX_RETRIES", defaultMaxRetries),
		RetryBaseDelay: envDuration("ANYROUTER_RETRY_BASE_DELAY", defaultRetryBaseDelay),
		QuotaScale:     defaultQuotaScale,
		ReadyTimeout:   defaultReadyTimeout,
		ReadyFallback:  defaultReadyFallback,
		MaxConcurrent:  envInt("ANYROUTER_MAX_CONCURRENT", 0),
		Headless:       envBool("ANYROUTER_HEADLESS", false),
		Debug:          envBool("ANYROUTER_DEBUG", false),
	}
}

// LoginURL is the page whose load primes the WAF cookies.
func (r Runtime) LoginURL() string {
	return r.BaseURL + "/login"
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
