// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// DefaultUpstreamURL is the chat-completion endpoint used when OPENAI_API_URL is unset.
const DefaultUpstreamURL = "https://api.openai.com/v1/chat/completions"

// Config holds all application configuration.
type Config struct {
	Port           string
	LogLevel       string
	DevMode        bool
	AllowedOrigins []string
	Upstream       UpstreamConfig
	RateLimit      RateLimitConfig
}

// UpstreamConfig describes the chat-completion API the gateway relays to.
type UpstreamConfig struct {
	APIKey string
	URL    string
}

// RateLimitConfig controls per-client throttling of /api/analyze.
// A zero RequestsPerMinute disables the limiter.
type RateLimitConfig struct {
	RequestsPerMinute int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvBool("DEV_MODE", false),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS"),
		Upstream: UpstreamConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			URL:    getEnv("OPENAI_API_URL", DefaultUpstreamURL),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Upstream.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY must be set")
	}
	u, err := url.Parse(c.Upstream.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("OPENAI_API_URL must be an absolute URL, got %q", c.Upstream.URL)
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RateLimitEnabled reports whether /api/analyze should be throttled.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimit.RequestsPerMinute > 0
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
