package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	// ComparisonCacheTTL bounds how long a computed comparison sheet may
	// be served from Redis before being recomputed.
	ComparisonCacheTTL time.Duration
	// QueueRedisPrefix namespaces recompute queue keys.
	QueueRedisPrefix string
	QueueMaxAttempts int
	QueueVisibility  time.Duration

	ComputeRateWindow time.Duration
	ComputeRateMax    int

	ListDefaultPerPage int
	ListMaxPerPage     int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		ComparisonCacheTTL: parseDuration(k.String("COMPARISON_CACHE_TTL"), "5m"),
		QueueRedisPrefix:   valueOrDefault(k.String("QUEUE_REDIS_PREFIX"), "procure"),
		QueueMaxAttempts:   parseInt(k.String("QUEUE_MAX_ATTEMPTS"), 5),
		QueueVisibility:    parseDuration(k.String("QUEUE_VISIBILITY_TIMEOUT"), "30s"),
		ComputeRateWindow:  parseDuration(k.String("COMPUTE_RATE_WINDOW"), "1m"),
		ComputeRateMax:     parseInt(k.String("COMPUTE_RATE_MAX"), 120),
		ListDefaultPerPage: parseInt(k.String("LIST_DEFAULT_PER_PAGE"), 20),
		ListMaxPerPage:     parseInt(k.String("LIST_MAX_PER_PAGE"), 100),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(trimmed, "%d", &n); err != nil {
		return fallback
	}
	return n
}
