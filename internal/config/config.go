// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the IBIZA_* environment into a Config.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/ibiza-nights/internal/scheduler"
)

// Datastore backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Env        string `env:"IBIZA_ENV" envDefault:"development"`
	LogLevel   string `env:"IBIZA_LOG_LEVEL" envDefault:"info"`
	ServerHost string `env:"IBIZA_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"IBIZA_SERVER_PORT" envDefault:"8080"`

	// Datastore configuration
	Backend            string `env:"IBIZA_BACKEND" envDefault:"sqlite"`
	DBPath             string `env:"IBIZA_DB_PATH" envDefault:"./data/ibiza.db"` // SQLite file
	DatabaseURL        string `env:"IBIZA_DATABASE_URL"`                         // PostgreSQL DSN
	SupabaseURL        string `env:"IBIZA_SUPABASE_URL"`
	SupabaseAnonKey    string `env:"IBIZA_SUPABASE_ANON_KEY"`    // public reads and submissions
	SupabaseServiceKey string `env:"IBIZA_SUPABASE_SERVICE_KEY"` // moderation, admin, seed

	// Cache configuration
	RedisURL     string `env:"IBIZA_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"IBIZA_CACHE_PREFIX" envDefault:"ibiza:"`  // Redis key prefix
	CacheTTL     int    `env:"IBIZA_CACHE_TTL" envDefault:"300"`        // Cache TTL in seconds
	CacheMaxSize int    `env:"IBIZA_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Scheduled jobs
	RefreshSchedule  string `env:"IBIZA_REFRESH_SCHEDULE" envDefault:"@every 5m"`
	PruneSchedule    string `env:"IBIZA_PRUNE_SCHEDULE" envDefault:"@daily"`
	LogRetentionDays int    `env:"IBIZA_LOG_RETENTION_DAYS" envDefault:"30"` // 0 keeps the event log forever

	// HTTP limits
	RequestTimeout int     `env:"IBIZA_REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RateLimitRPS   float64 `env:"IBIZA_RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"IBIZA_RATE_LIMIT_BURST" envDefault:"20"`

	// Bootstrap admin, ensured by seeding when the token is set
	AdminToken string `env:"IBIZA_ADMIN_TOKEN"`
	AdminEmail string `env:"IBIZA_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminName  string `env:"IBIZA_ADMIN_NAME" envDefault:"Administrator"`

	// Seeding configuration
	DoSeed bool `env:"IBIZA_DO_SEED" envDefault:"false"` // Seed on every start

	// Tracing
	OTelEndpoint    string  `env:"IBIZA_OTEL_ENDPOINT"`
	OTelSampleRatio float64 `env:"IBIZA_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if the application is running in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// TracingEnabled returns true if an OTLP endpoint is configured.
func (c Config) TracingEnabled() bool {
	return c.OTelEndpoint != ""
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// RequestTimeoutDuration returns the per-request timeout.
func (c Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// LogRetention returns how long event log entries are kept.
func (c Config) LogRetention() time.Duration {
	return time.Duration(c.LogRetentionDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("IBIZA_DB_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("IBIZA_DATABASE_URL is required for the postgres backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("the supabase backend requires IBIZA_SUPABASE_URL, " +
				"IBIZA_SUPABASE_ANON_KEY and IBIZA_SUPABASE_SERVICE_KEY")
		}
	default:
		return fmt.Errorf("IBIZA_BACKEND must be one of sqlite, postgres, supabase; got %q", c.Backend)
	}

	if err := scheduler.ValidateSchedule(c.RefreshSchedule); err != nil {
		return fmt.Errorf("IBIZA_REFRESH_SCHEDULE: %w", err)
	}
	if err := scheduler.ValidateSchedule(c.PruneSchedule); err != nil {
		return fmt.Errorf("IBIZA_PRUNE_SCHEDULE: %w", err)
	}

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("IBIZA_SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("IBIZA_REQUEST_TIMEOUT must be positive, got %d", c.RequestTimeout)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("IBIZA_RATE_LIMIT_RPS and IBIZA_RATE_LIMIT_BURST must be positive")
	}
	if c.LogRetentionDays < 0 {
		return fmt.Errorf("IBIZA_LOG_RETENTION_DAYS must not be negative, got %d", c.LogRetentionDays)
	}

	if c.IsProduction() && c.AdminToken != "" && len(c.AdminToken) < MinAdminTokenLength {
		return fmt.Errorf("IBIZA_ADMIN_TOKEN must be at least %d characters in production; "+
			"generate one with: openssl rand -hex 32", MinAdminTokenLength)
	}
	return nil
}

// MinAdminTokenLength is the minimum bootstrap admin token length enforced
// in production.
const MinAdminTokenLength = 32
