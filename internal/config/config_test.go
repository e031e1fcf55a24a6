// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Setenv(key, value)
}

// clearIbizaEnv unsets every IBIZA_ variable for the duration of the test.
func clearIbizaEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "IBIZA_") {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearIbizaEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendSQLite)
	}
	if cfg.DBPath != "./data/ibiza.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/ibiza.db")
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "localhost:8080")
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.RefreshSchedule != "@every 5m" {
		t.Errorf("RefreshSchedule = %q, want @every 5m", cfg.RefreshSchedule)
	}
	if cfg.CacheTTLDuration() != 5*time.Minute {
		t.Errorf("CacheTTLDuration() = %v, want 5m", cfg.CacheTTLDuration())
	}
	if cfg.LogRetention() != 30*24*time.Hour {
		t.Errorf("LogRetention() = %v, want 720h", cfg.LogRetention())
	}
	if cfg.UseRedisCache() || cfg.TracingEnabled() {
		t.Error("redis and tracing should be off by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearIbizaEnv(t)
	setEnv(t, "IBIZA_BACKEND", "Postgres")
	setEnv(t, "IBIZA_DATABASE_URL", "postgres://ibiza@localhost/ibiza?sslmode=disable")
	setEnv(t, "IBIZA_SERVER_HOST", "0.0.0.0")
	setEnv(t, "IBIZA_SERVER_PORT", "3000")
	setEnv(t, "IBIZA_ENV", "production")
	setEnv(t, "IBIZA_LOG_LEVEL", "debug")
	setEnv(t, "IBIZA_REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "IBIZA_REFRESH_SCHEDULE", "*/2 * * * *")
	setEnv(t, "IBIZA_OTEL_ENDPOINT", "http://collector:4318")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Backend != BackendPostgres {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendPostgres)
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if !cfg.IsProduction() {
		t.Errorf("Env = %q, want production", cfg.Env)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
	if !cfg.UseRedisCache() || !cfg.TracingEnabled() {
		t.Error("redis and tracing should be on")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown backend",
			env:     map[string]string{"IBIZA_BACKEND": "mysql"},
			wantErr: "IBIZA_BACKEND",
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"IBIZA_BACKEND": "postgres"},
			wantErr: "IBIZA_DATABASE_URL",
		},
		{
			name: "supabase missing service key",
			env: map[string]string{
				"IBIZA_BACKEND":           "supabase",
				"IBIZA_SUPABASE_URL":      "https://abc.supabase.co",
				"IBIZA_SUPABASE_ANON_KEY": "anon",
			},
			wantErr: "IBIZA_SUPABASE_SERVICE_KEY",
		},
		{
			name:    "bad refresh schedule",
			env:     map[string]string{"IBIZA_REFRESH_SCHEDULE": "every five minutes"},
			wantErr: "IBIZA_REFRESH_SCHEDULE",
		},
		{
			name:    "bad port",
			env:     map[string]string{"IBIZA_SERVER_PORT": "70000"},
			wantErr: "IBIZA_SERVER_PORT",
		},
		{
			name:    "non-numeric port",
			env:     map[string]string{"IBIZA_SERVER_PORT": "http"},
			wantErr: "parsing config",
		},
		{
			name:    "negative retention",
			env:     map[string]string{"IBIZA_LOG_RETENTION_DAYS": "-1"},
			wantErr: "IBIZA_LOG_RETENTION_DAYS",
		},
		{
			name:    "short admin token in production",
			env:     map[string]string{"IBIZA_ENV": "production", "IBIZA_ADMIN_TOKEN": "admin"},
			wantErr: "IBIZA_ADMIN_TOKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearIbizaEnv(t)
			for k, v := range tt.env {
				setEnv(t, k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
