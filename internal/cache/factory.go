// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Backend names a cache implementation.
type Backend string

// Cache backends.
const (
	CacheBackendMemory Backend = "memory"
	CacheBackendRedis  Backend = "redis"
)

// CacheConfig holds configuration for cache creation.
type CacheConfig struct {
	// Type is the requested backend: "memory" or "redis".
	Type string

	// RedisURL is the Redis connection URL (only for redis type).
	RedisURL string

	// Prefix is the key prefix for Redis (only for redis type).
	Prefix string

	// FallbackToMemory switches to the memory backend when Redis is
	// unreachable instead of failing.
	FallbackToMemory bool

	DefaultTTL      time.Duration
	MaxSize         int
	CleanupInterval time.Duration
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Type:             string(CacheBackendMemory),
		Prefix:           "ibiza:",
		FallbackToMemory: true,
		DefaultTTL:       5 * time.Minute,
		MaxSize:          10000,
		CleanupInterval:  time.Minute,
	}
}

// CacheResult describes the cache that was actually created.
type CacheResult struct {
	Cache       Cacher
	BackendType Backend
	// IsFallback is set when Redis was requested but memory is in use.
	IsFallback bool
	// FallbackErr is the Redis error that caused the fallback.
	FallbackErr error
}

// NewCacheWithInfo creates a cache and reports which backend is serving.
func NewCacheWithInfo(cfg CacheConfig) (CacheResult, error) {
	if cfg.Type == string(CacheBackendRedis) && cfg.RedisURL != "" {
		rc, err := NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			return CacheResult{Cache: rc, BackendType: CacheBackendRedis}, nil
		}
		if !cfg.FallbackToMemory {
			return CacheResult{}, fmt.Errorf("connecting to redis at %s: %w", SanitizeRedisURL(cfg.RedisURL), err)
		}
		return CacheResult{
			Cache:       newMemoryFromConfig(cfg),
			BackendType: CacheBackendMemory,
			IsFallback:  true,
			FallbackErr: err,
		}, nil
	}

	return CacheResult{Cache: newMemoryFromConfig(cfg), BackendType: CacheBackendMemory}, nil
}

func newMemoryFromConfig(cfg CacheConfig) *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})
}

// SanitizeRedisURL masks the password in a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || !strings.Contains(raw, "://") {
		return "[invalid URL]"
	}
	if u.User == nil {
		return u.String()
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
