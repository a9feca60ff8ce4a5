// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// Type is the cache backend type: "memory" or "redis"
	Type string

	// RedisURL is the Redis connection URL (only for redis type)
	// Example: redis://localhost:6379/0
	RedisURL string

	// KeyPrefix is the key prefix for Redis (only for redis type)
	KeyPrefix string

	// DefaultTTL is the default TTL for cache entries
	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for memory cache (0 = unlimited)
	MaxSize int

	// CleanupInterval is the interval for expired entry cleanup
	CleanupInterval time.Duration
}

// DefaultConfig returns the default in-memory cache configuration.
func DefaultConfig() Config {
	return Config{
		Type:            TypeMemory,
		DefaultTTL:      5 * time.Minute,
		MaxSize:         1000,
		CleanupInterval: time.Minute,
	}
}

// NewCache creates a cache based on the provided configuration.
// A Redis backend that cannot be reached falls back to memory so that the
// public site keeps serving.
func NewCache(cfg Config) (Cache, error) {
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}

	switch cfg.Type {
	case TypeRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis cache requires a URL")
		}
		rc, err := NewRedisCache(RedisOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.KeyPrefix,
			DefaultTTL: cfg.DefaultTTL,
		})
		if err == nil {
			return rc, nil
		}
		slog.Warn("redis cache unavailable, using memory cache",
			"url", SanitizeRedisURL(cfg.RedisURL), "error", err)
	case TypeMemory, "":
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	}), nil
}

// SanitizeRedisURL masks the password in a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
