// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	t.Helper()
	url := os.Getenv("DOSE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: DOSE_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache_Basic(t *testing.T) {
	url := skipIfNoRedis(t)

	c, err := NewRedisCache(RedisOptions{URL: url, Prefix: "dose-test:", DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	_ = c.Clear(ctx)

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	_ = c.Set(ctx, "category:memes", []byte("x"), 0)
	if err := c.DeleteByPrefix(ctx, "category:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}
	if has, _ := c.Has(ctx, "category:memes"); has {
		t.Error("prefixed key should be deleted")
	}

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Clear error = %v, want ErrCacheMiss", err)
	}

	_ = c.Close()
	if err := c.Set(ctx, "k", []byte("v"), 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set after Close error = %v, want ErrCacheClosed", err)
	}
}

func TestRedisCache_InvalidURL(t *testing.T) {
	if _, err := NewRedisCache(RedisOptions{URL: "not-a-url"}); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestRedisCache_EmptyURL(t *testing.T) {
	if _, err := NewRedisCache(RedisOptions{}); err == nil {
		t.Error("expected error for empty URL")
	}
}
