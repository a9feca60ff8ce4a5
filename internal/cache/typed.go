// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache provides type-safe caching operations using generics.
// Values are stored as JSON so any Cache backend can hold them.
type TypedCache[T any] struct {
	cache      Cache
	prefix     string
	defaultTTL time.Duration
}

// NewTypedCache creates a TypedCache whose keys are namespaced by prefix.
func NewTypedCache[T any](c Cache, prefix string, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{
		cache:      c,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value from the cache.
// Returns the value and true if found, nil and false otherwise.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.cache.Get(ctx, c.prefix+key)
	if err != nil {
		return nil, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}

	return &value, true
}

// Set stores a value in the cache with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, c.prefix+key, data, c.defaultTTL)
}

// Delete removes a key from the cache.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, c.prefix+key)
}

// GetOrSet retrieves a value from cache, or calls fn to compute and store it
// if not found. Errors from fn are returned and nothing is stored.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (*T, error)) (*T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	// A failed write still leaves a valid value for this request.
	_ = c.Set(ctx, key, value)

	return value, nil
}
