// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"time"

	"github.com/olegiv/dose-go/internal/cache"
)

// Cache key prefix for every content entry.
const cachePrefix = "content:"

// Cache keys relative to cachePrefix.
const (
	keyCurrentEdition = "edition:current"
	keyArchive        = "archive"
	keyHome           = "home"
	keyCategories     = "categories"
	keyCategoryPrefix = "category:"
	keyEditionPrefix  = "edition:"
)

// currentEntry lets a missing current edition be cached as well.
type currentEntry struct {
	Edition *Edition `json:"edition"`
}

type prefixDeleter interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// CachedReader serves the public read paths from a cache and falls back to
// the wrapped Reader on a miss. Errors are never cached. Admin-only reads
// pass through uncached.
type CachedReader struct {
	reader *Reader
	store  cache.Cache

	current    *cache.TypedCache[currentEntry]
	feeds      *cache.TypedCache[CategoryFeed]
	themed     *cache.TypedCache[ThemedEdition]
	archive    *cache.TypedCache[[]Edition]
	categories *cache.TypedCache[[]Category]
	home       *cache.TypedCache[HomePage]
}

var _ Source = (*CachedReader)(nil)
var _ Source = (*Reader)(nil)

// NewCachedReader wraps r with c. Entries live for ttl.
func NewCachedReader(r *Reader, c cache.Cache, ttl time.Duration) *CachedReader {
	return &CachedReader{
		reader:     r,
		store:      c,
		current:    cache.NewTypedCache[currentEntry](c, cachePrefix, ttl),
		feeds:      cache.NewTypedCache[CategoryFeed](c, cachePrefix, ttl),
		themed:     cache.NewTypedCache[ThemedEdition](c, cachePrefix, ttl),
		archive:    cache.NewTypedCache[[]Edition](c, cachePrefix, ttl),
		categories: cache.NewTypedCache[[]Category](c, cachePrefix, ttl),
		home:       cache.NewTypedCache[HomePage](c, cachePrefix, ttl),
	}
}

// CurrentEdition implements Source.
func (c *CachedReader) CurrentEdition(ctx context.Context) (*Edition, error) {
	entry, err := c.current.GetOrSet(ctx, keyCurrentEdition, func() (*currentEntry, error) {
		e, err := c.reader.CurrentEdition(ctx)
		if err != nil {
			return nil, err
		}
		return &currentEntry{Edition: e}, nil
	})
	if err != nil {
		return nil, err
	}
	return entry.Edition, nil
}

// PostsByCategory implements Source.
func (c *CachedReader) PostsByCategory(ctx context.Context, slug string) (*CategoryFeed, error) {
	return c.feeds.GetOrSet(ctx, keyCategoryPrefix+slug, func() (*CategoryFeed, error) {
		return c.reader.PostsByCategory(ctx, slug)
	})
}

// EditionWithThemes implements Source.
func (c *CachedReader) EditionWithThemes(ctx context.Context, editionID string) (*ThemedEdition, error) {
	return c.themed.GetOrSet(ctx, keyEditionPrefix+editionID, func() (*ThemedEdition, error) {
		return c.reader.EditionWithThemes(ctx, editionID)
	})
}

// EditionsForArchive implements Source.
func (c *CachedReader) EditionsForArchive(ctx context.Context) ([]Edition, error) {
	editions, err := c.archive.GetOrSet(ctx, keyArchive, func() (*[]Edition, error) {
		list, err := c.reader.EditionsForArchive(ctx)
		if err != nil {
			return nil, err
		}
		return &list, nil
	})
	if err != nil {
		return nil, err
	}
	return *editions, nil
}

// Categories implements Source.
func (c *CachedReader) Categories(ctx context.Context) ([]Category, error) {
	categories, err := c.categories.GetOrSet(ctx, keyCategories, func() (*[]Category, error) {
		list, err := c.reader.Categories(ctx)
		if err != nil {
			return nil, err
		}
		return &list, nil
	})
	if err != nil {
		return nil, err
	}
	return *categories, nil
}

// CategoryBySlug implements Source.
func (c *CachedReader) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	return c.reader.CategoryBySlug(ctx, slug)
}

// EditionContent implements Source. It is an admin read and is not cached.
func (c *CachedReader) EditionContent(ctx context.Context, editionID string) (*EditionContent, error) {
	return c.reader.EditionContent(ctx, editionID)
}

// HomePage implements Source.
func (c *CachedReader) HomePage(ctx context.Context) (*HomePage, error) {
	return c.home.GetOrSet(ctx, keyHome, func() (*HomePage, error) {
		return c.reader.HomePage(ctx)
	})
}

// MediaLibrary implements Source. It is an admin read and is not cached.
func (c *CachedReader) MediaLibrary(ctx context.Context) ([]MediaLibraryItem, error) {
	return c.reader.MediaLibrary(ctx)
}

// Invalidate drops every cached content entry. Admin writes call it after
// committing.
func (c *CachedReader) Invalidate(ctx context.Context) error {
	if d, ok := c.store.(prefixDeleter); ok {
		return d.DeleteByPrefix(ctx, cachePrefix)
	}
	return c.store.Clear(ctx)
}
