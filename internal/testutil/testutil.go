// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for dose.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/dose-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestDB creates a temporary file database through store.NewDB with all
// migrations applied. It is closed when the test finishes.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(t.TempDir() + "/dose-test.db")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// TestMemoryDB creates a migrated in-memory database on the mattn driver.
// The pool is pinned to one connection because every new connection to
// ":memory:" would see an empty database.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// CategoryID resolves a seeded category slug.
func CategoryID(t *testing.T, db *sql.DB, slug string) string {
	t.Helper()
	c, err := store.New(db).GetCategoryBySlug(context.Background(), slug)
	if err != nil {
		t.Fatalf("category %q: %v", slug, err)
	}
	return c.ID
}

// CreateEdition inserts an edition dated date.
func CreateEdition(t *testing.T, db *sql.DB, date string) store.Edition {
	t.Helper()
	now := time.Now().UTC()
	e, err := store.New(db).CreateEdition(context.Background(), store.CreateEditionParams{
		ID:              uuid.NewString(),
		Date:            date,
		HeroSummary:     "Summary " + date,
		HeroDescription: "Description " + date,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateEdition(%s): %v", date, err)
	}
	return e
}

// CreateTheme inserts a theme in an edition.
func CreateTheme(t *testing.T, db *sql.DB, editionID, name string, sortOrder int64) store.Theme {
	t.Helper()
	th, err := store.New(db).CreateTheme(context.Background(), store.CreateThemeParams{
		ID:        uuid.NewString(),
		EditionID: editionID,
		Name:      name,
		Slug:      name,
		SortOrder: sortOrder,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTheme(%s): %v", name, err)
	}
	return th
}

// PostOptions customizes CreatePost.
type PostOptions struct {
	ThemeID   string
	CreatedAt time.Time
}

// CreatePost inserts a post with no children.
func CreatePost(t *testing.T, db *sql.DB, editionID, categorySlug, headline string, opts PostOptions) store.Post {
	t.Helper()
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = time.Now().UTC()
	}
	p, err := store.New(db).CreatePost(context.Background(), store.CreatePostParams{
		ID:         uuid.NewString(),
		EditionID:  editionID,
		CategoryID: CategoryID(t, db, categorySlug),
		ThemeID:    sql.NullString{String: opts.ThemeID, Valid: opts.ThemeID != ""},
		Headline:   headline,
		CreatedAt:  opts.CreatedAt,
		UpdatedAt:  opts.CreatedAt,
	})
	if err != nil {
		t.Fatalf("CreatePost(%s): %v", headline, err)
	}
	return p
}

// AddInsight attaches an insight with the given sort order.
func AddInsight(t *testing.T, db *sql.DB, postID, label string, sortOrder int64) {
	t.Helper()
	err := store.New(db).InsertInsights(context.Background(), []store.PostInsight{{
		ID: uuid.NewString(), PostID: postID, Label: label, Description: label + " description", SortOrder: sortOrder,
	}})
	if err != nil {
		t.Fatalf("AddInsight(%s): %v", label, err)
	}
}

// AddMedia attaches a media item; an empty url models a pending upload.
func AddMedia(t *testing.T, db *sql.DB, postID, url string, sortOrder int64) {
	t.Helper()
	err := store.New(db).InsertMediaItems(context.Background(), []store.MediaItem{{
		ID: uuid.NewString(), PostID: postID, Type: "image", Url: url, Size: "medium", SortOrder: sortOrder,
	}})
	if err != nil {
		t.Fatalf("AddMedia(%s): %v", url, err)
	}
}

// AddArticle attaches an article with the given sort order.
func AddArticle(t *testing.T, db *sql.DB, postID, title string, sortOrder int64) {
	t.Helper()
	err := store.New(db).InsertArticles(context.Background(), []store.Article{{
		ID: uuid.NewString(), PostID: postID, Title: title, Url: "https://example.com/" + title, SortOrder: sortOrder,
	}})
	if err != nil {
		t.Fatalf("AddArticle(%s): %v", title, err)
	}
}
