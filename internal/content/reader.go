// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// Source is the read API consumed by handlers. Reader and CachedReader
// both implement it.
type Source interface {
	CurrentEdition(ctx context.Context) (*Edition, error)
	PostsByCategory(ctx context.Context, slug string) (*CategoryFeed, error)
	EditionWithThemes(ctx context.Context, editionID string) (*ThemedEdition, error)
	EditionsForArchive(ctx context.Context) ([]Edition, error)
	Categories(ctx context.Context) ([]Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*Category, error)
	EditionContent(ctx context.Context, editionID string) (*EditionContent, error)
	HomePage(ctx context.Context) (*HomePage, error)
	MediaLibrary(ctx context.Context) ([]MediaLibraryItem, error)
}

var (
	editionColumns = []string{
		"e.id AS id", "e.date AS date", "e.hero_summary AS hero_summary",
		"e.hero_description AS hero_description",
		"COALESCE(e.featured_meme_url, '') AS featured_meme_url",
		"e.is_current AS is_current", "e.created_at AS created_at", "e.updated_at AS updated_at",
	}
	postColumns = []string{
		"p.id AS id", "p.edition_id AS edition_id", "e.date AS edition_date",
		"p.category_id AS category_id", "c.slug AS category_slug",
		"COALESCE(p.theme_id, '') AS theme_id", "p.headline AS headline",
		"p.created_at AS created_at",
	}
)

// Reader runs the joined read queries against the database.
type Reader struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// NewReader wraps db for content reads. driverName selects the sqlx bind
// style and is "sqlite" or "sqlite3".
func NewReader(db *sql.DB, driverName string) *Reader {
	return &Reader{
		db: sqlx.NewDb(db, driverName),
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

func (r *Reader) selectInto(ctx context.Context, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}

func (r *Reader) getInto(ctx context.Context, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *Reader) editions() sq.SelectBuilder {
	return r.sb.Select(editionColumns...).From("editions e")
}

func (r *Reader) posts() sq.SelectBuilder {
	return r.sb.Select(postColumns...).
		From("posts p").
		Join("editions e ON e.id = p.edition_id").
		Join("categories c ON c.id = p.category_id")
}

// CurrentEdition returns the edition flagged current, or nil when none is.
func (r *Reader) CurrentEdition(ctx context.Context) (*Edition, error) {
	var flagged []Edition
	if err := r.selectInto(ctx, &flagged, r.editions().Where(sq.Eq{"e.is_current": true})); err != nil {
		return nil, fmt.Errorf("loading current edition: %w", err)
	}
	return PickCurrent(flagged), nil
}

// PostsByCategory returns the posts of a category grouped by edition date,
// newest first. An unknown slug yields an empty feed.
func (r *Reader) PostsByCategory(ctx context.Context, slug string) (*CategoryFeed, error) {
	cat, err := r.CategoryBySlug(ctx, slug)
	if errors.Is(err, ErrNotFound) {
		return &CategoryFeed{DateGroups: []DateGroup{}}, nil
	}
	if err != nil {
		return nil, err
	}

	posts, err := r.loadPosts(ctx, r.posts().
		Where(sq.Eq{"p.category_id": cat.ID}).
		OrderBy("p.created_at DESC", "p.rowid DESC"))
	if err != nil {
		return nil, fmt.Errorf("loading %s posts: %w", slug, err)
	}
	return &CategoryFeed{Category: cat, DateGroups: GroupByEditionDate(posts)}, nil
}

// EditionWithThemes returns an edition with its themes and their posts.
// ErrNotFound is returned when no edition has editionID.
func (r *Reader) EditionWithThemes(ctx context.Context, editionID string) (*ThemedEdition, error) {
	e, err := r.edition(ctx, editionID)
	if err != nil {
		return nil, err
	}

	themes, err := r.themes(ctx, editionID)
	if err != nil {
		return nil, err
	}
	posts, err := r.loadPosts(ctx, r.posts().
		Where(sq.Eq{"p.edition_id": editionID}).
		Where(sq.NotEq{"p.theme_id": nil}).
		OrderBy("p.created_at", "p.rowid"))
	if err != nil {
		return nil, fmt.Errorf("loading edition posts: %w", err)
	}
	return &ThemedEdition{Edition: *e, Themes: GroupByTheme(themes, posts)}, nil
}

// EditionsForArchive lists every edition, newest first.
func (r *Reader) EditionsForArchive(ctx context.Context) ([]Edition, error) {
	editions := []Edition{}
	if err := r.selectInto(ctx, &editions, r.editions().OrderBy("e.date DESC")); err != nil {
		return nil, fmt.Errorf("listing editions: %w", err)
	}
	SortEditionsByDate(editions)
	return editions, nil
}

// Categories lists categories in navigation order.
func (r *Reader) Categories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	b := r.sb.Select("id", "name", "slug", "description", "sort_order").
		From("categories").
		OrderBy("sort_order", "name")
	if err := r.selectInto(ctx, &categories, b); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// CategoryBySlug returns one category or ErrNotFound.
func (r *Reader) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	b := r.sb.Select("id", "name", "slug", "description", "sort_order").
		From("categories").
		Where(sq.Eq{"slug": slug})
	if err := r.getInto(ctx, &c, b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading category %s: %w", slug, err)
	}
	return &c, nil
}

// EditionContent returns an edition with its themes and every post grouped
// by category, including categories that have no posts yet.
func (r *Reader) EditionContent(ctx context.Context, editionID string) (*EditionContent, error) {
	e, err := r.edition(ctx, editionID)
	if err != nil {
		return nil, err
	}
	themes, err := r.themes(ctx, editionID)
	if err != nil {
		return nil, err
	}
	categories, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := r.editionPosts(ctx, editionID)
	if err != nil {
		return nil, err
	}
	return &EditionContent{
		Edition:  *e,
		Themes:   themes,
		Sections: GroupByCategory(categories, posts, true),
	}, nil
}

// HomePage returns the current edition with its non-empty category sections.
// With no current edition the page is empty rather than an error.
func (r *Reader) HomePage(ctx context.Context) (*HomePage, error) {
	current, err := r.CurrentEdition(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return &HomePage{Sections: []CategorySection{}}, nil
	}

	categories, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := r.editionPosts(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	return &HomePage{Edition: current, Sections: GroupByCategory(categories, posts, false)}, nil
}

// MediaLibrary lists every media item with its post context, newest
// edition first.
func (r *Reader) MediaLibrary(ctx context.Context) ([]MediaLibraryItem, error) {
	items := []MediaLibraryItem{}
	b := r.sb.Select(
		"m.id AS id", "m.post_id AS post_id", "m.type AS type", "m.url AS url",
		"COALESCE(m.thumbnail_url, '') AS thumbnail_url",
		"COALESCE(m.caption, '') AS caption",
		"COALESCE(m.external_link, '') AS external_link",
		"m.size AS size", "m.sort_order AS sort_order",
		"p.headline AS headline", "c.slug AS category_slug",
		"p.edition_id AS edition_id", "e.date AS edition_date",
	).
		From("media_items m").
		Join("posts p ON p.id = m.post_id").
		Join("editions e ON e.id = p.edition_id").
		Join("categories c ON c.id = p.category_id").
		OrderBy("e.date DESC", "c.sort_order", "p.created_at", "m.sort_order")
	if err := r.selectInto(ctx, &items, b); err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	return items, nil
}

func (r *Reader) edition(ctx context.Context, id string) (*Edition, error) {
	var e Edition
	if err := r.getInto(ctx, &e, r.editions().Where(sq.Eq{"e.id": id})); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading edition: %w", err)
	}
	return &e, nil
}

func (r *Reader) themes(ctx context.Context, editionID string) ([]Theme, error) {
	themes := []Theme{}
	b := r.sb.Select("id", "edition_id", "name", "slug", "sort_order").
		From("themes").
		Where(sq.Eq{"edition_id": editionID}).
		OrderBy("sort_order", "rowid")
	if err := r.selectInto(ctx, &themes, b); err != nil {
		return nil, fmt.Errorf("loading themes: %w", err)
	}
	return themes, nil
}

func (r *Reader) editionPosts(ctx context.Context, editionID string) ([]Post, error) {
	posts, err := r.loadPosts(ctx, r.posts().
		Where(sq.Eq{"p.edition_id": editionID}).
		OrderBy("p.created_at", "p.rowid"))
	if err != nil {
		return nil, fmt.Errorf("loading edition posts: %w", err)
	}
	return posts, nil
}

// loadPosts runs a post query and attaches the children of every row.
func (r *Reader) loadPosts(ctx context.Context, b sq.SelectBuilder) ([]Post, error) {
	posts := []Post{}
	if err := r.selectInto(ctx, &posts, b); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	insights, err := selectChildren[Insight](ctx, r, ids, r.sb.
		Select("id", "post_id", "label", "description", "sort_order").
		From("post_insights").
		OrderBy("rowid"))
	if err != nil {
		return nil, fmt.Errorf("loading insights: %w", err)
	}

	media, err := selectChildren[MediaItem](ctx, r, ids, r.sb.
		Select("id", "post_id", "type", "url",
			"COALESCE(thumbnail_url, '') AS thumbnail_url",
			"COALESCE(caption, '') AS caption",
			"COALESCE(external_link, '') AS external_link",
			"size", "sort_order").
		From("media_items").
		OrderBy("rowid"))
	if err != nil {
		return nil, fmt.Errorf("loading media: %w", err)
	}

	articles, err := selectChildren[Article](ctx, r, ids, r.sb.
		Select("id", "post_id", "title", "url", "summary",
			"COALESCE(image_url, '') AS image_url",
			"COALESCE(author, '') AS author",
			"COALESCE(source, '') AS source",
			"sort_order").
		From("articles").
		OrderBy("rowid"))
	if err != nil {
		return nil, fmt.Errorf("loading articles: %w", err)
	}

	return AttachChildren(posts, insights, media, articles), nil
}

// childBatchSize bounds the post ids bound into one child query, keeping the
// IN list under SQLite's host parameter limit.
var childBatchSize = 500

// selectChildren runs b once per batch of post ids and concatenates the rows.
// Every child of a post lands in the same batch, so per-post order holds.
func selectChildren[T any](ctx context.Context, r *Reader, ids []string, b sq.SelectBuilder) ([]T, error) {
	var out []T
	for batch := range slices.Chunk(ids, childBatchSize) {
		var rows []T
		if err := r.selectInto(ctx, &rows, b.Where(sq.Eq{"post_id": batch})); err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}
