// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
)

const listInsightsByPost = `-- name: ListInsightsByPost :many
SELECT id, post_id, label, description, sort_order FROM post_insights
WHERE post_id = ? ORDER BY sort_order, rowid`

func (q *Queries) ListInsightsByPost(ctx context.Context, postID string) ([]PostInsight, error) {
	rows, err := q.db.QueryContext(ctx, listInsightsByPost, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PostInsight
	for rows.Next() {
		var i PostInsight
		if err := rows.Scan(
			&i.ID,
			&i.PostID,
			&i.Label,
			&i.Description,
			&i.SortOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMediaItemsByPost = `-- name: ListMediaItemsByPost :many
SELECT id, post_id, type, url, thumbnail_url, caption, external_link, size, sort_order FROM media_items
WHERE post_id = ? ORDER BY sort_order, rowid`

func (q *Queries) ListMediaItemsByPost(ctx context.Context, postID string) ([]MediaItem, error) {
	rows, err := q.db.QueryContext(ctx, listMediaItemsByPost, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MediaItem
	for rows.Next() {
		var i MediaItem
		if err := rows.Scan(
			&i.ID,
			&i.PostID,
			&i.Type,
			&i.Url,
			&i.ThumbnailUrl,
			&i.Caption,
			&i.ExternalLink,
			&i.Size,
			&i.SortOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listArticlesByPost = `-- name: ListArticlesByPost :many
SELECT id, post_id, title, url, summary, image_url, author, source, sort_order FROM articles
WHERE post_id = ? ORDER BY sort_order, rowid`

func (q *Queries) ListArticlesByPost(ctx context.Context, postID string) ([]Article, error) {
	rows, err := q.db.QueryContext(ctx, listArticlesByPost, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Article
	for rows.Next() {
		var i Article
		if err := rows.Scan(
			&i.ID,
			&i.PostID,
			&i.Title,
			&i.Url,
			&i.Summary,
			&i.ImageUrl,
			&i.Author,
			&i.Source,
			&i.SortOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeletePostChildren removes every insight, media item and article of the
// given posts.
func (q *Queries) DeletePostChildren(ctx context.Context, postIDs ...string) error {
	if len(postIDs) == 0 {
		return nil
	}
	for batch := range slices.Chunk(postIDs, PostIDBatchSize) {
		for _, table := range []string{"post_insights", "media_items", "articles"} {
			query, args, err := sq.Delete(table).Where(sq.Eq{"post_id": batch}).ToSql()
			if err != nil {
				return fmt.Errorf("building delete for %s: %w", table, err)
			}
			if _, err := q.db.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("deleting %s: %w", table, err)
			}
		}
	}
	return nil
}

// PostIDBatchSize bounds the post ids bound into one IN list, keeping it
// under SQLite's host parameter limit.
var PostIDBatchSize = 500

const deleteInsightsByPost = `-- name: DeleteInsightsByPost :exec
DELETE FROM post_insights WHERE post_id = ?`

func (q *Queries) DeleteInsightsByPost(ctx context.Context, postID string) error {
	_, err := q.db.ExecContext(ctx, deleteInsightsByPost, postID)
	return err
}

const deleteMediaItemsByPost = `-- name: DeleteMediaItemsByPost :exec
DELETE FROM media_items WHERE post_id = ?`

func (q *Queries) DeleteMediaItemsByPost(ctx context.Context, postID string) error {
	_, err := q.db.ExecContext(ctx, deleteMediaItemsByPost, postID)
	return err
}

const deleteArticlesByPost = `-- name: DeleteArticlesByPost :exec
DELETE FROM articles WHERE post_id = ?`

func (q *Queries) DeleteArticlesByPost(ctx context.Context, postID string) error {
	_, err := q.db.ExecContext(ctx, deleteArticlesByPost, postID)
	return err
}

// InsertInsights writes all rows in one multi-row INSERT.
func (q *Queries) InsertInsights(ctx context.Context, items []PostInsight) error {
	if len(items) == 0 {
		return nil
	}
	b := sq.Insert("post_insights").Columns("id", "post_id", "label", "description", "sort_order")
	for _, i := range items {
		b = b.Values(i.ID, i.PostID, i.Label, i.Description, i.SortOrder)
	}
	return q.execBuilder(ctx, b)
}

// InsertMediaItems writes all rows in one multi-row INSERT.
func (q *Queries) InsertMediaItems(ctx context.Context, items []MediaItem) error {
	if len(items) == 0 {
		return nil
	}
	b := sq.Insert("media_items").Columns("id", "post_id", "type", "url", "thumbnail_url", "caption", "external_link", "size", "sort_order")
	for _, i := range items {
		b = b.Values(i.ID, i.PostID, i.Type, i.Url, i.ThumbnailUrl, i.Caption, i.ExternalLink, i.Size, i.SortOrder)
	}
	return q.execBuilder(ctx, b)
}

// InsertArticles writes all rows in one multi-row INSERT.
func (q *Queries) InsertArticles(ctx context.Context, items []Article) error {
	if len(items) == 0 {
		return nil
	}
	b := sq.Insert("articles").Columns("id", "post_id", "title", "url", "summary", "image_url", "author", "source", "sort_order")
	for _, i := range items {
		b = b.Values(i.ID, i.PostID, i.Title, i.Url, i.Summary, i.ImageUrl, i.Author, i.Source, i.SortOrder)
	}
	return q.execBuilder(ctx, b)
}

func (q *Queries) execBuilder(ctx context.Context, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	_, err = q.db.ExecContext(ctx, query, args...)
	return err
}
