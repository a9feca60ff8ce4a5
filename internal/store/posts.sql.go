// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const postColumns = `id, edition_id, category_id, theme_id, headline, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var i Post
	err := row.Scan(
		&i.ID,
		&i.EditionID,
		&i.CategoryID,
		&i.ThemeID,
		&i.Headline,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPost = `-- name: CreatePost :one
INSERT INTO posts (id, edition_id, category_id, theme_id, headline, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + postColumns

type CreatePostParams struct {
	ID         string         `json:"id"`
	EditionID  string         `json:"edition_id"`
	CategoryID string         `json:"category_id"`
	ThemeID    sql.NullString `json:"theme_id"`
	Headline   string         `json:"headline"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.ID,
		arg.EditionID,
		arg.CategoryID,
		arg.ThemeID,
		arg.Headline,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPost(row)
}

const getPost = `-- name: GetPost :one
SELECT ` + postColumns + ` FROM posts WHERE id = ?`

func (q *Queries) GetPost(ctx context.Context, id string) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPost, id))
}

const listPostIDsByEdition = `-- name: ListPostIDsByEdition :many
SELECT id FROM posts WHERE edition_id = ?`

func (q *Queries) ListPostIDsByEdition(ctx context.Context, editionID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listPostIDsByEdition, editionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updatePost = `-- name: UpdatePost :one
UPDATE posts SET headline = ?, theme_id = ?, updated_at = ? WHERE id = ?
RETURNING ` + postColumns

type UpdatePostParams struct {
	Headline  string         `json:"headline"`
	ThemeID   sql.NullString `json:"theme_id"`
	UpdatedAt time.Time      `json:"updated_at"`
	ID        string         `json:"id"`
}

func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, updatePost,
		arg.Headline,
		arg.ThemeID,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPost(row)
}

const deletePost = `-- name: DeletePost :execrows
DELETE FROM posts WHERE id = ?`

func (q *Queries) DeletePost(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePost, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countPosts = `-- name: CountPosts :one
SELECT COUNT(*) FROM posts`

func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPosts).Scan(&count)
	return count, err
}
