// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "context"

const getCategoryBySlug = `-- name: GetCategoryBySlug :one
SELECT id, name, slug, description, sort_order FROM categories WHERE slug = ?`

func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	var i Category
	err := q.db.QueryRowContext(ctx, getCategoryBySlug, slug).Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.Description,
		&i.SortOrder,
	)
	return i, err
}

const listCategories = `-- name: ListCategories :many
SELECT id, name, slug, description, sort_order FROM categories ORDER BY sort_order, name`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Slug,
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

const countPostsByCategory = `-- name: CountPostsByCategory :one
SELECT COUNT(*) FROM posts WHERE category_id = ?`

func (q *Queries) CountPostsByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostsByCategory, categoryID).Scan(&count)
	return count, err
}
