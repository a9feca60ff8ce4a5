// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type AllowedUser struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      sql.NullString `json:"name"`
	Role      string         `json:"role"`
	AddedBy   sql.NullString `json:"added_by"`
	CreatedAt time.Time      `json:"created_at"`
}

type Article struct {
	ID        string         `json:"id"`
	PostID    string         `json:"post_id"`
	Title     string         `json:"title"`
	Url       string         `json:"url"`
	Summary   string         `json:"summary"`
	ImageUrl  sql.NullString `json:"image_url"`
	Author    sql.NullString `json:"author"`
	Source    sql.NullString `json:"source"`
	SortOrder int64          `json:"sort_order"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	SortOrder   int64  `json:"sort_order"`
}

type Edition struct {
	ID              string         `json:"id"`
	Date            string         `json:"date"`
	HeroSummary     string         `json:"hero_summary"`
	HeroDescription string         `json:"hero_description"`
	FeaturedMemeUrl sql.NullString `json:"featured_meme_url"`
	IsCurrent       bool           `json:"is_current"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type Event struct {
	ID         int64          `json:"id"`
	Level      string         `json:"level"`
	Category   string         `json:"category"`
	Message    string         `json:"message"`
	ActorEmail sql.NullString `json:"actor_email"`
	Metadata   string         `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

type MediaItem struct {
	ID           string         `json:"id"`
	PostID       string         `json:"post_id"`
	Type         string         `json:"type"`
	Url          string         `json:"url"`
	ThumbnailUrl sql.NullString `json:"thumbnail_url"`
	Caption      sql.NullString `json:"caption"`
	ExternalLink sql.NullString `json:"external_link"`
	Size         string         `json:"size"`
	SortOrder    int64          `json:"sort_order"`
}

type Post struct {
	ID         string         `json:"id"`
	EditionID  string         `json:"edition_id"`
	CategoryID string         `json:"category_id"`
	ThemeID    sql.NullString `json:"theme_id"`
	Headline   string         `json:"headline"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type PostInsight struct {
	ID          string `json:"id"`
	PostID      string `json:"post_id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	SortOrder   int64  `json:"sort_order"`
}

type Theme struct {
	ID        string    `json:"id"`
	EditionID string    `json:"edition_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int64     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
