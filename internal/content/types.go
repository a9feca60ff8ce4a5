// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content assembles relational rows into the nested, ordered view
// models rendered by the public site and the admin dashboard.
package content

import (
	"errors"
	"time"

	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/util"
)

// ErrNotFound is returned when a requested edition does not exist.
var ErrNotFound = errors.New("content: not found")

// Edition is one newsletter issue.
type Edition struct {
	ID              string    `db:"id" json:"id"`
	Date            string    `db:"date" json:"date"`
	HeroSummary     string    `db:"hero_summary" json:"hero_summary"`
	HeroDescription string    `db:"hero_description" json:"hero_description"`
	FeaturedMemeURL string    `db:"featured_meme_url" json:"featured_meme_url,omitempty"`
	IsCurrent       bool      `db:"is_current" json:"is_current"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Day parses the edition date. ok is false for dates not in YYYY-MM-DD form.
func (e Edition) Day() (t time.Time, ok bool) {
	t, err := time.Parse(model.DateLayout, e.Date)
	return t, err == nil
}

// Category is a fixed top-level content channel.
type Category struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Slug        string `db:"slug" json:"slug"`
	Description string `db:"description" json:"description"`
	SortOrder   int64  `db:"sort_order" json:"sort_order"`
}

// Theme groups posts inside one edition.
type Theme struct {
	ID        string `db:"id" json:"id"`
	EditionID string `db:"edition_id" json:"edition_id"`
	Name      string `db:"name" json:"name"`
	Slug      string `db:"slug" json:"slug"`
	SortOrder int64  `db:"sort_order" json:"sort_order"`
}

// Insight is a short labeled observation attached to a post.
type Insight struct {
	ID          string `db:"id" json:"id"`
	PostID      string `db:"post_id" json:"post_id"`
	Label       string `db:"label" json:"label"`
	Description string `db:"description" json:"description"`
	SortOrder   int64  `db:"sort_order" json:"sort_order"`
}

// MediaItem is an image or video attached to a post.
type MediaItem struct {
	ID           string `db:"id" json:"id"`
	PostID       string `db:"post_id" json:"post_id"`
	Type         string `db:"type" json:"type"`
	URL          string `db:"url" json:"url"`
	ThumbnailURL string `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Caption      string `db:"caption" json:"caption,omitempty"`
	ExternalLink string `db:"external_link" json:"external_link,omitempty"`
	Size         string `db:"size" json:"size"`
	SortOrder    int64  `db:"sort_order" json:"sort_order"`
}

// IsPending reports whether the media file has not been uploaded yet.
func (m MediaItem) IsPending() bool {
	return m.URL == ""
}

// IsVideo reports whether the item is a video.
func (m MediaItem) IsVideo() bool {
	return m.Type == model.MediaTypeVideo
}

// EmbedURL returns the player URL for a recognized social post link, or "".
func (m MediaItem) EmbedURL() string {
	return util.EmbedURL(m.ExternalLink)
}

// Article is an external link reference attached to a post.
type Article struct {
	ID        string `db:"id" json:"id"`
	PostID    string `db:"post_id" json:"post_id"`
	Title     string `db:"title" json:"title"`
	URL       string `db:"url" json:"url"`
	Summary   string `db:"summary" json:"summary"`
	ImageURL  string `db:"image_url" json:"image_url,omitempty"`
	Author    string `db:"author" json:"author,omitempty"`
	Source    string `db:"source" json:"source,omitempty"`
	SortOrder int64  `db:"sort_order" json:"sort_order"`
}

// IsPending reports whether the article has no preview image yet.
func (a Article) IsPending() bool {
	return a.ImageURL == ""
}

// Post is a unit of curated content with its children already ordered.
type Post struct {
	ID           string    `db:"id" json:"id"`
	EditionID    string    `db:"edition_id" json:"edition_id"`
	EditionDate  string    `db:"edition_date" json:"edition_date"`
	CategoryID   string    `db:"category_id" json:"category_id"`
	CategorySlug string    `db:"category_slug" json:"category_slug"`
	ThemeID      string    `db:"theme_id" json:"theme_id,omitempty"`
	Headline     string    `db:"headline" json:"headline"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`

	Insights []Insight   `db:"-" json:"insights"`
	Media    []MediaItem `db:"-" json:"media_items"`
	Articles []Article   `db:"-" json:"articles"`
}

// IsEmpty reports whether the post has no insights, media or articles.
func (p Post) IsEmpty() bool {
	return len(p.Insights) == 0 && len(p.Media) == 0 && len(p.Articles) == 0
}

// DateGroup holds the posts of one edition date in a category feed.
type DateGroup struct {
	Date  string `json:"date"`
	Posts []Post `json:"posts"`
}

// CategoryFeed is a category page: posts grouped by edition date, newest first.
type CategoryFeed struct {
	Category   *Category   `json:"category,omitempty"`
	DateGroups []DateGroup `json:"date_groups"`
}

// ThemeSection is a theme with its ordered posts.
type ThemeSection struct {
	Theme
	Posts []Post `json:"posts"`
}

// ThemedEdition is an edition with its ordered themes.
type ThemedEdition struct {
	Edition
	Themes []ThemeSection `json:"themes"`
}

// CategorySection is a category with the posts an edition has in it.
type CategorySection struct {
	Category
	Posts []Post `json:"posts"`
}

// EditionContent is an edition with every post grouped by category.
type EditionContent struct {
	Edition
	Themes   []Theme           `json:"themes"`
	Sections []CategorySection `json:"sections"`
}

// HomePage is the current edition with its non-empty category sections.
// Edition is nil when no edition is flagged current.
type HomePage struct {
	Edition  *Edition          `json:"edition"`
	Sections []CategorySection `json:"sections"`
}

// MediaLibraryItem is a media item with the context of the post it belongs to.
type MediaLibraryItem struct {
	MediaItem
	Headline     string `db:"headline" json:"headline"`
	CategorySlug string `db:"category_slug" json:"category_slug"`
	EditionID    string `db:"edition_id" json:"edition_id"`
	EditionDate  string `db:"edition_date" json:"edition_date"`
}
