// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/store"
	"github.com/olegiv/dose-go/internal/util"
)

// InsightInput is one submitted insight row.
type InsightInput struct {
	Label       string
	Description string
}

// MediaInput is one submitted media row.
type MediaInput struct {
	Type         string
	URL          string
	ThumbnailURL string
	Caption      string
	ExternalLink string
	Size         string
}

// ArticleInput is one submitted article row.
type ArticleInput struct {
	Title    string
	URL      string
	Summary  string
	ImageURL string
	Author   string
	Source   string
}

// PostInput is a full post submission. The child lists replace whatever the
// post had before, in the submitted order.
type PostInput struct {
	Headline string
	ThemeID  string
	Insights []InsightInput
	Media    []MediaInput
	Articles []ArticleInput
}

// normalize trims every field and fills defaults. Every submitted insight is
// kept; blank media and article rows are dropped.
func (in *PostInput) normalize() {
	in.Headline = strings.TrimSpace(in.Headline)
	in.ThemeID = strings.TrimSpace(in.ThemeID)

	insights := in.Insights[:0:0]
	for _, i := range in.Insights {
		i.Label = strings.TrimSpace(i.Label)
		i.Description = strings.TrimSpace(i.Description)
		if i.Label == "" {
			i.Label = model.DefaultInsightLabel
		}
		insights = append(insights, i)
	}
	in.Insights = insights

	media := in.Media[:0:0]
	for _, m := range in.Media {
		m.Type = strings.TrimSpace(m.Type)
		m.URL = strings.TrimSpace(m.URL)
		m.ThumbnailURL = strings.TrimSpace(m.ThumbnailURL)
		m.Caption = strings.TrimSpace(m.Caption)
		m.ExternalLink = strings.TrimSpace(m.ExternalLink)
		m.Size = strings.TrimSpace(m.Size)
		if m.URL == "" && m.ThumbnailURL == "" && m.Caption == "" && m.ExternalLink == "" {
			continue
		}
		if m.Type == "" {
			m.Type = model.MediaTypeImage
		}
		if m.Size == "" {
			m.Size = model.MediaSizeMedium
		}
		media = append(media, m)
	}
	in.Media = media

	articles := in.Articles[:0:0]
	for _, a := range in.Articles {
		a.Title = strings.TrimSpace(a.Title)
		a.URL = strings.TrimSpace(a.URL)
		a.Summary = strings.TrimSpace(a.Summary)
		a.ImageURL = strings.TrimSpace(a.ImageURL)
		a.Author = strings.TrimSpace(a.Author)
		a.Source = strings.TrimSpace(a.Source)
		if a.Title == "" && a.URL == "" && a.Summary == "" && a.ImageURL == "" && a.Author == "" && a.Source == "" {
			continue
		}
		if a.Title != "" && a.URL == "" {
			a.URL = model.DefaultArticleURL
		}
		articles = append(articles, a)
	}
	in.Articles = articles
}

func (in PostInput) validate() error {
	v := validator{}
	v.check(in.Headline != "", "headline", "Headline is required")
	for i, m := range in.Media {
		field := fmt.Sprintf("media[%d]", i)
		v.check(model.IsValidMediaType(m.Type), field, "Media type must be image or video")
		v.check(model.IsValidMediaSize(m.Size), field, "Media size must be small, medium or large")
		v.check(isValidLink(m.URL) && isValidLink(m.ThumbnailURL), field, "Media URL is not a valid URL")
		v.check(isValidLink(m.ExternalLink), field, "External link is not a valid URL")
	}
	for i, a := range in.Articles {
		field := fmt.Sprintf("articles[%d]", i)
		v.check(a.Title != "", field, "Article title is required")
		v.check(a.URL == model.DefaultArticleURL || isValidLink(a.URL), field, "Article URL is not a valid URL")
		v.check(isValidLink(a.ImageURL), field, "Article image URL is not a valid URL")
	}
	return v.err()
}

// PostDetail is a post with its children in display order.
type PostDetail struct {
	Post     store.Post
	Insights []store.PostInsight
	Media    []store.MediaItem
	Articles []store.Article
}

// PostService manages posts and their insights, media and articles.
type PostService struct {
	db     *sql.DB
	events *EventService
	cache  Invalidator
}

// NewPostService creates a PostService. cache may be nil.
func NewPostService(db *sql.DB, events *EventService, cache Invalidator) *PostService {
	return &PostService{db: db, events: events, cache: cache}
}

// Get returns a post with its children or ErrNotFound.
func (s *PostService) Get(ctx context.Context, id string) (*PostDetail, error) {
	q := store.New(s.db)
	p, err := q.GetPost(ctx, id)
	if store.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading post: %w", err)
	}

	d := &PostDetail{Post: p}
	if d.Insights, err = q.ListInsightsByPost(ctx, id); err != nil {
		return nil, fmt.Errorf("loading insights: %w", err)
	}
	if d.Media, err = q.ListMediaItemsByPost(ctx, id); err != nil {
		return nil, fmt.Errorf("loading media: %w", err)
	}
	if d.Articles, err = q.ListArticlesByPost(ctx, id); err != nil {
		return nil, fmt.Errorf("loading articles: %w", err)
	}
	return d, nil
}

// Create adds a post to an edition under the category with categorySlug.
func (s *PostService) Create(ctx context.Context, actor, editionID, categorySlug string, in PostInput) (store.Post, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return store.Post{}, err
	}

	var post store.Post
	err := store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetEdition(ctx, editionID); err != nil {
			if store.IsNotFound(err) {
				return &ValidationError{Fields: map[string]string{"edition_id": "Select an edition"}}
			}
			return fmt.Errorf("loading edition: %w", err)
		}
		category, err := q.GetCategoryBySlug(ctx, categorySlug)
		if store.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading category: %w", err)
		}
		if err := checkTheme(ctx, q, editionID, in.ThemeID); err != nil {
			return err
		}

		now := time.Now().UTC()
		post, err = q.CreatePost(ctx, store.CreatePostParams{
			ID:         uuid.NewString(),
			EditionID:  editionID,
			CategoryID: category.ID,
			ThemeID:    util.NullStringFromValue(in.ThemeID),
			Headline:   in.Headline,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("creating post: %w", err)
		}
		return insertChildren(ctx, q, post.ID, in)
	})
	if err != nil {
		return post, err
	}

	s.afterWrite(ctx, actor, "Post created", map[string]any{"post_id": post.ID, "edition_id": editionID, "category": categorySlug})
	return post, nil
}

// Update saves the headline and theme and replaces every child collection
// with the submitted lists in one transaction. Children missing from the
// submission are deleted.
func (s *PostService) Update(ctx context.Context, actor, id string, in PostInput) (store.Post, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return store.Post{}, err
	}

	var post store.Post
	err := store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		existing, err := q.GetPost(ctx, id)
		if store.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading post: %w", err)
		}
		if err := checkTheme(ctx, q, existing.EditionID, in.ThemeID); err != nil {
			return err
		}

		post, err = q.UpdatePost(ctx, store.UpdatePostParams{
			Headline:  in.Headline,
			ThemeID:   util.NullStringFromValue(in.ThemeID),
			UpdatedAt: time.Now().UTC(),
			ID:        id,
		})
		if err != nil {
			return fmt.Errorf("updating post: %w", err)
		}

		if err := q.DeleteInsightsByPost(ctx, id); err != nil {
			return fmt.Errorf("clearing insights: %w", err)
		}
		if err := q.DeleteMediaItemsByPost(ctx, id); err != nil {
			return fmt.Errorf("clearing media: %w", err)
		}
		if err := q.DeleteArticlesByPost(ctx, id); err != nil {
			return fmt.Errorf("clearing articles: %w", err)
		}
		return insertChildren(ctx, q, id, in)
	})
	if err != nil {
		return post, err
	}

	s.afterWrite(ctx, actor, "Post updated", map[string]any{"post_id": id})
	return post, nil
}

// Delete removes a post and all of its children. It returns the deleted
// post so callers can redirect back to its category.
func (s *PostService) Delete(ctx context.Context, actor, id string) (store.Post, error) {
	var post store.Post
	err := store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		post, err = q.GetPost(ctx, id)
		if store.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading post: %w", err)
		}
		if err := q.DeletePostChildren(ctx, id); err != nil {
			return fmt.Errorf("deleting post children: %w", err)
		}
		if _, err := q.DeletePost(ctx, id); err != nil {
			return fmt.Errorf("deleting post: %w", err)
		}
		return nil
	})
	if err != nil {
		return post, err
	}

	s.afterWrite(ctx, actor, "Post deleted", map[string]any{"post_id": id, "edition_id": post.EditionID})
	return post, nil
}

func (s *PostService) afterWrite(ctx context.Context, actor, message string, metadata map[string]any) {
	invalidate(ctx, s.cache)
	if s.events != nil {
		_ = s.events.LogInfo(ctx, model.EventCategoryPost, message, actor, metadata)
	}
}

// checkTheme verifies that themeID is empty or a theme of editionID.
func checkTheme(ctx context.Context, q *store.Queries, editionID, themeID string) error {
	if themeID == "" {
		return nil
	}
	theme, err := q.GetTheme(ctx, themeID)
	if err != nil && !store.IsNotFound(err) {
		return fmt.Errorf("loading theme: %w", err)
	}
	if err != nil || theme.EditionID != editionID {
		return &ValidationError{Fields: map[string]string{"theme_id": "Theme does not belong to this edition"}}
	}
	return nil
}

// insertChildren writes the normalized child lists. Sort order is the
// 0-based position in each list.
func insertChildren(ctx context.Context, q *store.Queries, postID string, in PostInput) error {
	insights := make([]store.PostInsight, len(in.Insights))
	for i, it := range in.Insights {
		insights[i] = store.PostInsight{
			ID:          uuid.NewString(),
			PostID:      postID,
			Label:       it.Label,
			Description: it.Description,
			SortOrder:   int64(i),
		}
	}
	if err := q.InsertInsights(ctx, insights); err != nil {
		return fmt.Errorf("inserting insights: %w", err)
	}

	media := make([]store.MediaItem, len(in.Media))
	for i, m := range in.Media {
		media[i] = store.MediaItem{
			ID:           uuid.NewString(),
			PostID:       postID,
			Type:         m.Type,
			Url:          m.URL,
			ThumbnailUrl: util.NullStringFromValue(m.ThumbnailURL),
			Caption:      util.NullStringFromValue(m.Caption),
			ExternalLink: util.NullStringFromValue(m.ExternalLink),
			Size:         m.Size,
			SortOrder:    int64(i),
		}
	}
	if err := q.InsertMediaItems(ctx, media); err != nil {
		return fmt.Errorf("inserting media: %w", err)
	}

	articles := make([]store.Article, len(in.Articles))
	for i, a := range in.Articles {
		articles[i] = store.Article{
			ID:        uuid.NewString(),
			PostID:    postID,
			Title:     a.Title,
			Url:       a.URL,
			Summary:   a.Summary,
			ImageUrl:  util.NullStringFromValue(a.ImageURL),
			Author:    util.NullStringFromValue(a.Author),
			Source:    util.NullStringFromValue(a.Source),
			SortOrder: int64(i),
		}
	}
	if err := q.InsertArticles(ctx, articles); err != nil {
		return fmt.Errorf("inserting articles: %w", err)
	}
	return nil
}
