// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/util"
)

//go:embed fixtures/demo.yaml
var demoFixtures string

// Fixtures describes seed content in YAML form.
type Fixtures struct {
	Editions     []EditionFixture     `yaml:"editions"`
	AllowedUsers []AllowedUserFixture `yaml:"allowed_users"`
}

// EditionFixture is one edition with its themes and posts.
type EditionFixture struct {
	Date            string        `yaml:"date"`
	HeroSummary     string        `yaml:"hero_summary"`
	HeroDescription string        `yaml:"hero_description"`
	FeaturedMemeURL string        `yaml:"featured_meme_url"`
	Current         bool          `yaml:"current"`
	Themes          []string      `yaml:"themes"`
	Posts           []PostFixture `yaml:"posts"`
}

// PostFixture is one post; Theme refers to a theme name of the same edition.
type PostFixture struct {
	Category string           `yaml:"category"`
	Theme    string           `yaml:"theme"`
	Headline string           `yaml:"headline"`
	Insights []InsightFixture `yaml:"insights"`
	Media    []MediaFixture   `yaml:"media"`
	Articles []ArticleFixture `yaml:"articles"`
}

type InsightFixture struct {
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

type MediaFixture struct {
	Type         string `yaml:"type"`
	URL          string `yaml:"url"`
	ThumbnailURL string `yaml:"thumbnail_url"`
	Caption      string `yaml:"caption"`
	ExternalLink string `yaml:"external_link"`
	Size         string `yaml:"size"`
}

type ArticleFixture struct {
	Title    string `yaml:"title"`
	URL      string `yaml:"url"`
	Summary  string `yaml:"summary"`
	ImageURL string `yaml:"image_url"`
	Author   string `yaml:"author"`
	Source   string `yaml:"source"`
}

type AllowedUserFixture struct {
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
}

// ParseFixtures decodes YAML fixtures from r.
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}
	return &f, nil
}

// SeedDemo loads the built-in demo content when the database has no editions.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	f, err := ParseFixtures(strings.NewReader(demoFixtures))
	if err != nil {
		return err
	}
	return SeedFixtures(ctx, db, f)
}

// SeedFixtures inserts fixtures in one transaction. Seeding is skipped when
// editions already exist so it is safe to run on every start.
func SeedFixtures(ctx context.Context, db *sql.DB, f *Fixtures) error {
	q := New(db)
	count, err := q.CountEditions(ctx)
	if err != nil {
		return fmt.Errorf("counting editions: %w", err)
	}
	if count > 0 {
		slog.Info("editions already exist, skipping seed", "count", count)
		return nil
	}

	categories, err := q.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	categoryIDs := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryIDs[c.Slug] = c.ID
	}

	var posts int
	err = ExecTx(ctx, db, func(qtx *Queries) error {
		// Posts get strictly decreasing timestamps so fixture order is the feed order.
		clock := time.Now().UTC()
		tick := func() time.Time {
			clock = clock.Add(-time.Second)
			return clock
		}

		for _, ef := range f.Editions {
			if _, err := time.Parse(model.DateLayout, ef.Date); err != nil {
				return fmt.Errorf("edition date %q: %w", ef.Date, err)
			}
			now := tick()
			edition, err := qtx.CreateEdition(ctx, CreateEditionParams{
				ID:              uuid.NewString(),
				Date:            ef.Date,
				HeroSummary:     ef.HeroSummary,
				HeroDescription: strings.TrimSpace(ef.HeroDescription),
				FeaturedMemeUrl: util.NullStringTrimmed(ef.FeaturedMemeURL),
				CreatedAt:       now,
				UpdatedAt:       now,
			})
			if err != nil {
				return fmt.Errorf("creating edition %s: %w", ef.Date, err)
			}
			if ef.Current {
				if err := qtx.ClearCurrentEditionsExcept(ctx, ClearCurrentEditionsExceptParams{UpdatedAt: now, ID: edition.ID}); err != nil {
					return err
				}
				if _, err := qtx.MarkEditionCurrent(ctx, MarkEditionCurrentParams{UpdatedAt: now, ID: edition.ID}); err != nil {
					return err
				}
			}

			themeIDs := make(map[string]string, len(ef.Themes))
			for i, name := range ef.Themes {
				theme, err := qtx.CreateTheme(ctx, CreateThemeParams{
					ID:        uuid.NewString(),
					EditionID: edition.ID,
					Name:      name,
					Slug:      util.Slugify(name),
					SortOrder: int64(i),
					CreatedAt: now,
				})
				if err != nil {
					return fmt.Errorf("creating theme %q: %w", name, err)
				}
				themeIDs[name] = theme.ID
			}

			for _, pf := range ef.Posts {
				if err := seedPost(ctx, qtx, edition.ID, categoryIDs, themeIDs, pf, tick()); err != nil {
					return err
				}
				posts++
			}
		}

		for _, uf := range f.AllowedUsers {
			role := uf.Role
			if role == "" {
				role = model.RoleViewer
			}
			if _, err := qtx.CreateAllowedUser(ctx, CreateAllowedUserParams{
				ID:        uuid.NewString(),
				Email:     strings.TrimSpace(uf.Email),
				Name:      util.NullStringTrimmed(uf.Name),
				Role:      role,
				AddedBy:   sql.NullString{String: "seed", Valid: true},
				CreatedAt: time.Now().UTC(),
			}); err != nil {
				return fmt.Errorf("creating allowed user %q: %w", uf.Email, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("seeded content", "editions", len(f.Editions), "posts", posts, "allowed_users", len(f.AllowedUsers))
	return nil
}

func seedPost(ctx context.Context, q *Queries, editionID string, categoryIDs, themeIDs map[string]string, pf PostFixture, createdAt time.Time) error {
	categoryID, ok := categoryIDs[pf.Category]
	if !ok {
		return fmt.Errorf("post %q: unknown category %q", pf.Headline, pf.Category)
	}
	var themeID sql.NullString
	if pf.Theme != "" {
		id, ok := themeIDs[pf.Theme]
		if !ok {
			return fmt.Errorf("post %q: unknown theme %q", pf.Headline, pf.Theme)
		}
		themeID = sql.NullString{String: id, Valid: true}
	}

	post, err := q.CreatePost(ctx, CreatePostParams{
		ID:         uuid.NewString(),
		EditionID:  editionID,
		CategoryID: categoryID,
		ThemeID:    themeID,
		Headline:   pf.Headline,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	})
	if err != nil {
		return fmt.Errorf("creating post %q: %w", pf.Headline, err)
	}

	insights := make([]PostInsight, 0, len(pf.Insights))
	for i, in := range pf.Insights {
		insights = append(insights, PostInsight{
			ID: uuid.NewString(), PostID: post.ID,
			Label: in.Label, Description: in.Description, SortOrder: int64(i),
		})
	}
	media := make([]MediaItem, 0, len(pf.Media))
	for i, m := range pf.Media {
		mediaType, size := m.Type, m.Size
		if mediaType == "" {
			mediaType = model.MediaTypeImage
		}
		if size == "" {
			size = model.MediaSizeMedium
		}
		media = append(media, MediaItem{
			ID: uuid.NewString(), PostID: post.ID,
			Type: mediaType, Url: m.URL, Size: size, SortOrder: int64(i),
			ThumbnailUrl: util.NullStringTrimmed(m.ThumbnailURL),
			Caption:      util.NullStringTrimmed(m.Caption),
			ExternalLink: util.NullStringTrimmed(m.ExternalLink),
		})
	}
	articles := make([]Article, 0, len(pf.Articles))
	for i, a := range pf.Articles {
		articles = append(articles, Article{
			ID: uuid.NewString(), PostID: post.ID,
			Title: a.Title, Url: a.URL, Summary: a.Summary, SortOrder: int64(i),
			ImageUrl: util.NullStringTrimmed(a.ImageURL),
			Author:   util.NullStringTrimmed(a.Author),
			Source:   util.NullStringTrimmed(a.Source),
		})
	}

	if err := q.InsertInsights(ctx, insights); err != nil {
		return fmt.Errorf("inserting insights: %w", err)
	}
	if err := q.InsertMediaItems(ctx, media); err != nil {
		return fmt.Errorf("inserting media: %w", err)
	}
	if err := q.InsertArticles(ctx, articles); err != nil {
		return fmt.Errorf("inserting articles: %w", err)
	}
	return nil
}
