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

// ThemeInput is the editable part of a theme. A nil SortOrder on create
// appends the theme after the existing ones.
type ThemeInput struct {
	Name      string
	Slug      string
	SortOrder *int64
}

func (in *ThemeInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = util.Slugify(in.Name)
	}
}

func (in ThemeInput) validate() error {
	v := validator{}
	v.check(in.Name != "", "name", "Theme name is required")
	v.check(in.Slug == "" || util.IsValidSlug(in.Slug), "slug", "Slug may only contain lowercase letters, digits and hyphens")
	v.check(in.SortOrder == nil || *in.SortOrder >= 0, "sort_order", "Sort order must not be negative")
	return v.err()
}

// ThemeService manages edition themes.
type ThemeService struct {
	db     *sql.DB
	events *EventService
	cache  Invalidator
}

// NewThemeService creates a ThemeService. cache may be nil.
func NewThemeService(db *sql.DB, events *EventService, cache Invalidator) *ThemeService {
	return &ThemeService{db: db, events: events, cache: cache}
}

// Get returns one theme or ErrNotFound.
func (s *ThemeService) Get(ctx context.Context, id string) (store.Theme, error) {
	t, err := store.New(s.db).GetTheme(ctx, id)
	if store.IsNotFound(err) {
		return t, ErrNotFound
	}
	return t, err
}

// Create adds a theme to an edition.
func (s *ThemeService) Create(ctx context.Context, actor, editionID string, in ThemeInput) (store.Theme, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return store.Theme{}, err
	}

	var theme store.Theme
	err := store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetEdition(ctx, editionID); err != nil {
			if store.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("loading edition: %w", err)
		}

		var order int64
		if in.SortOrder != nil {
			order = *in.SortOrder
		} else {
			next, err := q.NextThemeSortOrder(ctx, editionID)
			if err != nil {
				return fmt.Errorf("computing sort order: %w", err)
			}
			order = next
		}

		var err error
		theme, err = q.CreateTheme(ctx, store.CreateThemeParams{
			ID:        uuid.NewString(),
			EditionID: editionID,
			Name:      in.Name,
			Slug:      in.Slug,
			SortOrder: order,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("creating theme: %w", err)
		}
		return nil
	})
	if err != nil {
		return theme, err
	}

	s.afterWrite(ctx, actor, "Theme created", map[string]any{"theme_id": theme.ID, "edition_id": editionID})
	return theme, nil
}

// Update renames or reorders a theme. A nil SortOrder keeps the current one.
func (s *ThemeService) Update(ctx context.Context, actor, id string, in ThemeInput) (store.Theme, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return store.Theme{}, err
	}

	q := store.New(s.db)
	existing, err := q.GetTheme(ctx, id)
	if store.IsNotFound(err) {
		return existing, ErrNotFound
	}
	if err != nil {
		return existing, fmt.Errorf("loading theme: %w", err)
	}

	order := existing.SortOrder
	if in.SortOrder != nil {
		order = *in.SortOrder
	}
	theme, err := q.UpdateTheme(ctx, store.UpdateThemeParams{
		Name:      in.Name,
		Slug:      in.Slug,
		SortOrder: order,
		ID:        id,
	})
	if err != nil {
		return theme, fmt.Errorf("updating theme: %w", err)
	}

	s.afterWrite(ctx, actor, "Theme updated", map[string]any{"theme_id": id})
	return theme, nil
}

// Delete removes a theme. Its posts stay in the edition without a theme.
func (s *ThemeService) Delete(ctx context.Context, actor, id string) (store.Theme, error) {
	var theme store.Theme
	err := store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		theme, err = q.GetTheme(ctx, id)
		if store.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading theme: %w", err)
		}
		if err := q.UnassignThemePosts(ctx, id); err != nil {
			return fmt.Errorf("unassigning posts: %w", err)
		}
		if _, err := q.DeleteTheme(ctx, id); err != nil {
			return fmt.Errorf("deleting theme: %w", err)
		}
		return nil
	})
	if err != nil {
		return theme, err
	}

	s.afterWrite(ctx, actor, "Theme deleted", map[string]any{"theme_id": id, "edition_id": theme.EditionID})
	return theme, nil
}

func (s *ThemeService) afterWrite(ctx context.Context, actor, message string, metadata map[string]any) {
	invalidate(ctx, s.cache)
	if s.events != nil {
		_ = s.events.LogInfo(ctx, model.EventCategoryEdition, message, actor, metadata)
	}
}
