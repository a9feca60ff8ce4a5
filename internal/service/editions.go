// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/store"
	"github.com/olegiv/dose-go/internal/util"
)

// EditionInput is the editable part of an edition.
type EditionInput struct {
	Date            string
	HeroSummary     string
	HeroDescription string
	FeaturedMemeURL string
}

func (in *EditionInput) normalize() {
	in.Date = strings.TrimSpace(in.Date)
	in.HeroSummary = strings.TrimSpace(in.HeroSummary)
	in.HeroDescription = strings.TrimSpace(in.HeroDescription)
	in.FeaturedMemeURL = strings.TrimSpace(in.FeaturedMemeURL)
}

func (in EditionInput) validate() error {
	v := validator{}
	v.check(in.Date != "", "date", "Date is required")
	if in.Date != "" {
		_, err := time.Parse(model.DateLayout, in.Date)
		v.check(err == nil, "date", "Date must be in YYYY-MM-DD format")
	}
	v.check(in.HeroSummary != "", "hero_summary", "Hero summary is required")
	v.check(in.HeroDescription != "", "hero_description", "Hero description is required")
	v.check(isValidLink(in.FeaturedMemeURL), "featured_meme_url", "Featured meme URL is not a valid URL")
	return v.err()
}

// isValidLink accepts an empty value, an absolute http(s) URL or a
// root-relative path.
func isValidLink(s string) bool {
	if s == "" {
		return true
	}
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return true
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// EditionService manages editions.
type EditionService struct {
	db     *sql.DB
	events *EventService
	cache  Invalidator
}

// NewEditionService creates an EditionService. cache may be nil.
func NewEditionService(db *sql.DB, events *EventService, cache Invalidator) *EditionService {
	return &EditionService{db: db, events: events, cache: cache}
}

// List returns every edition, newest first.
func (s *EditionService) List(ctx context.Context) ([]store.Edition, error) {
	return store.New(s.db).ListEditions(ctx)
}

// Get returns one edition or ErrNotFound.
func (s *EditionService) Get(ctx context.Context, id string) (store.Edition, error) {
	e, err := store.New(s.db).GetEdition(ctx, id)
	if store.IsNotFound(err) {
		return e, ErrNotFound
	}
	return e, err
}

// Create validates in and inserts a new, non-current edition.
func (s *EditionService) Create(ctx context.Context, actor string, in EditionInput) (store.Edition, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return store.Edition{}, err
	}

	now := time.Now().UTC()
	e, err := store.New(s.db).CreateEdition(ctx, store.CreateEditionParams{
		ID:              uuid.NewString(),
		Date:            in.Date,
		HeroSummary:     in.HeroSummary,
		HeroDescription: in.HeroDescription,
		FeaturedMemeUrl: util.NullStringFromValue(in.FeaturedMemeURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return e, fmt.Errorf("creating edition: %w", err)
	}

	s.afterWrite(ctx, actor, "Edition created", map[string]any{"edition_id": e.ID, "date": e.Date})
	return e, nil
}

// Update replaces the editable fields of an edition.
func (s *EditionService) Update(ctx context.Context, actor, id string, in EditionInput) (store.Edition, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return store.Edition{}, err
	}

	e, err := store.New(s.db).UpdateEdition(ctx, store.UpdateEditionParams{
		Date:            in.Date,
		HeroSummary:     in.HeroSummary,
		HeroDescription: in.HeroDescription,
		FeaturedMemeUrl: util.NullStringFromValue(in.FeaturedMemeURL),
		UpdatedAt:       time.Now().UTC(),
		ID:              id,
	})
	if store.IsNotFound(err) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("updating edition: %w", err)
	}

	s.afterWrite(ctx, actor, "Edition updated", map[string]any{"edition_id": e.ID})
	return e, nil
}

// Delete removes an edition together with its themes, posts and their
// children in one transaction.
func (s *EditionService) Delete(ctx context.Context, actor, id string) error {
	err := store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		postIDs, err := q.ListPostIDsByEdition(ctx, id)
		if err != nil {
			return fmt.Errorf("listing posts: %w", err)
		}
		if err := q.DeletePostChildren(ctx, postIDs...); err != nil {
			return fmt.Errorf("deleting post children: %w", err)
		}
		// Posts and themes follow through ON DELETE CASCADE.
		n, err := q.DeleteEdition(ctx, id)
		if err != nil {
			return fmt.Errorf("deleting edition: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, actor, "Edition deleted", map[string]any{"edition_id": id})
	return nil
}

// SetCurrent flags id as the current edition and clears the flag on every
// other edition in a single transaction.
func (s *EditionService) SetCurrent(ctx context.Context, actor, id string) error {
	now := time.Now().UTC()
	err := store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		if err := q.ClearCurrentEditionsExcept(ctx, store.ClearCurrentEditionsExceptParams{UpdatedAt: now, ID: id}); err != nil {
			return fmt.Errorf("clearing current edition: %w", err)
		}
		n, err := q.MarkEditionCurrent(ctx, store.MarkEditionCurrentParams{UpdatedAt: now, ID: id})
		if err != nil {
			return fmt.Errorf("marking edition current: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, actor, "Edition set as current", map[string]any{"edition_id": id})
	return nil
}

func (s *EditionService) afterWrite(ctx context.Context, actor, message string, metadata map[string]any) {
	invalidate(ctx, s.cache)
	if s.events != nil {
		_ = s.events.LogInfo(ctx, model.EventCategoryEdition, message, actor, metadata)
	}
}

// invalidate drops cached read models. Failures are logged and stale
// entries expire with their TTL.
func invalidate(ctx context.Context, c Invalidator) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate content cache", "error", err)
	}
}
