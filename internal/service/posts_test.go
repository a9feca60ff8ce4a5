// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/store"
	"github.com/olegiv/dose-go/internal/testutil"
)

func TestPostService_CreateWithChildren(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewPostService(db, nil, nil)
	ctx := context.Background()

	e := testutil.CreateEdition(t, db, "2026-02-02")
	theme := testutil.CreateTheme(t, db, e.ID, "Hands On", 0)

	p, err := svc.Create(ctx, "", e.ID, "design", PostInput{
		Headline: "  Pencil-first  ",
		ThemeID:  theme.ID,
		Insights: []InsightInput{{Label: "", Description: "No label given"}, {}, {Label: "Why", Description: "Because"}},
		Media: []MediaInput{
			{URL: "https://img.example.com/a.png"},
			{Caption: "Waiting for the file", ExternalLink: "https://www.instagram.com/reel/Cabc/"},
			{},
		},
		Articles: []ArticleInput{{Title: "Slow software"}, {}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pencil-first", p.Headline)
	assert.Equal(t, theme.ID, p.ThemeID.String)

	d, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)

	require.Len(t, d.Insights, 3, "every submitted insight is stored")
	assert.Equal(t, "Insight", d.Insights[0].Label)
	assert.Equal(t, "No label given", d.Insights[0].Description)
	assert.Equal(t, "Insight", d.Insights[1].Label)
	assert.Empty(t, d.Insights[1].Description)
	assert.Equal(t, "Why", d.Insights[2].Label)
	assert.Equal(t, []int64{0, 1, 2}, []int64{d.Insights[0].SortOrder, d.Insights[1].SortOrder, d.Insights[2].SortOrder})

	require.Len(t, d.Media, 2)
	assert.Equal(t, "image", d.Media[0].Type)
	assert.Equal(t, "medium", d.Media[0].Size)
	assert.Empty(t, d.Media[1].Url, "pending media is kept without a url")
	assert.Equal(t, int64(1), d.Media[1].SortOrder)

	require.Len(t, d.Articles, 1)
	assert.Equal(t, "#", d.Articles[0].Url)
}

func TestPostService_CreateValidation(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewPostService(db, nil, nil)
	ctx := context.Background()

	e := testutil.CreateEdition(t, db, "2026-02-02")
	other := testutil.CreateEdition(t, db, "2026-01-01")
	foreignTheme := testutil.CreateTheme(t, db, other.ID, "Elsewhere", 0)

	_, err := svc.Create(ctx, "", e.ID, "memes", PostInput{Headline: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, "", e.ID, "memes", PostInput{Headline: "h", Media: []MediaInput{{URL: "x", Size: "huge"}}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, "", e.ID, "memes", PostInput{Headline: "h", Articles: []ArticleInput{{URL: "https://example.com"}}})
	assert.ErrorIs(t, err, ErrValidation, "an article needs a title")

	_, err = svc.Create(ctx, "", e.ID, "memes", PostInput{Headline: "h", ThemeID: foreignTheme.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, "", e.ID, "podcasts", PostInput{Headline: "h"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(ctx, "", "missing-edition", "memes", PostInput{Headline: "h"})
	assert.ErrorIs(t, err, ErrValidation)

	count, err := store.New(db).CountPosts(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPostService_UpdateReplacesChildren(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewPostService(db, nil, nil)
	ctx := context.Background()

	e := testutil.CreateEdition(t, db, "2026-02-02")
	p, err := svc.Create(ctx, "", e.ID, "memes", PostInput{
		Headline: "h",
		Insights: []InsightInput{{Label: "A"}, {Label: "B"}},
		Media:    []MediaInput{{URL: "https://img.example.com/old.png"}},
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "", p.ID, PostInput{
		Headline: "h2",
		Insights: []InsightInput{{Label: "C"}},
	})
	require.NoError(t, err)

	d, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", d.Post.Headline)
	require.Len(t, d.Insights, 1)
	assert.Equal(t, "C", d.Insights[0].Label)
	assert.Equal(t, int64(0), d.Insights[0].SortOrder)
	assert.Empty(t, d.Media, "children missing from the submission are removed")
}

func TestPostService_UpdateValidationLeavesChildren(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewPostService(db, nil, nil)
	ctx := context.Background()

	e := testutil.CreateEdition(t, db, "2026-02-02")
	p, err := svc.Create(ctx, "", e.ID, "memes", PostInput{Headline: "h", Insights: []InsightInput{{Label: "A"}}})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "", p.ID, PostInput{Headline: "h", ThemeID: "no-such-theme"})
	require.ErrorIs(t, err, ErrValidation)

	d, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, d.Insights, 1)
	assert.Equal(t, "A", d.Insights[0].Label)

	_, err = svc.Update(ctx, "", "missing", PostInput{Headline: "h"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_DeleteRemovesChildren(t *testing.T) {
	db := testutil.TestDB(t)
	inv := &countingInvalidator{}
	svc := NewPostService(db, NewEventService(db), inv)
	ctx := context.Background()

	e := testutil.CreateEdition(t, db, "2026-02-02")
	p, err := svc.Create(ctx, "", e.ID, "articles", PostInput{
		Headline: "h",
		Insights: []InsightInput{{Label: "A"}},
		Media:    []MediaInput{{URL: "https://img.example.com/a.png"}},
		Articles: []ArticleInput{{Title: "t", URL: "https://example.com"}},
	})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, "admin@example.com", p.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, deleted.EditionID)
	assert.Equal(t, 2, inv.calls)

	q := store.New(db)
	insights, err := q.ListInsightsByPost(ctx, p.ID)
	require.NoError(t, err)
	media, err := q.ListMediaItemsByPost(ctx, p.ID)
	require.NoError(t, err)
	articles, err := q.ListArticlesByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, insights)
	assert.Empty(t, media)
	assert.Empty(t, articles)

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Delete(ctx, "", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_ReadBackThroughContent(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewPostService(db, nil, nil)
	reader := content.NewReader(db, "sqlite")
	ctx := context.Background()

	e := testutil.CreateEdition(t, db, "2026-02-02")
	_, err := svc.Create(ctx, "", e.ID, "video", PostInput{
		Headline: "clip",
		Media:    []MediaInput{{Type: "video", URL: "https://cdn.example.com/a.mp4", Size: "large"}},
	})
	require.NoError(t, err)

	feed, err := reader.PostsByCategory(ctx, "video")
	require.NoError(t, err)
	require.Len(t, feed.DateGroups, 1)
	require.Len(t, feed.DateGroups[0].Posts[0].Media, 1)
	assert.True(t, feed.DateGroups[0].Posts[0].Media[0].IsVideo())
}

func TestPostInput_NormalizeDropsBlankRows(t *testing.T) {
	in := PostInput{
		Headline: " h ",
		Insights: []InsightInput{{Label: " ", Description: " "}},
		Media:    []MediaInput{{Type: "video", Size: "large"}},
		Articles: []ArticleInput{{Title: " ", URL: " "}},
	}
	in.normalize()
	assert.Equal(t, "h", in.Headline)
	assert.Equal(t, []InsightInput{{Label: "Insight"}}, in.Insights, "blank insights are kept with the default label")
	assert.Empty(t, in.Media, "type and size alone do not make a row")
	assert.Empty(t, in.Articles)
}
