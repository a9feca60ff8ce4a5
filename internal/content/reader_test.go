// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/dose-go/internal/store"
	"github.com/olegiv/dose-go/internal/testutil"
)

func TestReader_PostsByCategory_NoPosts(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")

	feed, err := r.PostsByCategory(context.Background(), "memes")
	require.NoError(t, err)
	require.NotNil(t, feed.DateGroups)
	assert.Empty(t, feed.DateGroups)
	require.NotNil(t, feed.Category)
	assert.Equal(t, "memes", feed.Category.Slug)
}

func TestReader_PostsByCategory_UnknownSlug(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")

	feed, err := r.PostsByCategory(context.Background(), "podcasts")
	require.NoError(t, err)
	assert.Nil(t, feed.Category)
	assert.NotNil(t, feed.DateGroups)
	assert.Empty(t, feed.DateGroups)
}

func TestReader_PostsByCategory_GroupsNewestFirst(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")

	older := testutil.CreateEdition(t, db, "2025-12-01")
	newer := testutil.CreateEdition(t, db, "2026-02-02")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// The post under the older edition is created last so post timestamps
	// disagree with edition dates.
	testutil.CreatePost(t, db, newer.ID, "memes", "new", testutil.PostOptions{CreatedAt: base})
	p := testutil.CreatePost(t, db, older.ID, "memes", "old", testutil.PostOptions{CreatedAt: base.Add(time.Hour)})
	testutil.CreatePost(t, db, newer.ID, "design", "other category", testutil.PostOptions{CreatedAt: base})
	testutil.AddMedia(t, db, p.ID, "", 1)
	testutil.AddMedia(t, db, p.ID, "https://img.example.com/a.png", 0)

	feed, err := r.PostsByCategory(context.Background(), "memes")
	require.NoError(t, err)
	require.Len(t, feed.DateGroups, 2)
	assert.Equal(t, "2026-02-02", feed.DateGroups[0].Date)
	assert.Equal(t, "2025-12-01", feed.DateGroups[1].Date)
	require.Len(t, feed.DateGroups[0].Posts, 1)
	assert.Equal(t, "new", feed.DateGroups[0].Posts[0].Headline)

	oldPost := feed.DateGroups[1].Posts[0]
	require.Len(t, oldPost.Media, 2)
	assert.Equal(t, "https://img.example.com/a.png", oldPost.Media[0].URL)
	assert.True(t, oldPost.Media[1].IsPending(), "items without a url stay in place")
}

func TestReader_PostsByCategory_SameDateNewestPostFirst(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")

	e := testutil.CreateEdition(t, db, "2026-02-02")
	base := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	testutil.CreatePost(t, db, e.ID, "video", "first", testutil.PostOptions{CreatedAt: base})
	testutil.CreatePost(t, db, e.ID, "video", "second", testutil.PostOptions{CreatedAt: base.Add(time.Minute)})

	feed, err := r.PostsByCategory(context.Background(), "video")
	require.NoError(t, err)
	require.Len(t, feed.DateGroups, 1)
	assert.Equal(t, []string{"second", "first"}, headlines(feed.DateGroups[0].Posts))
}

func TestReader_PostsByCategory_ChildrenAcrossBatches(t *testing.T) {
	old := childBatchSize
	childBatchSize = 2
	t.Cleanup(func() { childBatchSize = old })

	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")
	e := testutil.CreateEdition(t, db, "2026-04-06")
	base := time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

	const n = 5
	for i := range n {
		headline := fmt.Sprintf("post %d", i)
		p := testutil.CreatePost(t, db, e.ID, "articles", headline, testutil.PostOptions{CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		testutil.AddInsight(t, db, p.ID, headline+" second", 1)
		testutil.AddInsight(t, db, p.ID, headline+" first", 0)
		testutil.AddArticle(t, db, p.ID, headline+" read", 0)
	}

	feed, err := r.PostsByCategory(context.Background(), "articles")
	require.NoError(t, err)
	require.Len(t, feed.DateGroups, 1)
	posts := feed.DateGroups[0].Posts
	require.Len(t, posts, n)
	for _, p := range posts {
		require.Len(t, p.Insights, 2, p.Headline)
		assert.Equal(t, p.Headline+" first", p.Insights[0].Label)
		assert.Equal(t, p.Headline+" second", p.Insights[1].Label)
		require.Len(t, p.Articles, 1, p.Headline)
		assert.Equal(t, p.Headline+" read", p.Articles[0].Title)
		assert.Empty(t, p.Media)
	}
}

func TestReader_CurrentEdition(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")
	ctx := context.Background()

	e := testutil.CreateEdition(t, db, "2026-02-02")
	testutil.CreateEdition(t, db, "2025-12-01")

	none, err := r.CurrentEdition(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = store.New(db).MarkEditionCurrent(ctx, store.MarkEditionCurrentParams{UpdatedAt: time.Now().UTC(), ID: e.ID})
	require.NoError(t, err)

	cur, err := r.CurrentEdition(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, e.ID, cur.ID)
	assert.True(t, cur.IsCurrent)
}

func TestReader_EditionWithThemes_SortsInsights(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")

	e := testutil.CreateEdition(t, db, "2026-02-02")
	theme := testutil.CreateTheme(t, db, e.ID, "Soft Launch", 0)
	p := testutil.CreatePost(t, db, e.ID, "design", "themed", testutil.PostOptions{ThemeID: theme.ID})
	testutil.AddInsight(t, db, p.ID, "second", 1)
	testutil.AddInsight(t, db, p.ID, "first", 0)
	testutil.CreatePost(t, db, e.ID, "memes", "unthemed", testutil.PostOptions{})

	got, err := r.EditionWithThemes(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	require.Len(t, got.Themes, 1)
	require.Len(t, got.Themes[0].Posts, 1)

	post := got.Themes[0].Posts[0]
	require.Len(t, post.Insights, 2)
	assert.Equal(t, int64(0), post.Insights[0].SortOrder)
	assert.Equal(t, "first", post.Insights[0].Label)
	assert.Equal(t, int64(1), post.Insights[1].SortOrder)
}

func TestReader_EditionWithThemes_NotFoundVersusEmpty(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")
	ctx := context.Background()

	_, err := r.EditionWithThemes(ctx, "no-such-edition")
	assert.ErrorIs(t, err, ErrNotFound)

	e := testutil.CreateEdition(t, db, "2026-02-02")
	got, err := r.EditionWithThemes(ctx, e.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Themes)
	assert.Empty(t, got.Themes)
}

func TestReader_EditionsForArchive(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")

	testutil.CreateEdition(t, db, "2025-12-01")
	testutil.CreateEdition(t, db, "2026-02-02")
	testutil.CreateEdition(t, db, "2024-07-15")

	editions, err := r.EditionsForArchive(context.Background())
	require.NoError(t, err)
	require.Len(t, editions, 3)
	assert.Equal(t, "2026-02-02", editions[0].Date)
	assert.Equal(t, "2025-12-01", editions[1].Date)
	assert.Equal(t, "2024-07-15", editions[2].Date)
}

func TestReader_HomePage(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")
	ctx := context.Background()

	empty, err := r.HomePage(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty.Edition)
	assert.Empty(t, empty.Sections)

	e := testutil.CreateEdition(t, db, "2026-02-02")
	testutil.CreatePost(t, db, e.ID, "articles", "reads", testutil.PostOptions{})
	testutil.CreatePost(t, db, e.ID, "memes", "lols", testutil.PostOptions{})
	_, err = store.New(db).MarkEditionCurrent(ctx, store.MarkEditionCurrentParams{UpdatedAt: time.Now().UTC(), ID: e.ID})
	require.NoError(t, err)

	home, err := r.HomePage(ctx)
	require.NoError(t, err)
	require.NotNil(t, home.Edition)
	require.Len(t, home.Sections, 2)
	assert.Equal(t, "memes", home.Sections[0].Slug)
	assert.Equal(t, "articles", home.Sections[1].Slug)
}

func TestReader_EditionContent(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")

	e := testutil.CreateEdition(t, db, "2026-02-02")
	testutil.CreateTheme(t, db, e.ID, "B", 1)
	testutil.CreateTheme(t, db, e.ID, "A", 0)
	p := testutil.CreatePost(t, db, e.ID, "video", "clip", testutil.PostOptions{})
	testutil.AddArticle(t, db, p.ID, "z", 1)
	testutil.AddArticle(t, db, p.ID, "y", 0)

	got, err := r.EditionContent(context.Background(), e.ID)
	require.NoError(t, err)
	require.Len(t, got.Themes, 2)
	assert.Equal(t, "A", got.Themes[0].Name)
	require.Len(t, got.Sections, 4, "every category is listed for editing")
	assert.Empty(t, got.Sections[0].Posts)

	video := got.Sections[2]
	assert.Equal(t, "video", video.Slug)
	require.Len(t, video.Posts, 1)
	assert.Equal(t, "y", video.Posts[0].Articles[0].Title)
}

func TestReader_MediaLibrary(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")

	e := testutil.CreateEdition(t, db, "2026-02-02")
	p := testutil.CreatePost(t, db, e.ID, "memes", "pics", testutil.PostOptions{})
	testutil.AddMedia(t, db, p.ID, "https://img.example.com/2.png", 1)
	testutil.AddMedia(t, db, p.ID, "https://img.example.com/1.png", 0)

	items, err := r.MediaLibrary(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://img.example.com/1.png", items[0].URL)
	assert.Equal(t, "pics", items[0].Headline)
	assert.Equal(t, "memes", items[0].CategorySlug)
	assert.Equal(t, "2026-02-02", items[0].EditionDate)
}

func TestReader_CategoryBySlug(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewReader(db, "sqlite")

	c, err := r.CategoryBySlug(context.Background(), "design")
	require.NoError(t, err)
	assert.Equal(t, "Design", c.Name)

	_, err = r.CategoryBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func headlines(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Headline
	}
	return out
}
