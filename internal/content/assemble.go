// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/olegiv/dose-go/internal/model"
)

// SortInsights orders insights by ascending sort order in place.
// Equal keys keep their input order.
func SortInsights(items []Insight) {
	slices.SortStableFunc(items, func(a, b Insight) int { return cmp.Compare(a.SortOrder, b.SortOrder) })
}

// SortMedia orders media items by ascending sort order in place.
func SortMedia(items []MediaItem) {
	slices.SortStableFunc(items, func(a, b MediaItem) int { return cmp.Compare(a.SortOrder, b.SortOrder) })
}

// SortArticles orders articles by ascending sort order in place.
func SortArticles(items []Article) {
	slices.SortStableFunc(items, func(a, b Article) int { return cmp.Compare(a.SortOrder, b.SortOrder) })
}

// SortChildren orders every child collection of p.
func SortChildren(p *Post) {
	SortInsights(p.Insights)
	SortMedia(p.Media)
	SortArticles(p.Articles)
}

// AttachChildren distributes child rows onto their posts and sorts each
// collection. Posts keep their input order. Every post ends up with non-nil
// child slices so an empty post renders as an empty section.
func AttachChildren(posts []Post, insights []Insight, media []MediaItem, articles []Article) []Post {
	index := make(map[string]int, len(posts))
	for i := range posts {
		index[posts[i].ID] = i
		posts[i].Insights = []Insight{}
		posts[i].Media = []MediaItem{}
		posts[i].Articles = []Article{}
	}

	for _, in := range insights {
		if i, ok := index[in.PostID]; ok {
			posts[i].Insights = append(posts[i].Insights, in)
		}
	}
	for _, m := range media {
		if i, ok := index[m.PostID]; ok {
			posts[i].Media = append(posts[i].Media, m)
		}
	}
	for _, a := range articles {
		if i, ok := index[a.PostID]; ok {
			posts[i].Articles = append(posts[i].Articles, a)
		}
	}

	for i := range posts {
		SortChildren(&posts[i])
	}
	return posts
}

// CompareDates orders two edition dates. Dates in YYYY-MM-DD form are
// compared as calendar days; anything else falls back to string order and
// sorts after every parseable date when mixed.
func CompareDates(a, b string) int {
	ta, errA := time.Parse(model.DateLayout, a)
	tb, errB := time.Parse(model.DateLayout, b)
	switch {
	case errA == nil && errB == nil:
		return ta.Compare(tb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// GroupByEditionDate groups posts by their owning edition's date. Groups are
// ordered newest first; posts keep their input order inside a group.
func GroupByEditionDate(posts []Post) []DateGroup {
	groups := []DateGroup{}
	index := make(map[string]int)
	for _, p := range posts {
		i, ok := index[p.EditionDate]
		if !ok {
			i = len(groups)
			index[p.EditionDate] = i
			groups = append(groups, DateGroup{Date: p.EditionDate})
		}
		groups[i].Posts = append(groups[i].Posts, p)
	}

	slices.SortStableFunc(groups, func(a, b DateGroup) int { return CompareDates(b.Date, a.Date) })
	return groups
}

// SortEditionsByDate orders editions newest first in place.
func SortEditionsByDate(editions []Edition) {
	slices.SortStableFunc(editions, func(a, b Edition) int { return CompareDates(b.Date, a.Date) })
}

// GroupByTheme builds the themed sections of an edition. Themes are ordered
// by sort order and each carries the posts assigned to it in input order.
// Posts without a theme, or with a theme outside the list, are left out.
func GroupByTheme(themes []Theme, posts []Post) []ThemeSection {
	ordered := slices.Clone(themes)
	slices.SortStableFunc(ordered, func(a, b Theme) int { return cmp.Compare(a.SortOrder, b.SortOrder) })

	sections := make([]ThemeSection, len(ordered))
	index := make(map[string]int, len(ordered))
	for i, t := range ordered {
		sections[i] = ThemeSection{Theme: t, Posts: []Post{}}
		index[t.ID] = i
	}
	for _, p := range posts {
		if i, ok := index[p.ThemeID]; ok && p.ThemeID != "" {
			sections[i].Posts = append(sections[i].Posts, p)
		}
	}
	return sections
}

// GroupByCategory builds one section per category in category sort order.
// When includeEmpty is false, categories without posts are dropped.
func GroupByCategory(categories []Category, posts []Post, includeEmpty bool) []CategorySection {
	ordered := slices.Clone(categories)
	slices.SortStableFunc(ordered, func(a, b Category) int { return cmp.Compare(a.SortOrder, b.SortOrder) })

	sections := make([]CategorySection, len(ordered))
	index := make(map[string]int, len(ordered))
	for i, c := range ordered {
		sections[i] = CategorySection{Category: c, Posts: []Post{}}
		index[c.ID] = i
	}
	for _, p := range posts {
		if i, ok := index[p.CategoryID]; ok {
			sections[i].Posts = append(sections[i].Posts, p)
		}
	}

	if includeEmpty {
		return sections
	}
	return slices.DeleteFunc(sections, func(s CategorySection) bool { return len(s.Posts) == 0 })
}

// PickCurrent returns the edition flagged current, or nil. More than one
// flagged row is tolerated and resolved to the most recent date.
func PickCurrent(editions []Edition) *Edition {
	var current *Edition
	for i := range editions {
		e := editions[i]
		if !e.IsCurrent {
			continue
		}
		if current == nil || CompareDates(e.Date, current.Date) > 0 {
			current = &e
		}
	}
	return current
}
