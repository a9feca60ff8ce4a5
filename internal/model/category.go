// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Category slugs. The set is fixed and created by migration.
const (
	CategoryMemes    = "memes"
	CategoryDesign   = "design"
	CategoryVideo    = "video"
	CategoryArticles = "articles"
)

// CategorySlugs lists the category slugs in navigation order.
var CategorySlugs = []string{CategoryMemes, CategoryDesign, CategoryVideo, CategoryArticles}

// IsCategorySlug reports whether slug names one of the fixed categories.
func IsCategorySlug(slug string) bool {
	for _, s := range CategorySlugs {
		if s == slug {
			return true
		}
	}
	return false
}

// DefaultInsightLabel is used when an insight is saved without a label.
const DefaultInsightLabel = "Insight"

// DefaultArticleURL is stored for articles saved with a title but no link.
const DefaultArticleURL = "#"

// DateLayout is the canonical edition date encoding (fixed width, sortable).
const DateLayout = "2006-01-02"
