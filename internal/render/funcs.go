// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/util"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	// htmlSanitizer strips anything unsafe that markdown let through.
	htmlSanitizer = bluemonday.UGCPolicy().AddTargetBlankToFullyQualifiedLinks(true)
)

// Markdown renders editor-entered markdown to sanitized HTML.
func Markdown(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}

// FormatEditionDate renders a YYYY-MM-DD edition date for readers.
// Dates in any other form are shown as stored.
func FormatEditionDate(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}

// Funcs returns custom template functions.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"markdown":    Markdown,
		"editionDate": FormatEditionDate,
		"embedURL":    util.EmbedURL,
		"embedKind":   util.EmbedProvider,
		"formatDateTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"truncate": func(s string, length int) string {
			r := []rune(s)
			if len(r) <= length {
				return s
			}
			return string(r[:length]) + "..."
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},
		"roles":       func() []string { return model.Roles },
		"mediaTypes":  func() []string { return model.MediaTypes },
		"mediaSizes":  func() []string { return model.MediaSizes },
		"eventLevels": func() []string { return model.EventLevels },
		"eventCategories": func() []string {
			return model.EventCategories
		},
	}
}
