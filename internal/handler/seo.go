// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/seo"
)

// SEOHandler serves sitemap.xml and robots.txt.
type SEOHandler struct {
	content     content.Source
	siteURL     string
	disallowAll bool
}

// NewSEOHandler creates a new SEOHandler. disallowAll blocks every crawler.
func NewSEOHandler(src content.Source, siteURL string, disallowAll bool) *SEOHandler {
	return &SEOHandler{content: src, siteURL: siteURL, disallowAll: disallowAll}
}

// Sitemap handles GET /sitemap.xml.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	editions, err := h.content.EditionsForArchive(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load editions for sitemap", "error", err)
		return
	}

	entries := make([]seo.SitemapEdition, 0, len(editions))
	for _, e := range editions {
		entries = append(entries, seo.SitemapEdition{ID: e.ID, UpdatedAt: e.UpdatedAt})
	}

	out, err := seo.GenerateSitemap(h.siteURL, model.CategorySlugs, entries)
	if err != nil {
		logAndInternalError(w, "failed to build sitemap", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(out); err != nil {
		slog.Debug("writing sitemap", "error", err)
	}
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	body := seo.GenerateRobots(seo.RobotsConfig{SiteURL: h.siteURL, DisallowAll: h.disallowAll})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Debug("writing robots.txt", "error", err)
	}
}
