// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/render"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/store"
)

// dashboardRecent is how many editions the dashboard lists.
const dashboardRecent = 5

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	adminBase
	editions *service.EditionService
}

// NewAdminHandler creates a new AdminHandler. src should read uncached so
// the dashboard reflects writes immediately.
func NewAdminHandler(src content.Source, renderer *render.Renderer, editions *service.EditionService) *AdminHandler {
	return &AdminHandler{
		adminBase: adminBase{renderer: renderer, content: src},
		editions:  editions,
	}
}

// DashboardData is the data of the dashboard page.
type DashboardData struct {
	Current  *content.Edition
	Sections []content.CategorySection
	Recent   []store.Edition
}

// adminErrorMessages maps the ?error= indicators of /admin to messages.
var adminErrorMessages = map[string]string{
	"admin_required": "That page requires the admin role.",
}

// Dashboard handles GET /admin.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	ctx := r.Context()

	if msg, ok := adminErrorMessages[r.URL.Query().Get("error")]; ok {
		h.renderer.SetFlash(r, msg, render.FlashError)
	}

	var data DashboardData

	current, err := h.content.CurrentEdition(ctx)
	if err != nil {
		slog.Error("loading current edition", "error", err)
	}
	data.Current = current

	if current != nil {
		ec, err := h.content.EditionContent(ctx, current.ID)
		if err != nil {
			slog.Error("loading edition content", "error", err, "edition_id", current.ID)
		} else {
			data.Sections = ec.Sections
		}
	}

	editions, err := h.editions.List(ctx)
	if err != nil {
		slog.Error("listing editions", "error", err)
	}
	if len(editions) > dashboardRecent {
		editions = editions[:dashboardRecent]
	}
	data.Recent = editions

	h.render(w, r, templateDashboard, "Dashboard", data)
}
