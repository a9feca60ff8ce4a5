// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/render"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/store"
)

// EventsPerPage is the number of events shown per page.
const EventsPerPage = 50

// EventsHandler handles the event log page.
type EventsHandler struct {
	adminBase
	events *service.EventService
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(src content.Source, renderer *render.Renderer, events *service.EventService) *EventsHandler {
	return &EventsHandler{
		adminBase: adminBase{renderer: renderer, content: src},
		events:    events,
	}
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events     []store.Event
	Level      string
	Category   string
	Pagination AdminPagination
}

// List handles GET /admin/events. Unknown filter values are ignored.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.EventFilter{Level: q.Get("level"), Category: q.Get("category")}
	if !slices.Contains(model.EventLevels, filter.Level) {
		filter.Level = ""
	}
	if !slices.Contains(model.EventCategories, filter.Category) {
		filter.Category = ""
	}

	page := ParsePageParam(r)
	result, err := h.events.List(r.Context(), filter, EventsPerPage, uint64((page-1)*EventsPerPage))
	if err != nil {
		slog.Error("listing events", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Events could not be loaded.")
		return
	}

	totalPages := CalculateTotalPages(int(result.Total), EventsPerPage)
	if clamped := ClampPage(page, totalPages); clamped != page {
		page = clamped
		result, err = h.events.List(r.Context(), filter, EventsPerPage, uint64((page-1)*EventsPerPage))
		if err != nil {
			slog.Error("listing events", "error", err)
			h.renderError(w, r, http.StatusInternalServerError, "Events could not be loaded.")
			return
		}
	}

	data := EventsListData{
		Events:     result.Events,
		Level:      filter.Level,
		Category:   filter.Category,
		Pagination: BuildAdminPagination(page, int(result.Total), EventsPerPage, "/admin/events", q),
	}
	h.render(w, r, templateEvents, "Events", data)
}
