// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/render"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/store"
)

// duplicateEmailMessage is shown when an added email is already on the
// allow-list.
const duplicateEmailMessage = "This email is already authorized"

// UsersHandler handles allow-list management. Routes require the admin role.
type UsersHandler struct {
	adminBase
	users *service.UserService
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(src content.Source, renderer *render.Renderer, users *service.UserService) *UsersHandler {
	return &UsersHandler{
		adminBase: adminBase{renderer: renderer, content: src},
		users:     users,
	}
}

// UserRow is an allowed user with whether the viewer may change it.
type UserRow struct {
	store.AllowedUser
	Protected bool
}

// UserForm is the add-user form state.
type UserForm struct {
	Email string
	Name  string
	Role  string
}

// UsersData is the data of the users page.
type UsersData struct {
	Users      []UserRow
	SuperAdmin string
	Form       UserForm
	Errors     map[string]string
}

// List handles GET /admin/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, UserForm{Role: model.RoleEditor}, nil)
}

// Create handles POST /admin/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectUsers) {
		return
	}

	form := UserForm{
		Email: r.PostFormValue("email"),
		Name:  r.PostFormValue("name"),
		Role:  r.PostFormValue("role"),
	}
	u, err := h.users.Add(r.Context(), id.Email, form.Email, form.Name, form.Role)
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, redirectUsers, u.Email+" can now sign in")
	case errors.Is(err, service.ErrDuplicateEmail):
		h.renderList(w, r, http.StatusUnprocessableEntity, form, map[string]string{"email": duplicateEmailMessage})
	case errors.Is(err, service.ErrValidation):
		h.renderList(w, r, http.StatusUnprocessableEntity, form, fieldErrors(err))
	default:
		slog.Error("adding user", "error", err, "category", model.EventCategoryUser)
		flashError(w, r, h.renderer, redirectUsers, "Error adding user")
	}
}

// SetRole handles POST /admin/users/{id}/role.
func (h *UsersHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectUsers) {
		return
	}
	userID := chi.URLParam(r, "id")

	u, err := h.users.SetRole(r.Context(), id.Email, userID, r.PostFormValue("role"))
	if err != nil {
		h.flashUserError(w, r, err, "Error changing role")
		return
	}
	flashSuccess(w, r, h.renderer, redirectUsers, "Role updated for "+u.Email)
}

// Delete handles POST /admin/users/{id}/delete.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "id")

	u, err := h.users.Remove(r.Context(), id.Email, userID)
	if err != nil {
		h.flashUserError(w, r, err, "Error removing user")
		return
	}
	flashSuccess(w, r, h.renderer, redirectUsers, u.Email+" can no longer sign in")
}

func (h *UsersHandler) flashUserError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		flashError(w, r, h.renderer, redirectUsers, "User not found")
	case errors.Is(err, service.ErrProtectedUser):
		flashError(w, r, h.renderer, redirectUsers, "The super admin and your own account cannot be changed")
	case errors.Is(err, service.ErrValidation):
		flashError(w, r, h.renderer, redirectUsers, validationMessage(err))
	default:
		slog.Error(fallback, "error", err, "category", model.EventCategoryUser)
		flashError(w, r, h.renderer, redirectUsers, fallback)
	}
}

func (h *UsersHandler) renderList(w http.ResponseWriter, r *http.Request, status int, form UserForm, errs map[string]string) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	users, err := h.users.List(r.Context())
	if err != nil {
		slog.Error("listing users", "error", err, "category", model.EventCategoryUser)
		h.renderError(w, r, http.StatusInternalServerError, "Users could not be loaded.")
		return
	}

	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, UserRow{AllowedUser: u, Protected: !h.users.CanModify(id.Email, u.Email)})
	}

	data := UsersData{
		Users:      rows,
		SuperAdmin: h.users.SuperAdmin(),
		Form:       form,
		Errors:     errs,
	}
	h.renderStatus(w, r, status, templateUsers, "Users", data)
}
