// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/dose-go/internal/auth"
	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/middleware"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/render"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/session"
	"github.com/olegiv/dose-go/internal/testutil"
	"github.com/olegiv/dose-go/web"
)

const (
	testSuperAdmin = "owner@example.com"
	testEditor     = "editor@example.com"
)

// testEnv wires the services, renderer and session manager over an
// in-memory database.
type testEnv struct {
	t        *testing.T
	db       *sql.DB
	sm       *scs.SessionManager
	renderer *render.Renderer
	reader   *content.Reader
	events   *service.EventService
	editions *service.EditionService
	themes   *service.ThemeService
	posts    *service.PostService
	users    *service.UserService
	gate     *auth.Gate
	media    *service.MediaService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.TestMemoryDB(t)
	sm := session.New(db, true)
	renderer, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sm,
		IsDev:          true,
	})
	require.NoError(t, err)

	events := service.NewEventService(db)
	users := service.NewUserService(db, testSuperAdmin, events)

	return &testEnv{
		t:        t,
		db:       db,
		sm:       sm,
		renderer: renderer,
		reader:   content.NewReader(db, "sqlite3"),
		events:   events,
		editions: service.NewEditionService(db, events, nil),
		themes:   service.NewThemeService(db, events, nil),
		posts:    service.NewPostService(db, events, nil),
		users:    users,
		gate:     auth.NewGate(testSuperAdmin, users),
	}
}

// addUser puts email on the allow-list.
func (e *testEnv) addUser(email, role string) {
	e.t.Helper()
	_, err := e.users.Add(context.Background(), testSuperAdmin, email, "", role)
	require.NoError(e.t, err)
}

// router returns a chi router with sessions loaded and a test-only sign-in
// route at /test/signin?email=.
func (e *testEnv) router() chi.Router {
	r := chi.NewRouter()
	r.Use(e.sm.LoadAndSave)
	r.Get("/test/signin", func(w http.ResponseWriter, r *http.Request) {
		_ = e.sm.RenewToken(r.Context())
		e.sm.Put(r.Context(), session.KeyEmail, r.URL.Query().Get("email"))
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/test/session", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, e.sm.GetString(r.Context(), session.KeyEmail))
	})
	return r
}

// admin mounts fn under /admin behind the access gate.
func (e *testEnv) admin(r chi.Router, fn func(r chi.Router)) {
	r.Route(RouteAdmin, func(r chi.Router) {
		r.Use(middleware.RequireAdmitted(e.sm, e.gate))
		fn(r)
	})
}

// client carries the session cookie between requests to one handler.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (c *client) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// signIn stores email in the client's session.
func (c *client) signIn(email string) {
	c.t.Helper()
	rec := c.get("/test/signin?email=" + url.QueryEscape(email))
	require.Equal(c.t, http.StatusNoContent, rec.Code)
}

// sessionEmail returns the email held by the client's session.
func (c *client) sessionEmail() string {
	return c.get("/test/session").Body.String()
}

// follow requests the Location of a redirect response.
func (c *client) follow(rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	c.t.Helper()
	loc := rec.Header().Get("Location")
	require.NotEmpty(c.t, loc, "response is not a redirect")
	return c.get(loc)
}

// fakeProvider is an IdentityProvider that answers from a code table.
type fakeProvider struct {
	identities map[string]auth.ProviderIdentity
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (auth.ProviderIdentity, error) {
	id, ok := p.identities[code]
	if !ok {
		return auth.ProviderIdentity{}, errors.New("bad code")
	}
	return id, nil
}

// failingGate fails every lookup.
type failingGate struct{}

func (failingGate) Identify(context.Context, string) (auth.Identity, bool, error) {
	return auth.Identity{}, false, errors.New("database is locked")
}

var _ middleware.Gate = failingGate{}

// editorRole is the role given to non-admin test users.
const editorRole = model.RoleEditor
