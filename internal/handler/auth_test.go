// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/dose-go/internal/auth"
	"github.com/olegiv/dose-go/internal/middleware"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/store"
)

// newAuthClient mounts the sign-in flow and a gated /admin page.
func newAuthClient(t *testing.T, env *testEnv, gate middleware.Gate, provider auth.IdentityProvider) *client {
	t.Helper()
	h := NewAuthHandler(env.sm, gate, provider, env.renderer, env.events)

	r := env.router()
	r.Get(RouteAdminLogin, h.LoginPage)
	r.Get(RouteAuthLogin, h.Login)
	r.Get(RouteAuthCallback, h.Callback)
	r.Route(RouteAdmin, func(r chi.Router) {
		r.Use(middleware.RequireAdmitted(env.sm, gate))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("dashboard for " + middleware.GetEmail(r)))
		})
		r.Post("/logout", h.Logout)
	})
	return newClient(t, r)
}

func testProvider() *fakeProvider {
	return &fakeProvider{identities: map[string]auth.ProviderIdentity{
		"owner-code":    {Email: testSuperAdmin, Name: "Owner"},
		"editor-code":   {Email: testEditor, Name: "Ed"},
		"stranger-code": {Email: "stranger@example.com", Name: "Stranger"},
	}}
}

// startLogin begins the flow and returns the state sent to the provider.
func startLogin(t *testing.T, c *client, target string) string {
	t.Helper()
	w := c.get(target)
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "idp.example.com", loc.Host)

	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func callback(c *client, code, state string) *httptest.ResponseRecorder {
	return c.get(RouteAuthCallback + "?code=" + url.QueryEscape(code) + "&state=" + url.QueryEscape(state))
}

func TestAuth_LoginPage(t *testing.T) {
	tests := []struct {
		name     string
		provider auth.IdentityProvider
		query    string
		want     []string
		notWant  []string
	}{
		{
			name:     "sign-in button",
			provider: testProvider(),
			want:     []string{`href="/auth/login"`},
		},
		{
			name:     "next is carried to the provider flow",
			provider: testProvider(),
			query:    "?next=/admin/users",
			want:     []string{`href="/auth/login?next=%2Fadmin%2Fusers"`},
		},
		{
			name:     "unauthorized message",
			provider: testProvider(),
			query:    "?error=unauthorized",
			want:     []string{"not authorized"},
		},
		{
			name:     "auth failed message",
			provider: testProvider(),
			query:    "?error=auth_failed",
			want:     []string{"Sign-in failed"},
		},
		{
			name:    "sign-in not configured",
			notWant: []string{`href="/auth/login"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := newAuthClient(t, env, env.gate, tt.provider)

			w := c.get(RouteAdminLogin + tt.query)

			assert.Equal(t, http.StatusOK, w.Code)
			body := w.Body.String()
			for _, s := range tt.want {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestAuth_LoginPageRedirectsSignedInUser(t *testing.T) {
	env := newTestEnv(t)
	c := newAuthClient(t, env, env.gate, testProvider())
	c.signIn(testSuperAdmin)

	w := c.get(RouteAdminLogin)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
}

func TestAuth_LoginPageDropsRevokedSession(t *testing.T) {
	env := newTestEnv(t)
	c := newAuthClient(t, env, env.gate, testProvider())
	c.signIn("revoked@example.com")

	w := c.get(RouteAdminLogin)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, middleware.UnauthorizedLoginPath, w.Header().Get("Location"))
	assert.Empty(t, c.sessionEmail())
}

func TestAuth_LoginPageGateFailure(t *testing.T) {
	env := newTestEnv(t)
	c := newAuthClient(t, env, failingGate{}, testProvider())
	c.signIn(testSuperAdmin)

	w := c.get(RouteAdminLogin)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuth_SuperAdminSignsIn(t *testing.T) {
	env := newTestEnv(t)
	c := newAuthClient(t, env, env.gate, testProvider())

	state := startLogin(t, c, RouteAuthLogin)
	w := callback(c, "owner-code", state)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
	assert.Equal(t, testSuperAdmin, c.sessionEmail())

	dash := c.follow(w)
	assert.Equal(t, http.StatusOK, dash.Code)
	assert.Equal(t, "dashboard for "+testSuperAdmin, dash.Body.String())

	page, err := env.events.List(context.Background(), store.EventFilter{Category: model.EventCategoryAuth}, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, page.Events)
	assert.Equal(t, "User signed in", page.Events[0].Message)
	assert.Contains(t, page.Events[0].Metadata, `"ip":"192.0.2.1"`)
	assert.Contains(t, page.Events[0].Metadata, `"device":"desktop"`)
}

func TestAuth_AllowedUserReturnsToNext(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(testEditor, editorRole)
	c := newAuthClient(t, env, env.gate, testProvider())

	state := startLogin(t, c, RouteAuthLogin+"?next="+url.QueryEscape("/admin/editions"))
	w := callback(c, "editor-code", state)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/editions", w.Header().Get("Location"))
	assert.Equal(t, testEditor, c.sessionEmail())
}

func TestAuth_UnadmittedSignInIsRejected(t *testing.T) {
	env := newTestEnv(t)
	c := newAuthClient(t, env, env.gate, testProvider())

	state := startLogin(t, c, RouteAuthLogin)
	w := callback(c, "stranger-code", state)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, middleware.UnauthorizedLoginPath, w.Header().Get("Location"))
	assert.Empty(t, c.sessionEmail(), "session must be destroyed")

	// The rejected visitor cannot reach the dashboard afterwards.
	admin := c.get("/admin/")
	assert.Equal(t, http.StatusSeeOther, admin.Code)
	assert.Equal(t, middleware.LoginPath, admin.Header().Get("Location"))

	page, err := env.events.List(context.Background(), store.EventFilter{Level: model.EventLevelWarning}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "stranger@example.com", page.Events[0].ActorEmail.String)
}

func TestAuth_RevokedUserLosesAccess(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(testEditor, editorRole)
	c := newAuthClient(t, env, env.gate, testProvider())

	state := startLogin(t, c, RouteAuthLogin)
	callback(c, "editor-code", state)
	require.Equal(t, http.StatusOK, c.get("/admin/").Code)

	users, err := env.users.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	_, err = env.users.Remove(context.Background(), testSuperAdmin, users[0].ID)
	require.NoError(t, err)

	w := c.get("/admin/")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, middleware.UnauthorizedLoginPath, w.Header().Get("Location"))
	assert.Empty(t, c.sessionEmail())
}

func TestAuth_CallbackFailures(t *testing.T) {
	tests := []struct {
		name  string
		query func(state string) string
	}{
		{"state mismatch", func(string) string { return "?code=owner-code&state=forged" }},
		{"missing state", func(string) string { return "?code=owner-code" }},
		{"provider error", func(s string) string { return "?error=access_denied&state=" + url.QueryEscape(s) }},
		{"exchange failure", func(s string) string { return "?code=bogus&state=" + url.QueryEscape(s) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := newAuthClient(t, env, env.gate, testProvider())
			state := startLogin(t, c, RouteAuthLogin)

			w := c.get(RouteAuthCallback + tt.query(state))

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, authFailedLoginPath, w.Header().Get("Location"))
			assert.Empty(t, c.sessionEmail())
		})
	}
}

func TestAuth_StateIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	c := newAuthClient(t, env, env.gate, testProvider())
	state := startLogin(t, c, RouteAuthLogin)

	callback(c, "owner-code", state)
	w := callback(c, "owner-code", state)

	assert.Equal(t, authFailedLoginPath, w.Header().Get("Location"))
}

func TestAuth_WithoutProvider(t *testing.T) {
	env := newTestEnv(t)
	c := newAuthClient(t, env, env.gate, nil)

	for _, path := range []string{RouteAuthLogin, RouteAuthCallback + "?code=x&state=y"} {
		w := c.get(path)
		assert.Equal(t, http.StatusSeeOther, w.Code, path)
		assert.Equal(t, middleware.LoginPath, w.Header().Get("Location"), path)
	}
}

func TestAuth_Logout(t *testing.T) {
	env := newTestEnv(t)
	c := newAuthClient(t, env, env.gate, testProvider())
	c.signIn(testSuperAdmin)

	w := c.post(RouteAdminLogout, nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, middleware.LoginPath, w.Header().Get("Location"))
	assert.Empty(t, c.sessionEmail())
	assert.Equal(t, http.StatusSeeOther, c.get("/admin/").Code)
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/admin"},
		{"/admin/users", "/admin/users"},
		{"https://evil.example.com", "/admin"},
		{"//evil.example.com", "/admin"},
		{"/\\evil.example.com", "/admin"},
		{"relative", "/admin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeNext(tt.in), tt.in)
	}
}
