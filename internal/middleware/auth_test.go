// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/dose-go/internal/auth"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/session"
)

type fakeGate struct {
	roles map[string]string
	err   error
}

func (g fakeGate) Identify(_ context.Context, email string) (auth.Identity, bool, error) {
	if g.err != nil {
		return auth.Identity{}, false, g.err
	}
	role, ok := g.roles[email]
	if !ok {
		return auth.Identity{}, false, nil
	}
	return auth.Identity{Email: email, Role: role}, true, nil
}

// sessionRequest returns a request whose loaded session holds email.
func sessionRequest(t *testing.T, sm *scs.SessionManager, path, email string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if email != "" {
		sm.Put(ctx, session.KeyEmail, email)
	}
	return req.WithContext(ctx)
}

func TestRequireAdmitted(t *testing.T) {
	gate := fakeGate{roles: map[string]string{"ed@example.com": model.RoleEditor}}

	tests := []struct {
		name         string
		email        string
		wantStatus   int
		wantLocation string
		wantEmail    string
	}{
		{"anonymous", "", http.StatusSeeOther, LoginPath, ""},
		{"not admitted", "intruder@example.com", http.StatusSeeOther, UnauthorizedLoginPath, ""},
		{"admitted", "ed@example.com", http.StatusOK, "", "ed@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := scs.New()
			var got *auth.Identity
			h := RequireAdmitted(sm, gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetIdentity(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := sessionRequest(t, sm, "/admin", tt.email)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
			}
			if tt.wantEmail != "" && (got == nil || got.Email != tt.wantEmail) {
				t.Errorf("identity = %+v, want email %s", got, tt.wantEmail)
			}
		})
	}
}

func TestRequireAdmitted_RejectedSessionIsDestroyed(t *testing.T) {
	sm := scs.New()
	h := RequireAdmitted(sm, fakeGate{})(okHandler)

	req := sessionRequest(t, sm, "/admin", "intruder@example.com")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if email := sm.GetString(req.Context(), session.KeyEmail); email != "" {
		t.Errorf("session email after rejection = %q, want empty", email)
	}
}

func TestRequireAdmitted_GateFailure(t *testing.T) {
	sm := scs.New()
	h := RequireAdmitted(sm, fakeGate{err: errors.New("db down")})(okHandler)

	req := sessionRequest(t, sm, "/admin", "ed@example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if sm.GetString(req.Context(), session.KeyEmail) == "" {
		t.Error("a lookup failure must not end the session")
	}
}

func TestRequireAdmittedAPI(t *testing.T) {
	sm := scs.New()
	gate := fakeGate{roles: map[string]string{"ed@example.com": model.RoleViewer}}
	h := RequireAdmittedAPI(sm, gate)(okHandler)

	for _, email := range []string{"", "intruder@example.com"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest(t, sm, "/api/upload", email))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("email %q: status = %d, want 401", email, rec.Code)
		}
		var body APIError
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body.Error.Code != "unauthorized" {
			t.Errorf("error code = %q", body.Error.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(t, sm, "/api/upload", "ed@example.com"))
	if rec.Code != http.StatusOK {
		t.Errorf("admitted: status = %d, want 200", rec.Code)
	}
}

func TestOptionalIdentity(t *testing.T) {
	sm := scs.New()
	gate := fakeGate{roles: map[string]string{"ed@example.com": model.RoleEditor}}

	tests := []struct {
		name      string
		gate      Gate
		email     string
		wantEmail string
	}{
		{"anonymous", gate, "", ""},
		{"not admitted", gate, "intruder@example.com", ""},
		{"gate failure", fakeGate{err: errors.New("db down")}, "ed@example.com", ""},
		{"admitted", gate, "ed@example.com", "ed@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := OptionalIdentity(sm, tt.gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetEmail(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := sessionRequest(t, sm, "/", tt.email)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if got != tt.wantEmail {
				t.Errorf("identity email = %q, want %q", got, tt.wantEmail)
			}
			if tt.email != "" && sm.GetString(req.Context(), session.KeyEmail) != tt.email {
				t.Error("public pages must not touch the session")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name         string
		identity     *auth.Identity
		wantStatus   int
		wantLocation string
	}{
		{"no identity", nil, http.StatusSeeOther, LoginPath},
		{"editor", &auth.Identity{Email: "e@x.io", Role: model.RoleEditor}, http.StatusSeeOther, AdminRequiredPath},
		{"viewer", &auth.Identity{Email: "v@x.io", Role: model.RoleViewer}, http.StatusSeeOther, AdminRequiredPath},
		{"admin", &auth.Identity{Email: "a@x.io", Role: model.RoleAdmin}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.identity != nil {
				req = req.WithContext(WithIdentity(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()
			RequireRole(model.RoleAdmin)(okHandler).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
			}
		})
	}
}

func TestGetEmail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetEmail(req); got != "" {
		t.Errorf("GetEmail() = %q, want empty", got)
	}
	req = req.WithContext(WithIdentity(req.Context(), auth.Identity{Email: "a@b.co"}))
	if got := GetEmail(req); got != "a@b.co" {
		t.Errorf("GetEmail() = %q", got)
	}
}
