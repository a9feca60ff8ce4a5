// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/dose-go/internal/testutil"
)

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// newHealthClient mounts the health endpoints on a session-aware router.
func newHealthClient(t *testing.T) (*testEnv, *HealthHandler, *client) {
	t.Helper()
	env := newTestEnv(t)
	h := NewHealthHandler(env.db, env.sm, env.gate, t.TempDir(), "1.2.3")

	r := env.router()
	r.Get("/health", h.Health)
	r.Get("/health/live", h.Liveness)
	r.Get("/health/ready", h.Readiness)
	return env, h, newClient(t, r)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestHealthHandler_Health_Public(t *testing.T) {
	_, _, c := newHealthClient(t)

	w := c.get("/health?verbose=true")

	assertStatus(t, w.Code, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q; want application/json", ct)
	}

	resp := decodeJSON(t, w)
	if resp["status"] != "healthy" {
		t.Errorf("status = %v; want healthy", resp["status"])
	}
	for _, key := range []string{"uptime", "version", "checks", "timestamp", "system"} {
		if _, ok := resp[key]; ok {
			t.Errorf("public response should not contain %s", key)
		}
	}
}

func TestHealthHandler_Health_NotAdmittedIsPublic(t *testing.T) {
	_, _, c := newHealthClient(t)
	c.signIn("stranger@example.com")

	resp := decodeJSON(t, c.get("/health"))
	if _, ok := resp["version"]; ok {
		t.Error("a session the gate rejects should get the public response")
	}
}

func TestHealthHandler_Health_Editor(t *testing.T) {
	env, _, c := newHealthClient(t)
	env.addUser(testEditor, editorRole)
	c.signIn(testEditor)

	resp := decodeJSON(t, c.get("/health?verbose=true"))

	if resp["version"] != "1.2.3" {
		t.Errorf("version = %v; want 1.2.3", resp["version"])
	}
	if _, ok := resp["uptime"]; !ok {
		t.Error("editor response should contain uptime")
	}
	if _, ok := resp["checks"]; ok {
		t.Error("editor response should not contain checks")
	}
	if _, ok := resp["system"]; ok {
		t.Error("editor response should not contain system info")
	}
}

func TestHealthHandler_Health_Admin(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantSystem bool
	}{
		{name: "plain", query: "", wantSystem: false},
		{name: "verbose", query: "?verbose=true", wantSystem: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, c := newHealthClient(t)
			c.signIn(testSuperAdmin)

			w := c.get("/health" + tt.query)
			assertStatus(t, w.Code, http.StatusOK)

			resp := decodeJSON(t, w)
			checks, ok := resp["checks"].(map[string]any)
			if !ok {
				t.Fatalf("checks missing from admin response: %v", resp)
			}
			for _, name := range []string{"database", "uploads"} {
				check, ok := checks[name].(map[string]any)
				if !ok {
					t.Errorf("check %s missing", name)
					continue
				}
				if check["status"] != "healthy" {
					t.Errorf("%s status = %v; want healthy", name, check["status"])
				}
			}

			system, hasSystem := resp["system"].(map[string]any)
			if hasSystem != tt.wantSystem {
				t.Errorf("system present = %v; want %v", hasSystem, tt.wantSystem)
			}
			if hasSystem && !strings.HasPrefix(system["go_version"].(string), "go") {
				t.Errorf("go_version = %v", system["go_version"])
			}
		})
	}
}

func TestHealthHandler_Health_UnhealthyDatabase(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	h := NewHealthHandler(db, nil, nil, t.TempDir(), "1.2.3")
	_ = db.Close()

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	resp := decodeJSON(t, w)
	if resp["status"] != StatusUnhealthy {
		t.Errorf("status = %v; want unhealthy", resp["status"])
	}
	if _, ok := resp["checks"]; ok {
		t.Error("public degraded response should not contain checks")
	}
}

func TestHealthHandler_OptionalCheck(t *testing.T) {
	_, h, c := newHealthClient(t)
	h.AddCheck("cache", false, PingProbe(pingerFunc(func(context.Context) error {
		return errors.New("connection refused")
	}), "Connected"))

	w := c.get("/health")
	assertStatus(t, w.Code, http.StatusOK)
	if resp := decodeJSON(t, w); resp["status"] != StatusDegraded {
		t.Errorf("status = %v; want degraded", resp["status"])
	}

	c.signIn(testSuperAdmin)
	resp := decodeJSON(t, c.get("/health"))
	checks := resp["checks"].(map[string]any)
	cache := checks["cache"].(map[string]any)
	if cache["status"] != StatusUnhealthy || cache["message"] != "connection refused" {
		t.Errorf("cache check = %v", cache)
	}

	w = c.get("/health/ready")
	assertStatus(t, w.Code, http.StatusOK)
}

func TestHealthHandler_CriticalCheckBlocksReadiness(t *testing.T) {
	_, h, c := newHealthClient(t)
	h.AddCheck("blob store", true, func(context.Context) Check {
		return Check{Status: StatusUnhealthy, Message: "read-only file system"}
	})

	w := c.get("/health/ready")
	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	if _, ok := decodeJSON(t, w)["message"]; ok {
		t.Error("anonymous callers should not see the failure")
	}

	c.signIn(testSuperAdmin)
	resp := decodeJSON(t, c.get("/health/ready"))
	if resp["message"] != "blob store: read-only file system" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestHealthHandler_Health_GateFailureIsPublic(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthHandler(env.db, env.sm, failingGate{}, t.TempDir(), "1.2.3")
	r := env.router()
	r.Get("/health", h.Health)
	c := newClient(t, r)
	c.signIn(testSuperAdmin)

	resp := decodeJSON(t, c.get("/health"))
	if _, ok := resp["version"]; ok {
		t.Error("gate failure should fall back to the public response")
	}
}

func TestHealthHandler_Health_WithoutSessionContext(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthHandler(env.db, env.sm, env.gate, t.TempDir(), "1.2.3")

	// No LoadAndSave: the session lookup panics inside scs and must be absorbed.
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assertStatus(t, w.Code, http.StatusOK)
	if resp := decodeJSON(t, w); resp["status"] != "healthy" {
		t.Errorf("status = %v; want healthy", resp["status"])
	}
}

func TestHealthHandler_Probes(t *testing.T) {
	_, _, c := newHealthClient(t)

	tests := []struct {
		path string
		want string
	}{
		{"/health/live", "alive"},
		{"/health/ready", "ready"},
	}
	for _, tt := range tests {
		w := c.get(tt.path)
		assertStatus(t, w.Code, http.StatusOK)
		if resp := decodeJSON(t, w); resp["status"] != tt.want {
			t.Errorf("%s status = %v; want %s", tt.path, resp["status"], tt.want)
		}
	}
}

func TestHealthHandler_Readiness_NotReady(t *testing.T) {
	t.Run("public", func(t *testing.T) {
		db := testutil.TestMemoryDB(t)
		h := NewHealthHandler(db, nil, nil, t.TempDir(), "")
		_ = db.Close()

		w := httptest.NewRecorder()
		h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assertStatus(t, w.Code, http.StatusServiceUnavailable)
		resp := decodeJSON(t, w)
		if resp["status"] != "not_ready" {
			t.Errorf("status = %v; want not_ready", resp["status"])
		}
		if _, ok := resp["message"]; ok {
			t.Error("public not-ready response should not contain message")
		}
	})
}

func TestHealthHandler_DiskCheck(t *testing.T) {
	tests := []struct {
		name    string
		dir     func(t *testing.T) string
		wantMsg string
	}{
		{
			name:    "missing directory",
			dir:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "uploads") },
			wantMsg: "Uploads directory does not exist yet",
		},
		{
			name:    "existing directory",
			dir:     func(t *testing.T) string { return t.TempDir() },
			wantMsg: "available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := UploadsProbe(tt.dir(t))(context.Background())
			if check.Status == StatusUnhealthy {
				t.Errorf("status = unhealthy: %s", check.Message)
			}
			if !strings.Contains(check.Message, tt.wantMsg) {
				t.Errorf("message = %q; want it to contain %q", check.Message, tt.wantMsg)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input uint64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
		{5368709120, "5.00 GB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.want {
			t.Errorf("formatBytes(%d) = %q; want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewHealthHandler(t *testing.T) {
	before := time.Now()
	h := NewHealthHandler(nil, nil, nil, "/tmp/uploads", "dev")

	if len(h.checks) != 2 || !h.checks[0].critical || h.checks[1].critical {
		t.Errorf("checks = %+v; want critical database and optional uploads", h.checks)
	}
	if h.StartTime().Before(before) {
		t.Error("startTime should be set at construction")
	}
}
