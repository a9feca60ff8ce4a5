// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/dose-go/internal/auth"
	"github.com/olegiv/dose-go/internal/middleware"
	"github.com/olegiv/dose-go/internal/session"
)

// Health states reported by checks and the overall status.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// minUploadSpace is the free space below which the uploads check degrades.
const minUploadSpace = 100 << 20

// Probe runs one health check.
type Probe func(ctx context.Context) Check

// Pinger is implemented by dependencies that can be pinged, such as the
// Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

type registeredCheck struct {
	name     string
	critical bool
	probe    Probe
}

// HealthHandler serves the health endpoints. Critical checks gate
// readiness; other checks only degrade the reported status.
type HealthHandler struct {
	sm        *scs.SessionManager
	gate      middleware.Gate
	version   string
	startTime time.Time
	checks    []registeredCheck
}

// NewHealthHandler creates a health handler with a critical database check
// and a non-critical uploads disk check. sm and gate may be nil, in which
// case every caller gets the public response.
func NewHealthHandler(db *sql.DB, sm *scs.SessionManager, gate middleware.Gate, uploadsDir, version string) *HealthHandler {
	h := &HealthHandler{
		sm:        sm,
		gate:      gate,
		version:   version,
		startTime: time.Now(),
	}
	h.AddCheck("database", true, DatabaseProbe(db))
	h.AddCheck("uploads", false, UploadsProbe(uploadsDir))
	return h
}

// AddCheck registers an additional check.
func (h *HealthHandler) AddCheck(name string, critical bool, probe Probe) {
	h.checks = append(h.checks, registeredCheck{name: name, critical: critical, probe: probe})
}

// StartTime returns when the handler was created.
func (h *HealthHandler) StartTime() time.Time {
	return h.startTime
}

// HealthStatusPublic is the response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the response for admitted callers. Checks and System are
// only filled for admins.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check is a single check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains runtime information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// run executes every check. status is unhealthy when a critical check
// fails and degraded when only optional checks fail.
func (h *HealthHandler) run(ctx context.Context, criticalOnly bool) (status string, results map[string]Check, firstFailure string) {
	status = StatusHealthy
	results = make(map[string]Check, len(h.checks))
	for _, c := range h.checks {
		if criticalOnly && !c.critical {
			continue
		}
		res := c.probe(ctx)
		results[c.name] = res
		if res.Status == StatusHealthy {
			continue
		}
		if firstFailure == "" {
			firstFailure = c.name + ": " + res.Message
		}
		if c.critical {
			status = StatusUnhealthy
		} else if status == StatusHealthy {
			status = StatusDegraded
		}
	}
	return status, results, firstFailure
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, results, _ := h.run(r.Context(), false)

	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	id, admitted := h.identify(r)
	if !admitted {
		writeHealthJSON(w, code, HealthStatusPublic{Status: status})
		return
	}

	resp := HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
	}
	if id.IsAdmin() {
		resp.Checks = results
		if r.URL.Query().Get("verbose") == "true" {
			resp.System = systemInfo()
		}
	}
	writeHealthJSON(w, code, resp)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. Only critical checks are run.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	status, _, failure := h.run(r.Context(), true)
	if status == StatusHealthy {
		writeHealthJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	resp := map[string]string{"status": "not_ready"}
	if _, admitted := h.identify(r); admitted {
		resp["message"] = failure
	}
	writeHealthJSON(w, http.StatusServiceUnavailable, resp)
}

func writeHealthJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// identify resolves the session identity through the gate. It returns
// false if session data is not loaded into the request context.
func (h *HealthHandler) identify(r *http.Request) (id auth.Identity, ok bool) {
	if h.sm == nil || h.gate == nil {
		return auth.Identity{}, false
	}
	defer func() {
		if rec := recover(); rec != nil {
			id, ok = auth.Identity{}, false
		}
	}()

	email := h.sm.GetString(r.Context(), session.KeyEmail)
	if email == "" {
		return auth.Identity{}, false
	}
	id, ok, err := h.gate.Identify(r.Context(), email)
	if err != nil {
		return auth.Identity{}, false
	}
	return id, ok
}

// DatabaseProbe pings db.
func DatabaseProbe(db *sql.DB) Probe {
	return PingProbe(pingerFunc(db.PingContext), "Connected")
}

// PingProbe reports p as healthy when Ping succeeds.
func PingProbe(p Pinger, okMessage string) Probe {
	return func(ctx context.Context) Check {
		start := time.Now()
		err := p.Ping(ctx)
		latency := time.Since(start).String()
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error(), Latency: latency}
		}
		return Check{Status: StatusHealthy, Message: okMessage, Latency: latency}
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// UploadsProbe checks the free space of the uploads directory.
func UploadsProbe(dir string) Probe {
	return func(context.Context) Check {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return Check{Status: StatusHealthy, Message: "Uploads directory does not exist yet"}
		}

		var stat syscall.Statfs_t
		if err := syscall.Statfs(dir, &stat); err != nil {
			return Check{Status: StatusUnhealthy, Message: "Failed to check disk space: " + err.Error()}
		}

		free := stat.Bavail * uint64(stat.Bsize)
		if free < minUploadSpace {
			return Check{Status: StatusDegraded, Message: "Low disk space: " + formatBytes(free) + " available"}
		}
		return Check{Status: StatusHealthy, Message: formatBytes(free) + " available"}
	}
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
