// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the health check endpoints. The JSON API lives
// in the api subpackage.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/ibiza-nights/internal/middleware"
	"github.com/olegiv/ibiza-nights/internal/service"
	"github.com/olegiv/ibiza-nights/internal/version"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// Pinger checks datastore connectivity. *store.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RefreshReporter reports the outcome of the last directory refresh.
// *service.Directory implements it.
type RefreshReporter interface {
	RefreshStatus() service.RefreshStatus
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	store        Pinger
	refresh      RefreshReporter
	cacheBackend string
	info         version.Info
	startTime    time.Time
	pingTimeout  time.Duration
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store Pinger, refresh RefreshReporter, cacheBackend string, info version.Info) *HealthHandler {
	return &HealthHandler{
		store:        store,
		refresh:      refresh,
		cacheBackend: cacheBackend,
		info:         info,
		startTime:    time.Now(),
		pingTimeout:  2 * time.Second,
	}
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus represents the overall health status (authenticated callers only).
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutines"`
	NumCPU       int    `json:"numCpus"`
}

// Health handles GET /health requests. A failed datastore ping makes the
// service unhealthy (503); a failed refresh only degrades it, since stale
// listings are still served.
// Anonymous callers get the status only, admins get every check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"datastore": h.checkDatastore(r.Context()),
		"refresh":   h.checkRefresh(),
		"cache":     {Status: statusHealthy, Message: h.cacheBackend},
	}

	overall := statusHealthy
	if checks["refresh"].Status != statusHealthy {
		overall = statusDegraded
	}
	code := http.StatusOK
	if checks["datastore"].Status != statusHealthy {
		overall = statusUnhealthy
		code = http.StatusServiceUnavailable
	}

	user := middleware.GetUser(r)
	if user == nil {
		writeJSON(w, code, HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.info.Version,
	}
	if user.IsAdmin() {
		status.Checks = checks
		if r.URL.Query().Get("verbose") == "true" {
			status.System = &SystemInfo{
				GoVersion:    runtime.Version(),
				NumGoroutine: runtime.NumGoroutine(),
				NumCPU:       runtime.NumCPU(),
			}
		}
	}
	writeJSON(w, code, status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. The service is ready once the
// datastore answers and the first refresh has succeeded.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatastore(r.Context())
	if db.Status != statusHealthy {
		resp := map[string]string{"status": "not_ready"}
		if middleware.GetUser(r) != nil {
			resp["message"] = db.Message
		}
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	if h.refresh.RefreshStatus().LastSuccess.IsZero() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Listings not loaded yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// checkDatastore verifies datastore connectivity.
func (h *HealthHandler) checkDatastore(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, h.pingTimeout)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{Status: statusUnhealthy, Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: statusHealthy, Message: "Connected", Latency: latency.String()}
}

func (h *HealthHandler) checkRefresh() Check {
	st := h.refresh.RefreshStatus()
	switch {
	case st.Err != nil:
		msg := "Last refresh failed: " + st.Err.Error()
		if !st.LastSuccess.IsZero() {
			msg += "; serving listings from " + st.LastSuccess.UTC().Format(time.RFC3339)
		}
		return Check{Status: statusDegraded, Message: msg}
	case st.LastSuccess.IsZero():
		return Check{Status: statusHealthy, Message: "No refresh yet"}
	default:
		return Check{Status: statusHealthy, Message: "Refreshed " + st.LastSuccess.UTC().Format(time.RFC3339)}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
