// Package handlers implements the HTTP endpoints: health probes,
// version info, and the job and tool API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/bioopenmcp/biomcp/internal/errors"
)

const checkTimeout = 2 * time.Second

// Checker is a named health probe.
type Checker interface {
	CheckHealth(ctx context.Context) error
}

// HealthResponse is the body returned by a passing health check.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthManager runs registered checkers and aggregates their results.
type HealthManager struct {
	mu       sync.RWMutex
	version  string
	checkers map[string]Checker
}

func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		version:  version,
		checkers: make(map[string]Checker),
	}
}

// RegisterChecker adds a named probe. Re-registering a name replaces it.
func (m *HealthManager) RegisterChecker(name string, c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = c
}

func (m *HealthManager) runChecks(ctx context.Context) map[string]string {
	m.mu.RLock()
	checkers := make(map[string]Checker, len(m.checkers))
	for name, c := range m.checkers {
		checkers[name] = c
	}
	m.mu.RUnlock()

	results := make(map[string]string, len(checkers))
	for name, c := range checkers {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.CheckHealth(checkCtx)
		cancel()
		switch {
		case err == nil:
			results[name] = "healthy"
		case errors.Is(err, context.DeadlineExceeded):
			results[name] = "timeout"
		default:
			results[name] = "unhealthy"
		}
	}
	return results
}

// determineOverallStatus folds check results: any unhealthy check fails
// the probe outright, timeouts only degrade it.
func (m *HealthManager) determineOverallStatus(checks map[string]string) string {
	status := "healthy"
	for _, s := range checks {
		switch s {
		case "unhealthy":
			return "unhealthy"
		case "timeout":
			status = "degraded"
		}
	}
	return status
}

// HealthHandler reports aggregate health, 503 when any check fails.
func (m *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	checks := m.runChecks(r.Context())
	status := m.determineOverallStatus(checks)

	if status == "unhealthy" {
		details := make(map[string]any, 1)
		details["checks"] = checks
		body := apperrors.HTTPErrorResponse{Error: apperrors.HTTPErrorBody{
			Code:    apperrors.CodeServiceUnavailable,
			Message: "one or more health checks failed",
			Details: details,
		}}
		writeJSON(w, body, http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, HealthResponse{
		Status:    status,
		Version:   m.version,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}, http.StatusOK)
}

// LivenessHandler only proves the process is serving requests.
func (m *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "alive"}, http.StatusOK)
}

// ReadinessHandler mirrors the full health check.
func (m *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	m.HealthHandler(w, r)
}

// StartupHandler mirrors the full health check.
func (m *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	m.HealthHandler(w, r)
}

var globalHealthManager *HealthManager

// InitHealthManager installs the process-wide health manager.
func InitHealthManager(version string) {
	globalHealthManager = NewHealthManager(version)
}

// GetHealthManager returns the process-wide manager, nil before init.
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

func withGlobalManager(h func(*HealthManager, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if globalHealthManager == nil {
			body := apperrors.HTTPErrorResponse{Error: apperrors.HTTPErrorBody{
				Code:    apperrors.CodeServiceUnavailable,
				Message: "health manager not initialized",
			}}
			writeJSON(w, body, http.StatusServiceUnavailable)
			return
		}
		h(globalHealthManager, w, r)
	}
}

// Package-level handlers bound to the global manager.
var (
	HealthHandler http.HandlerFunc = withGlobalManager(
		func(m *HealthManager, w http.ResponseWriter, r *http.Request) { m.HealthHandler(w, r) })
	LivenessHandler http.HandlerFunc = withGlobalManager(
		func(m *HealthManager, w http.ResponseWriter, r *http.Request) { m.LivenessHandler(w, r) })
	ReadinessHandler http.HandlerFunc = withGlobalManager(
		func(m *HealthManager, w http.ResponseWriter, r *http.Request) { m.ReadinessHandler(w, r) })
	StartupHandler http.HandlerFunc = withGlobalManager(
		func(m *HealthManager, w http.ResponseWriter, r *http.Request) { m.StartupHandler(w, r) })
)

func writeJSON(w http.ResponseWriter, body any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
