package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"fixaphone-web/internal/contextutil"
	"fixaphone-web/internal/pricing"
)

// SessionCounter reports how many chat sessions are held.
type SessionCounter interface {
	Len() int
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	sessions SessionCounter
	rates    *pricing.Rates
	now      func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(sessions SessionCounter, rates *pricing.Rates) *HealthHandler {
	return &HealthHandler{
		sessions: sessions,
		rates:    rates,
		now:      time.Now,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Number of chat sessions currently held
	ActiveSessions int `json:"active_sessions"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Reports whether the rate tables and session store are available. The
// completion endpoint is not probed.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	var issues []string

	if h.rates != nil && len(h.rates.Services) > 0 {
		checks["rates"] = "ok"
	} else {
		checks["rates"] = "error"
		issues = append(issues, "rates_unavailable")
	}

	active := 0
	if h.sessions != nil {
		checks["session_store"] = "ok"
		active = h.sessions.Len()
	} else {
		checks["session_store"] = "error"
		issues = append(issues, "session_store_unavailable")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:         status,
		Timestamp:      h.now().UTC().Format(time.RFC3339),
		Checks:         checks,
		ActiveSessions: active,
		Issues:         issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
