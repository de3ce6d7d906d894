// Package http holds the API middleware stack and the probe endpoints.
// Feed and entry routes live in the feed and entry subpackages.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"feed-scraper/internal/handler/http/respond"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
}

type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthHandler reports database reachability and, when Breakers is set,
// the feed hosts whose circuit breaker is open. Open breakers are
// informational and never fail the probe.
type HealthHandler struct {
	DB       Pinger
	Version  string
	Breakers func() []string
	Timeout  time.Duration
	Now      func() time.Time
}

func (h *HealthHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := map[string]CheckStatus{"database": h.checkDB(r.Context())}
	if h.Breakers != nil {
		cs := CheckStatus{Status: statusHealthy}
		if open := h.Breakers(); len(open) > 0 {
			cs.Message = "open: " + strings.Join(open, ",")
		}
		checks["feed_hosts"] = cs
	}

	resp := HealthResponse{
		Status:    statusHealthy,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   h.Version,
		Checks:    checks,
	}
	code := http.StatusOK
	if checks["database"].Status != statusHealthy {
		resp.Status = statusUnhealthy
		code = http.StatusServiceUnavailable
	}
	respond.JSON(w, code, resp)
}

func (h *HealthHandler) checkDB(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: statusUnhealthy, Message: "database not configured"}
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: statusUnhealthy, Message: "ping failed"}
	}
	return CheckStatus{Status: statusHealthy}
}

// ReadyHandler returns 200 only when the database answers.
type ReadyHandler struct {
	DB Pinger
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if h.DB == nil || h.DB.PingContext(ctx) != nil {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// LiveHandler always answers 200 while the process serves HTTP.
func LiveHandler(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
