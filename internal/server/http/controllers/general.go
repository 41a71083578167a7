package controllers

import (
	"context"
	"net/http"
)

// HealthChecker reports whether storage is reachable.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// GeneralController handles service-level endpoints.
type GeneralController struct {
	health HealthChecker
}

// NewGeneralController creates a new general controller.
func NewGeneralController(health HealthChecker) *GeneralController {
	return &GeneralController{health: health}
}

// RegisterRoutes registers general routes with the given mux.
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/healthz", c.handleHealth)
}

// handleHealth returns 200 OK with {"status": "ok"} if healthy, 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := c.health.CheckHealth(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
