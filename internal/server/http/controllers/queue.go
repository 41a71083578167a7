package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rzbill/logship/internal/shipper"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// QueueController exposes queue inspection and manual draining.
type QueueController struct {
	shipper *shipper.Shipper
	logger  logpkg.Logger
}

// NewQueueController creates a new queue controller.
func NewQueueController(s *shipper.Shipper, logger logpkg.Logger) *QueueController {
	return &QueueController{shipper: s, logger: logger}
}

// RegisterRoutes registers queue routes with the given mux.
func (c *QueueController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/queue/peek", c.handlePeek)
	mux.HandleFunc("/v1/queue/stats", c.handleStats)
	mux.HandleFunc("/v1/drain", c.handleDrain)
}

// handlePeek returns the head event, or 204 when the queue is empty.
func (c *QueueController) handlePeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	ev, ok, err := c.shipper.Queue().Peek(r.Context())
	if err != nil {
		c.logger.Error("peek failed", logpkg.Err(err))
		writeError(w, r, http.StatusInternalServerError, "Failed to read queue")
		return
	}
	if !ok {
		writeNoContent(w)
		return
	}
	writeJSON(w, ev)
}

// handleStats returns the queue name and length.
func (c *QueueController) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := c.shipper.Queue()
	n, err := q.Len(r.Context())
	if err != nil {
		c.logger.Error("len failed", logpkg.Err(err))
		writeError(w, r, http.StatusInternalServerError, "Failed to read queue")
		return
	}
	writeJSON(w, statsResp{Name: q.Name(), Length: n})
}

// handleDrain runs one drain synchronously and reports how many events were
// delivered.
func (c *QueueController) handleDrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req drainReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	n, err := c.shipper.Drain(r.Context(), req.State)
	if err != nil {
		c.logger.Error("manual drain failed", logpkg.Err(err), logpkg.Int("delivered", n))
		writeStatusJSON(w, http.StatusInternalServerError, map[string]any{"delivered": n, "error": err.Error()})
		return
	}
	writeJSON(w, map[string]int{"delivered": n})
}
