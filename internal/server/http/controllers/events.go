package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rzbill/logship/internal/capture"
	"github.com/rzbill/logship/internal/shipper"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// maxBodyBytes caps ingest request bodies.
const maxBodyBytes = 1 << 20

// EventsController accepts events for shipping.
type EventsController struct {
	shipper *shipper.Shipper
	logger  logpkg.Logger
}

// NewEventsController creates a new events controller.
func NewEventsController(s *shipper.Shipper, logger logpkg.Logger) *EventsController {
	return &EventsController{shipper: s, logger: logger}
}

// RegisterRoutes registers ingest routes with the given mux.
func (c *EventsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/events", c.handleEvent)
	mux.HandleFunc("/v1/actions", c.handleAction)
}

// handleEvent enqueues an event as-is. Returns 202 Accepted, or 503 when the
// event could not be stored.
func (c *EventsController) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	var req eventReq
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Event == nil {
		var raw capture.Event
		if err := json.Unmarshal(body, &raw); err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		delete(raw, "state")
		req.Event = raw
	}
	if len(req.Event) == 0 {
		writeError(w, r, http.StatusBadRequest, "Event must not be empty")
		return
	}
	if err := c.shipper.Enqueue(r.Context(), req.Event, req.State); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "Failed to store event")
		return
	}
	writeAccepted(w)
}

// handleAction runs an action through the capture pipeline. Returns 202 when
// an event was produced and 204 when the pipeline dropped it.
func (c *EventsController) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req actionReq
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	ok, err := c.shipper.Log(r.Context(), req.Action, req.State)
	if err != nil {
		c.logger.Error("capture failed", logpkg.Err(err))
		writeError(w, r, http.StatusNotImplemented, "Capture pipeline not configured")
		return
	}
	if !ok {
		writeNoContent(w)
		return
	}
	writeAccepted(w)
}
