package controllers

import (
	"net/http"

	"github.com/rzbill/logship/internal/shipper"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	events  *EventsController
	queue   *QueueController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(health HealthChecker, s *shipper.Shipper, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(health),
		events:  NewEventsController(s, logger),
		queue:   NewQueueController(s, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.events.RegisterRoutes(mux)
	r.queue.RegisterRoutes(mux)
}
