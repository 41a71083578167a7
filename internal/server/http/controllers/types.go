package controllers

import (
	"github.com/rzbill/logship/internal/capture"
	"github.com/rzbill/logship/internal/drain"
)

// eventReq wraps an event with the host state used for delivery headers.
// A body without an "event" key is treated as the event itself.
type eventReq struct {
	Event capture.Event `json:"event"`
	State drain.State   `json:"state"`
}

// actionReq is run through the capture pipeline.
type actionReq struct {
	Action any         `json:"action"`
	State  drain.State `json:"state"`
}

// drainReq carries the state for a manual drain.
type drainReq struct {
	State drain.State `json:"state"`
}

type statsResp struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
}
