package transports

import "context"

// Stats is the queue summary reported by the server.
type Stats struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
}

// ShipperTransport abstracts the transport used by the CLI to reach a
// running shipper.
type ShipperTransport interface {
	// Send enqueues an event as-is.
	Send(ctx context.Context, event map[string]any, state map[string]any) error
	// Capture runs an action through the server's capture pipeline. It
	// reports whether an event was produced.
	Capture(ctx context.Context, action any, state map[string]any) (bool, error)
	// Peek returns the head event. ok is false when the queue is empty.
	Peek(ctx context.Context) (event map[string]any, ok bool, err error)
	Stats(ctx context.Context) (Stats, error)
	// Drain runs one drain and returns how many events were delivered.
	Drain(ctx context.Context, state map[string]any) (int, error)
}

// HealthTransport checks server health.
type HealthTransport interface {
	Health(ctx context.Context, service string) (string, error)
}
