// Package shipper wires capture, queue, drain and delivery together.
//
// Log builds an event from a host action, persists it, and triggers a drain.
// Queue and storage failures are logged and swallowed so the host never
// fails because shipping did.
package shipper
