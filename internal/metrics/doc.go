// Package metrics exposes logship activity as Prometheus collectors and
// serves them over HTTP. Metrics satisfies the hook interfaces of the queue,
// drain and pebblestore packages; a nil *Metrics is a valid no-op.
package metrics
