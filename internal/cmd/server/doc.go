// Package serverrun exposes the Run entrypoint used by the CLI to open
// storage, start the shipper and serve HTTP, gRPC health and metrics until
// the context is cancelled.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Endpoint.URI = "https://collector.example.com/events"
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
