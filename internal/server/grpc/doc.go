// Package grpcserver hosts the gRPC server for the shipper. It serves the
// standard grpc.health.v1 protocol backed by the storage health check.
//
// Example:
//
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: cfg})
//	s := grpcserver.New(rt, logger)
//	_ = s.ListenAndServe(ctx, ":9090")
package grpcserver
