package grpcserver

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	logpkg "github.com/rzbill/logship/pkg/log"
)

// ServiceName is the health service name for the shipper. The empty name
// reports the same status.
const ServiceName = "logship.Shipper"

type healthSvc struct {
	healthpb.UnimplementedHealthServer
	checker HealthChecker
	logger  logpkg.Logger
}

func (h *healthSvc) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}
	if err := h.checker.CheckHealth(ctx); err != nil {
		h.logger.Warn("health check failed", logpkg.Err(err))
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
