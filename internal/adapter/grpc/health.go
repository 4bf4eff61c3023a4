package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "notes-service"

const pingTimeout = 2 * time.Second

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker keeps a gRPC health server in step with database reachability,
// the same signal the HTTP /health endpoint reports.
type HealthChecker struct {
	server   *health.Server
	db       Pinger
	interval time.Duration
	log      *zap.Logger

	last healthpb.HealthCheckResponse_ServingStatus
}

// NewHealthChecker creates a checker that updates server every interval.
func NewHealthChecker(server *health.Server, db Pinger, interval time.Duration, log *zap.Logger) *HealthChecker {
	return &HealthChecker{
		server:   server,
		db:       db,
		interval: interval,
		log:      log,
		last:     healthpb.HealthCheckResponse_UNKNOWN,
	}
}

// Server returns the health server to register on a grpc.Server.
func (h *HealthChecker) Server() *health.Server {
	return h.server
}

// Check pings the database once and publishes the result.
func (h *HealthChecker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	err := h.db.PingContext(ctx)
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	if status != h.last {
		if err != nil {
			h.log.Warn("database unreachable, reporting NOT_SERVING", zap.Error(err))
		} else {
			h.log.Info("database reachable, reporting SERVING")
		}
		h.last = status
	}

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks immediately and then every interval until ctx is done, when all
// services are marked NOT_SERVING.
func (h *HealthChecker) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return nil
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
