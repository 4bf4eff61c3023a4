package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"notes-service/internal/adapter/grpc/middleware"
	"notes-service/pkg/logger"
)

// SetupGRPC creates the gRPC server exposing the standard health and
// reflection services. rateLimiter may be nil.
func SetupGRPC(healthServer healthpb.HealthServer, rateLimiter *middleware.RateLimiter, l *zap.Logger) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{logger.RequestIDInterceptor()}
	if rateLimiter != nil {
		interceptors = append(interceptors, rateLimiter.UnaryInterceptor())
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	l.Debug("gRPC services registered", zap.Int("services", len(grpcServer.GetServiceInfo())))
	return grpcServer
}
