package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Server owns the HTTP listener and, when enabled, the gRPC listener.
type Server struct {
	HTTP     *http.Server
	GRPC     *grpc.Server
	grpcAddr string
	Logger   *zap.Logger
}

// New creates a server listening on :port.
func New(port string, handler http.Handler, l *zap.Logger) *Server {
	return &Server{
		HTTP:   NewGinServer(":"+port, handler),
		Logger: l,
	}
}

// WithGRPC attaches a gRPC server listening on :port.
func (s *Server) WithGRPC(port string, g *grpc.Server) *Server {
	s.GRPC = g
	s.grpcAddr = ":" + port
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.Serve(lis)
}

// Serve accepts connections on lis. A graceful shutdown is not an error.
func (s *Server) Serve(lis net.Listener) error {
	s.Logger.Info("HTTP server running", zap.String("address", lis.Addr().String()))

	if err := s.HTTP.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// StartGRPC blocks serving gRPC until Shutdown is called.
func (s *Server) StartGRPC(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.ServeGRPC(lis)
}

// ServeGRPC accepts gRPC connections on lis.
func (s *Server) ServeGRPC(lis net.Listener) error {
	s.Logger.Info("gRPC server running", zap.String("address", lis.Addr().String()))

	if err := s.GRPC.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests. gRPC
// calls still running when ctx expires are cut off.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
			errs = append(errs, fmt.Errorf("grpc shutdown: %w", ctx.Err()))
		}
	}

	s.Logger.Info("shutting down HTTP server...")
	if err := s.HTTP.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	return errors.Join(errs...)
}
