package server

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthhandler "sales-pipeline/internal/health/handler"
)

// Deps holds the gRPC services a binary exposes.
type Deps struct {
	// Health answers grpc.health.v1 checks. If nil, no health service is registered.
	Health *healthhandler.Server
}

// RegisterServices registers the configured gRPC services with s.
//
// Service → handler mapping:
//   - grpc.health.v1.Health → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
}

// NewGRPCServer returns a server traced by the global OTel providers, with deps and reflection registered.
func NewGRPCServer(deps Deps) *grpc.Server {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	RegisterServices(s, deps)
	reflection.Register(s)
	return s
}

// ServeGRPC serves s on addr until ctx is done, then stops it gracefully within grace.
func ServeGRPC(ctx context.Context, addr string, s *grpc.Server, grace time.Duration, logger logrus.FieldLogger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", lis.Addr().String()).Info("gRPC server listening")
		errCh <- s.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gRPC server")
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(grace):
		s.Stop()
	}
	logger.Info("gRPC server stopped")
	return nil
}
