package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/fall-in/internal/config"
	"github.com/oggyb/fall-in/internal/metrics"
)

// NewGRPCServer builds a gRPC server with logging and auth interceptors,
// registers the given services and marks each of them serving.
func NewGRPCServer(log *slog.Logger, m *metrics.Metrics, authn Authenticator, registrars ...Registrar) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLogging(log, m), UnaryAuth(authn)))

	// register all services
	for _, r := range registrars {
		r.Register(s)
	}

	hs := health.NewServer()
	for name := range s.GetServiceInfo() {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(s, hs)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(s)
	return s
}

// StartGRPCServer serves s until ctx is done, then stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, s *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.GracefulStop()
	}()

	err = s.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		err = nil
	}
	if err == nil {
		<-stopped
	}
	return err
}
