package grpc

import (
	"net"

	"github.com/yungtweek/pollinations-proxy/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check name reported for the chat proxy.
const ServiceName = "pollinations.v1.ChatProxy"

// Server wraps a gRPC server that only answers health checks for the HTTP proxy,
// so orchestrators can probe readiness over gRPC.
type Server struct {
	addr       string
	grpcServer *grpc.Server
	health     *health.Server
}

// NewGRPCServer creates the health listener for the given address. Both the overall status
// ("") and ServiceName start as NOT_SERVING until SetServing is called.
func NewGRPCServer(addr string) *Server {
	s := &Server{
		addr:       addr,
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)

	return s
}

// SetServing flips the reported status for the proxy.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	logger.Log.Infow("[grpc] health status", "status", status.String())
}

// Run starts listening on the configured address and serves the gRPC server.
// This call blocks until the server stops or returns an error.
func (s *Server) Run() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		logger.Log.Errorw("[grpc] failed to listen", "addr", s.addr, "err", err)
		return err
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	logger.Log.Infow("[grpc] starting server", "addr", lis.Addr().String())
	if err := s.grpcServer.Serve(lis); err != nil {
		logger.Log.Errorw("[grpc] server stopped with error", "err", err)
		return err
	}

	logger.Log.Info("[grpc] server stopped gracefully")
	return nil
}

// GracefulStop marks the proxy NOT_SERVING and stops the underlying gRPC server.
func (s *Server) GracefulStop() {
	logger.Log.Infow("[grpc] graceful stop", "addr", s.addr)
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// Stop immediately stops the underlying gRPC server.
func (s *Server) Stop() {
	logger.Log.Infow("[grpc] stop", "addr", s.addr)
	s.grpcServer.Stop()
}
