package rpc

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"clinic-booking-api/internal/middleware"
	"clinic-booking-api/internal/service"
)

type Deps struct {
	Appointments *service.Appointments
	Verifier     middleware.TokenVerifier
	Limiter      middleware.Limiter
	Log          *zap.Logger
}

// NewServer builds a gRPC server with ClinicService and the standard
// health service registered. AvailableSlots is public and rate limited;
// health checks need no token.
func NewServer(d Deps, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	chain := []grpc.UnaryServerInterceptor{middleware.UnaryLogger(d.Log)}
	if d.Limiter != nil {
		chain = append(chain, middleware.UnaryRateLimit(d.Limiter, d.Log, MethodAvailableSlots))
	}
	chain = append(chain, middleware.UnaryAuth(d.Verifier, MethodAvailableSlots, healthpb.Health_Check_FullMethodName))

	srv := grpc.NewServer(append(opts, grpc.ChainUnaryInterceptor(chain...))...)
	srv.RegisterService(&ServiceDesc, NewClinic(d.Appointments))

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}
