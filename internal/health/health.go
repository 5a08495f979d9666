// Package health exposes the standard gRPC health service, driven by database
// reachability.
package health

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name clients pass in HealthCheckRequest.Service.
const ServiceName = "storefront"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Checker struct {
	pinger   Pinger
	server   *health.Server
	interval time.Duration
	log      *slog.Logger
}

func NewChecker(pinger Pinger, log *slog.Logger) *Checker {
	return &Checker{
		pinger:   pinger,
		server:   health.NewServer(),
		interval: 5 * time.Second,
		log:      log,
	}
}

// NewServer builds a gRPC server carrying the health service and reflection.
func (c *Checker) NewServer() *grpc.Server {
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(grpcServer, c.server)
	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)
	return grpcServer
}

// Check pings the database once and publishes the result.
func (c *Checker) Check(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	err := c.pinger.Ping(pingCtx)
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		c.log.WarnContext(ctx, "database ping failed", slog.Any("error", err))
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(ServiceName, status)
	return err == nil
}

// Run re-checks on every interval until ctx is cancelled, then reports
// NOT_SERVING to everyone still watching.
func (c *Checker) Run(ctx context.Context) {
	c.Check(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Check(ctx)
		case <-ctx.Done():
			c.server.Shutdown()
			return
		}
	}
}
