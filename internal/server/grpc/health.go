// Package grpcserver runs the gRPC health probe of the WeFixIt API.
package grpcserver

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/and161185/wefixit/internal/repository"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "wefixit.API"

// DefaultInterval is the store ping period.
const DefaultInterval = 10 * time.Second

const pingTimeout = 2 * time.Second

// Health serves grpc.health.v1.Health and tracks store reachability.
type Health struct {
	log   *zap.Logger
	store repository.Pinger
	every time.Duration

	hs      *health.Server
	gs      *grpc.Server
	serving atomic.Bool
}

// NewHealth constructs the probe server. Status starts as NOT_SERVING until
// the first successful ping.
func NewHealth(log *zap.Logger, store repository.Pinger, every time.Duration) *Health {
	if every <= 0 {
		every = DefaultInterval
	}
	h := &Health{
		log:   log,
		store: store,
		every: every,
		hs:    health.NewServer(),
		gs: grpc.NewServer(grpc.ChainUnaryInterceptor(
			RecoverUnary(log),
			LoggingUnary(log),
		)),
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(h.gs, h.hs)
	return h
}

// Check pings the store once and updates the reported status.
func (h *Health) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := h.store.Ping(ctx)
	ok := err == nil
	if prev := h.serving.Swap(ok); prev != ok {
		if ok {
			h.log.Info("store reachable")
		} else {
			h.log.Warn("store unreachable", zap.Error(err))
		}
	}
	if ok {
		h.set(healthpb.HealthCheckResponse_SERVING)
	} else {
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return ok
}

// Watch checks the store immediately and then every interval until ctx ends.
func (h *Health) Watch(ctx context.Context) {
	h.Check(ctx)
	t := time.NewTicker(h.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.Check(ctx)
		}
	}
}

// Serve blocks serving the probe on lis.
func (h *Health) Serve(lis net.Listener) error {
	return h.gs.Serve(lis)
}

// Stop reports NOT_SERVING to watchers and stops the server gracefully.
func (h *Health) Stop() {
	h.hs.Shutdown()
	h.gs.GracefulStop()
}

func (h *Health) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.hs.SetServingStatus("", st)
	h.hs.SetServingStatus(ServiceName, st)
}
