// Command wefixit-server starts the WeFixIt HTTP API.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/wefixit/internal/app"
	"github.com/and161185/wefixit/internal/config"
	grpcserver "github.com/and161185/wefixit/internal/server/grpc"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownTimeout = 5 * time.Second

// main loads configuration, prepares the store, ensures the bootstrap admin
// and serves HTTP until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load("wefixit-server", os.Args[1:])
	if err != nil {
		os.Exit(config.LoadExitCode(os.Stderr, "wefixit-server", err))
	}

	logger := newLogger(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer stores.Close()

	auth, err := app.NewAuth(cfg, stores.Admins)
	if err != nil {
		logger.Fatal("auth", zap.Error(err))
	}
	if err := app.Bootstrap(ctx, cfg, logger, auth); err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}

	api, err := app.NewHTTP(cfg, logger, stores, auth)
	if err != nil {
		logger.Fatal("http", zap.Error(err))
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var probe *grpcserver.Health
	if cfg.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			logger.Fatal("listen health", zap.Error(err))
		}
		probe = grpcserver.NewHealth(logger, stores.Pinger, grpcserver.DefaultInterval)
		go probe.Watch(ctx)
		go func() {
			logger.Info("health listening", zap.String("addr", cfg.HealthAddr))
			if err := probe.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	// Wait for stop
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	if probe != nil {
		probe.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
		_ = srv.Close()
	}
	logger.Info("shutdown complete")
}

func newLogger(dev bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}
