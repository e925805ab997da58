// Command wefixit-bootstrap-admin creates the configured admin if it does
// not exist yet. Running it repeatedly is harmless.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/and161185/wefixit/internal/app"
	"github.com/and161185/wefixit/internal/config"
)

func main() {
	cfg, err := config.Load("wefixit-bootstrap-admin", os.Args[1:])
	if err != nil {
		os.Exit(config.LoadExitCode(os.Stderr, "wefixit-bootstrap-admin", err))
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.Store == config.StoreMemory {
		logger.Warn("memory store selected; the admin will not outlive this process")
	}

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
}
