// Package app assembles stores, services and the HTTP server from Config.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/wefixit/internal/config"
	"github.com/and161185/wefixit/internal/migrate"
	"github.com/and161185/wefixit/internal/repository"
	"github.com/and161185/wefixit/internal/repository/memory"
	"github.com/and161185/wefixit/internal/repository/postgres"
	httpserver "github.com/and161185/wefixit/internal/server/http"
	"github.com/and161185/wefixit/internal/service"
	"github.com/and161185/wefixit/internal/token"
	"github.com/and161185/wefixit/internal/upload"
)

// UploadPrefix is the URL path the upload directory is served under.
const UploadPrefix = "/uploads"

// Stores groups the persistence gateways of one process.
type Stores struct {
	Admins    repository.AdminRepository
	Reviews   repository.Collection
	Portfolio repository.Collection
	Projects  repository.Collection
	Pinger    repository.Pinger

	close func()
}

// Close releases the underlying connections.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores opens the configured store. For postgres, pending migrations
// are applied first.
func OpenStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*Stores, error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store; data is lost on exit")
		reviews := memory.NewCollection()
		return &Stores{
			Admins:    memory.NewAdmins(),
			Reviews:   reviews,
			Portfolio: memory.NewCollection(),
			Projects:  memory.NewCollection(),
			Pinger:    reviews,
		}, nil
	case config.StorePostgres:
		return openPostgres(ctx, cfg.DatabaseURL, log)
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func openPostgres(ctx context.Context, dsn string, log *zap.Logger) (*Stores, error) {
	ver, err := migrate.Up(ctx, dsn)
	if err != nil {
		return nil, err
	}
	log.Info("migrations applied", zap.Int64("version", ver))

	db, err := postgres.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	st := &Stores{Admins: postgres.NewAdminRepo(db), Pinger: db, close: db.Close}
	for name, dst := range map[repository.CollectionName]*repository.Collection{
		repository.Reviews:   &st.Reviews,
		repository.Portfolio: &st.Portfolio,
		repository.Projects:  &st.Projects,
	} {
		c, err := postgres.NewCollection(db, name)
		if err != nil {
			db.Close()
			return nil, err
		}
		*dst = c
	}
	return st, nil
}

// NewAuth builds the auth service from the token settings of cfg.
func NewAuth(cfg config.Config, admins repository.AdminRepository) (*service.AuthServiceImpl, error) {
	tm, err := token.NewManager([]byte(cfg.SecretKey), cfg.Algorithm, cfg.AccessTTL())
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	return service.NewAuthService(admins, tm), nil
}

// NewHTTP wires services over st into the HTTP server.
func NewHTTP(cfg config.Config, log *zap.Logger, st *Stores, auth service.AuthService) (*httpserver.Server, error) {
	files, err := upload.NewDisk(cfg.UploadDir, cfg.PublicBaseURL, UploadPrefix)
	if err != nil {
		return nil, err
	}
	return httpserver.New(log, auth,
		service.NewReviewService(st.Reviews),
		service.NewPortfolioService(st.Portfolio, files),
		service.NewProjectService(st.Projects),
		httpserver.Options{
			Name:        cfg.ProjectName,
			CORSOrigins: cfg.CORSOrigins,
			UploadDir:   cfg.UploadDir,
			MaxBody:     cfg.MaxUploadSize,
		},
	), nil
}

// Bootstrap ensures the configured admin exists and logs the outcome.
func Bootstrap(ctx context.Context, cfg config.Config, log *zap.Logger, auth service.AuthService) error {
	created, err := auth.Bootstrap(ctx, cfg.BootstrapUsername, cfg.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		log.Info("bootstrap admin created", zap.String("username", cfg.BootstrapUsername))
	} else {
		log.Info("bootstrap admin exists", zap.String("username", cfg.BootstrapUsername))
	}
	return nil
}
