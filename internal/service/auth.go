// Package service contains application services: authentication and the
// resource mappers for reviews, portfolio items and projects.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/and161185/wefixit/internal/crypto"
	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/model"
	"github.com/and161185/wefixit/internal/repository"
)

// AuthService defines login, per-request authentication and admin bootstrap.
type AuthService interface {
	// Login verifies credentials and issues an access token.
	Login(ctx context.Context, username, password string) (model.Tokens, error)
	// Authenticate resolves a bearer token to a live admin identity.
	Authenticate(ctx context.Context, token string) (*model.Admin, error)
	// Bootstrap creates the admin if the username is absent. It reports whether it created one.
	Bootstrap(ctx context.Context, username, password string) (bool, error)
}

// TokenManager issues and validates bearer tokens for a subject.
type TokenManager interface {
	Issue(subject string) (token string, expiresAt time.Time, err error)
	Validate(token string) (subject string, err error)
}

type AuthServiceImpl struct {
	admins repository.AdminRepository
	tokens TokenManager
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(admins repository.AdminRepository, tokens TokenManager, opts ...Option) *AuthServiceImpl {
	o := buildOptions(opts)
	return &AuthServiceImpl{admins: admins, tokens: tokens, now: o.now}
}

// Login authenticates by username and password. Unknown users and wrong
// passwords both yield errs.ErrUnauthorized after a full hash comparison.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (model.Tokens, error) {
	a, err := s.admins.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		// hide existence of the user: pay the same bcrypt cost
		pkgcrypto.VerifyPassword(password, s.dummy())
		return model.Tokens{}, errs.ErrUnauthorized
	case err != nil:
		return model.Tokens{}, fmt.Errorf("lookup admin: %w", err)
	}
	if !pkgcrypto.VerifyPassword(password, a.PasswordHash) {
		return model.Tokens{}, errs.ErrUnauthorized
	}

	tok, exp, err := s.tokens.Issue(a.Username)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("issue token: %w", err)
	}
	return model.Tokens{AccessToken: tok, TokenType: "bearer", ExpiresAt: exp}, nil
}

// Authenticate validates the token and loads its subject.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*model.Admin, error) {
	sub, err := s.tokens.Validate(token)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	a, err := s.admins.GetByUsername(ctx, sub)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrAdminNotFound
		}
		return nil, fmt.Errorf("lookup admin: %w", err)
	}
	return a, nil
}

// Bootstrap ensures an admin with username exists. Safe to run on every start
// and concurrently from several processes.
func (s *AuthServiceImpl) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, errs.Invalid("bootstrap", "empty username/password")
	}
	if len(password) > pkgcrypto.MaxPasswordBytes {
		return false, errs.Invalid("password", fmt.Sprintf("must be at most %d bytes", pkgcrypto.MaxPasswordBytes))
	}
	_, err := s.admins.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return false, err
	}
	a := &model.Admin{
		ID:           uid,
		Username:     username,
		PasswordHash: hash,
		IsSuperuser:  true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.admins.Create(ctx, a); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func (s *AuthServiceImpl) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = pkgcrypto.HashPassword("wefixit-dummy-password")
	})
	return s.dummyHash
}
