package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	pkgcrypto "github.com/and161185/wefixit/internal/crypto"
	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/model"
	"github.com/and161185/wefixit/internal/repository"
	"github.com/and161185/wefixit/internal/token"
)

type fakeAdmins struct {
	byName map[string]*model.Admin

	createErr error
	getErr    error

	createCalls int
}

var _ repository.AdminRepository = (*fakeAdmins)(nil)

func (f *fakeAdmins) Create(_ context.Context, a *model.Admin) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if f.byName == nil {
		f.byName = map[string]*model.Admin{}
	}
	if _, exists := f.byName[a.Username]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *a
	f.byName[a.Username] = &cpy
	return nil
}

func (f *fakeAdmins) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byName[username]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestAuth(t *testing.T, admins *fakeAdmins) *AuthServiceImpl {
	t.Helper()
	tm, err := token.NewManager([]byte("test-key"), "HS256", time.Hour, token.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewAuthService(admins, tm, WithClock(func() time.Time { return testNow }))
}

func seedAdmin(t *testing.T, admins *fakeAdmins, username, password string) {
	t.Helper()
	h, err := pkgcrypto.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if admins.byName == nil {
		admins.byName = map[string]*model.Admin{}
	}
	admins.byName[username] = &model.Admin{Username: username, PasswordHash: h, IsSuperuser: true}
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()
	admins := &fakeAdmins{}
	seedAdmin(t, admins, "admin", "admin123")
	s := newTestAuth(t, admins)
	ctx := context.Background()

	tok, err := s.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected tokens: %+v", tok)
	}
	if !tok.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("expiry want %v, got %v", testNow.Add(time.Hour), tok.ExpiresAt)
	}

	if _, err := s.Login(ctx, "admin", "wrong"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("wrong password: want ErrUnauthorized, got %v", err)
	}
	if _, err := s.Login(ctx, "ADMIN", "admin123"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("username is case-sensitive: want ErrUnauthorized, got %v", err)
	}
	if _, err := s.Login(ctx, "ghost", "admin123"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("unknown user: want ErrUnauthorized, got %v", err)
	}
}

func TestAuth_Login_StoreFailureIsNotUnauthorized(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	s := newTestAuth(t, &fakeAdmins{getErr: boom})

	_, err := s.Login(context.Background(), "admin", "admin123")
	if !errors.Is(err, boom) || errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want wrapped store error, got %v", err)
	}
}

func TestAuth_Authenticate(t *testing.T) {
	t.Parallel()
	admins := &fakeAdmins{}
	seedAdmin(t, admins, "admin", "admin123")
	s := newTestAuth(t, admins)
	ctx := context.Background()

	tok, err := s.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	a, err := s.Authenticate(ctx, tok.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if a.Username != "admin" || !a.IsSuperuser {
		t.Fatalf("unexpected admin: %+v", a)
	}

	if _, err := s.Authenticate(ctx, "garbage"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("garbage token: want ErrUnauthorized, got %v", err)
	}
	if _, err := s.Authenticate(ctx, tok.AccessToken+"x"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("tampered token: want ErrUnauthorized, got %v", err)
	}

	delete(admins.byName, "admin")
	if _, err := s.Authenticate(ctx, tok.AccessToken); !errors.Is(err, errs.ErrAdminNotFound) {
		t.Fatalf("vanished admin: want ErrAdminNotFound, got %v", err)
	}
}

func TestAuth_Authenticate_ForeignKey(t *testing.T) {
	t.Parallel()
	admins := &fakeAdmins{}
	seedAdmin(t, admins, "admin", "admin123")
	s := newTestAuth(t, admins)

	other, err := token.NewManager([]byte("other-key"), "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	tok, _, err := other.Issue("admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := s.Authenticate(context.Background(), tok); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestAuth_Bootstrap(t *testing.T) {
	t.Parallel()
	admins := &fakeAdmins{}
	s := newTestAuth(t, admins)
	ctx := context.Background()

	if _, err := s.Bootstrap(ctx, "", "x"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("empty username: want ErrValidation, got %v", err)
	}

	created, err := s.Bootstrap(ctx, "admin", "admin123")
	if err != nil || !created {
		t.Fatalf("first bootstrap: created=%v err=%v", created, err)
	}
	a := admins.byName["admin"]
	if a == nil || !a.IsSuperuser || !a.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected admin: %+v", a)
	}
	if strings.Contains(a.PasswordHash, "admin123") || !pkgcrypto.VerifyPassword("admin123", a.PasswordHash) {
		t.Fatalf("password must be stored as a bcrypt hash")
	}

	created, err = s.Bootstrap(ctx, "admin", "other")
	if err != nil || created {
		t.Fatalf("second bootstrap: created=%v err=%v", created, err)
	}
	if admins.createCalls != 1 {
		t.Fatalf("Create calls want 1, got %d", admins.createCalls)
	}
	if !pkgcrypto.VerifyPassword("admin123", admins.byName["admin"].PasswordHash) {
		t.Fatalf("existing password must not be reset")
	}
}

func TestAuth_Bootstrap_PasswordTooLong(t *testing.T) {
	t.Parallel()
	admins := &fakeAdmins{}
	s := newTestAuth(t, admins)

	_, err := s.Bootstrap(context.Background(), "admin", strings.Repeat("p", pkgcrypto.MaxPasswordBytes+1))
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if admins.createCalls != 0 {
		t.Fatalf("nothing may be created, got %d Create calls", admins.createCalls)
	}

	created, err := s.Bootstrap(context.Background(), "admin", strings.Repeat("p", pkgcrypto.MaxPasswordBytes))
	if err != nil || !created {
		t.Fatalf("password at the limit: created=%v err=%v", created, err)
	}
}

func TestAuth_Bootstrap_LostRace(t *testing.T) {
	t.Parallel()
	admins := &fakeAdmins{createErr: errs.ErrAlreadyExists}
	s := newTestAuth(t, admins)

	created, err := s.Bootstrap(context.Background(), "admin", "admin123")
	if err != nil || created {
		t.Fatalf("want no-op on concurrent create, got created=%v err=%v", created, err)
	}
}

func TestAuth_Bootstrap_StoreFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	s := newTestAuth(t, &fakeAdmins{getErr: boom})

	if _, err := s.Bootstrap(context.Background(), "admin", "admin123"); !errors.Is(err, boom) {
		t.Fatalf("want store error, got %v", err)
	}
}
