// Package token issues and validates signed, expiring bearer tokens.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/wefixit/internal/errs"
)

// Manager signs and verifies HMAC JWTs whose subject is an admin username.
// It is immutable after construction and safe for concurrent use.
type Manager struct {
	key    []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager constructs a Manager for the given symmetric algorithm
// (HS256, HS384 or HS512).
func NewManager(key []byte, alg string, ttl time.Duration, opts ...Option) (*Manager, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("token: empty signing key")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token: non-positive ttl %s", ttl)
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token: unsupported algorithm %q", alg)
	}
	m := &Manager{key: key, method: method, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Issue creates a signed token for subject, expiring after the configured TTL.
func (m *Manager) Issue(subject string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Validate verifies signature and expiry and returns the subject.
// Every failure is reported as errs.ErrUnauthorized without the cause.
func (m *Manager) Validate(tok string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil || !parsed.Valid {
		return "", errs.ErrUnauthorized
	}
	if claims.Subject == "" {
		return "", errs.ErrUnauthorized
	}
	return claims.Subject, nil
}
