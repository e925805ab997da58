// Package crypto implements server-side password hashing and verification.
package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for new hashes.
const Cost = bcrypt.DefaultCost

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned for passwords over MaxPasswordBytes.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword returns a salted bcrypt hash of password.
// Hashing the same password twice yields different strings.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword reports whether password matches hash. Malformed hashes
// verify as false.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
