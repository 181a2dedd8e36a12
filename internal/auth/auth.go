// Package auth verifies the facilitator's shared admin secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the secret used when none is configured. It matches
// the one printed on the facilitator handout.
const DefaultPassword = "6749467"

// Verifier checks an admin password attempt. Attempts are not rate limited.
type Verifier interface {
	Verify(password string) bool
}

// StaticSecret compares by exact string equality in constant time.
type StaticSecret string

func (s StaticSecret) Verify(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(s)) == 1
}

// BcryptHash compares against a bcrypt hash of the secret.
type BcryptHash []byte

func (h BcryptHash) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(h, []byte(password)) == nil
}

// NewBcryptHash validates hash and returns a verifier for it.
func NewBcryptHash(hash string) (BcryptHash, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return BcryptHash(hash), nil
}

// HashPassword returns a bcrypt hash suitable for --admin-password-hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FromConfig picks the verifier for the configured secret. A hash wins over
// a plain password; with neither, DefaultPassword is used and usedDefault is
// true so the caller can warn.
func FromConfig(password, hash string) (v Verifier, usedDefault bool, err error) {
	if hash != "" {
		h, err := NewBcryptHash(hash)
		if err != nil {
			return nil, false, err
		}
		return h, false, nil
	}
	if password != "" {
		return StaticSecret(password), false, nil
	}
	return StaticSecret(DefaultPassword), true, nil
}
