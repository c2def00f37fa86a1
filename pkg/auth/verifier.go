// Package auth gates the dashboard behind a login and issues session tokens.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for a malformed, expired or revoked session.
	ErrInvalidToken = errors.New("invalid session token")
)

// Verifier checks a username and password.
type Verifier interface {
	Verify(username, password string) error
}

// AllowList accepts only listed users whose password matches a bcrypt hash.
type AllowList struct {
	hashes map[string][]byte
}

var _ Verifier = (*AllowList)(nil)

// NewAllowList builds an allow list from username to bcrypt hash.
func NewAllowList(users map[string]string) (*AllowList, error) {
	hashes := make(map[string][]byte, len(users))
	for name, hash := range users {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid password hash for %q: %w", name, err)
		}
		hashes[name] = []byte(hash)
	}
	return &AllowList{hashes: hashes}, nil
}

// Verify implements Verifier.
func (a *AllowList) Verify(username, password string) error {
	hash, ok := a.hashes[username]
	if !ok {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for the allow list.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
