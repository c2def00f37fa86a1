package auth

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// Sessions issues HS256 session tokens and tracks which are still active so
// logout can revoke them.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu     sync.Mutex
	active map[string]time.Time
}

// NewSessions creates a session registry. An empty secret is replaced by a
// random one, which invalidates sessions on restart.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sessions{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
		active: make(map[string]time.Time),
	}
}

// Issue creates a session token for subject.
func (s *Sessions) Issue(subject string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.active {
		if now.After(e) {
			delete(s.active, id)
		}
	}
	s.active[claims.ID] = exp
	return token, exp, nil
}

// Validate checks the token signature, expiry and that it was not revoked,
// and returns its subject.
func (s *Sessions) Validate(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[claims.ID]; !ok {
		return "", fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Revoke ends the session carried by token.
func (s *Sessions) Revoke(token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.active, claims.ID)
	s.mu.Unlock()
	return nil
}

func (s *Sessions) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
