package invoicing

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore persists the bearer token handed out by the refresh endpoint.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
}

type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (s *MemoryTokenStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token, nil
}

func (s *MemoryTokenStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token

	return nil
}

// TokenExpired reports whether token is a JWT whose exp claim is not after now.
// Opaque tokens are never considered expired; the API decides for those.
func TokenExpired(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}

	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}
