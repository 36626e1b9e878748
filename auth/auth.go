// Package auth holds the session token and derives the current-user snapshot
// the engine embeds into every resolved record.
package auth

import (
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore keeps the active session token and the user snapshot decoded
// from its claims. The snapshot is display data only: the token is decoded
// without signature verification, the same way a form client renders the
// identity it was handed. Verification belongs to the server issuing the
// token.
type TokenStore struct {
	mu    sync.RWMutex
	token string
	user  map[string]any
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// SetToken decodes the token's claims and replaces the stored snapshot.
func (s *TokenStore) SetToken(token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("parse token: %w", err)
	}

	user := make(map[string]any, len(claims)+1)
	for k, v := range claims {
		user[k] = v
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		user["id"] = sub
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// Clear drops the token and snapshot.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

// Token returns the raw stored token, or empty when logged out.
func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserSnapshot returns a copy of the current user snapshot, or nil when no
// token is set.
func (s *TokenStore) UserSnapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	out := make(map[string]any, len(s.user))
	for k, v := range s.user {
		out[k] = v
	}
	return out
}
