// Package auth provides token management for API authentication.
package auth

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/meridian-eo/atlas/pkg/atlas"
)

// TokenExpiryBuffer treats tokens expiring within this window as invalid so
// in-flight requests do not race the expiry.
const TokenExpiryBuffer = 30 * time.Second

// EnvAPIKey is the environment variable consulted when no API key is
// configured explicitly.
const EnvAPIKey = "ATLAS_API_KEY"

// TokenManager provides access tokens for API requests.
type TokenManager interface {
	// GetToken returns a valid access token.
	GetToken(ctx context.Context) (string, error)

	// RefreshToken forces a token refresh.
	RefreshToken(ctx context.Context) error
}

// Token is an access token with optional expiry.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Valid reports whether the token is usable, applying TokenExpiryBuffer.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(TokenExpiryBuffer).Before(t.ExpiresAt)
}

// TokenStore holds a token for concurrent readers.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the stored token or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set stores a token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
}

// StaticTokenManager serves a fixed API key as a bearer token. API keys do
// not expire and cannot be refreshed.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager creates a manager around the given API key.
func NewStaticTokenManager(apiKey string) *StaticTokenManager {
	store := NewTokenStore()
	store.Set(&Token{AccessToken: apiKey, TokenType: "bearer"})

	return &StaticTokenManager{store: store}
}

// NewStaticTokenManagerFromEnv creates a manager from the configured key,
// falling back to the ATLAS_API_KEY environment variable.
func NewStaticTokenManagerFromEnv(apiKey string) (*StaticTokenManager, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvAPIKey)
	}

	if apiKey == "" {
		return nil, atlas.ErrAPIKeyRequired
	}

	return NewStaticTokenManager(apiKey), nil
}

// GetToken returns the API key.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if !token.Valid() {
		return "", atlas.ErrAPIKeyRequired
	}

	return token.AccessToken, nil
}

// RefreshToken is not supported for static keys.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return atlas.ErrStaticTokenRefresh
}
