package credstore

import (
	"context"
	"sync"
	"time"

	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/token"
)

// MemoryStore implements Store without persistence. Used in tests and in
// deployments that deliberately forget the login on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	vals map[string]string
	skew time.Duration
}

// NewMemory creates an empty in-memory credential store.
func NewMemory() *MemoryStore {
	return NewMemoryWithSkew(token.DefaultSkew)
}

// NewMemoryWithSkew creates an in-memory store with an explicit expiry margin.
func NewMemoryWithSkew(skew time.Duration) *MemoryStore {
	return &MemoryStore{vals: make(map[string]string), skew: skew}
}

// Save stores the credential and username.
func (s *MemoryStore) Save(_ context.Context, tok, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[keyToken] = tok
	s.vals[keyUsername] = username
	return nil
}

// Clear removes all credential state.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	return nil
}

// Token returns the stored credential, clearing it first if it has expired.
func (s *MemoryStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := s.vals[keyToken]
	if tok == "" {
		return "", nil
	}
	if token.IsExpired(tok, s.skew) {
		s.clearLocked()
		return "", nil
	}
	return tok, nil
}

// RawToken returns the stored credential without the expiry check.
func (s *MemoryStore) RawToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vals[keyToken], nil
}

// Username returns the stored subject identity.
func (s *MemoryStore) Username(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vals[keyUsername], nil
}

// Authenticated reports whether a usable credential is stored.
func (s *MemoryStore) Authenticated(ctx context.Context) bool {
	tok, err := s.Token(ctx)
	return err == nil && tok != ""
}

// Close is a no-op for the memory driver.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) clearLocked() {
	delete(s.vals, keyToken)
	delete(s.vals, keyUsername)
}
