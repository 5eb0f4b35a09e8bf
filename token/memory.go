package token

import (
	"context"
	"sync"
)

// MemoryStore keeps the token pair in process memory. It is the default
// backend when no durable storage is configured, and the usual choice in
// tests.
type MemoryStore struct {
	mu   sync.Mutex
	pair Pair
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SetTokens(_ context.Context, pair Pair) error {
	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Tokens(_ context.Context) (Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.pair = Pair{}
	s.mu.Unlock()
	return nil
}
