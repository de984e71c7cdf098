// Package mutestore holds transient per-conversation flags in an external
// key/value store. Flags have no durability guarantee beyond the store's own
// semantics and no expiry unless explicitly cleared.
package mutestore

import (
	"context"
	"fmt"
	"sync"
)

// Store is the ephemeral state interface the lifecycle service depends on.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

// MuteKey namespaces the mute flag for a conversation.
func MuteKey(conversationID uint) string {
	return fmt.Sprintf("mute:%d", conversationID)
}

// MemoryStore is the in-process Store used in tests and single-node runs.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
