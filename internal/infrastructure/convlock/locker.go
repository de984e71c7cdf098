// Package convlock serializes mutations per conversation id. Operations on
// different conversations proceed fully in parallel.
package convlock

import (
	"context"
	"sync"
)

// Locker runs fn while holding the mutual-exclusion lock for a conversation.
// The lock covers the whole update cycle including side effects and event
// dispatch.
type Locker interface {
	WithLock(ctx context.Context, conversationID uint, fn func() error) error
}

// MemoryLocker is the in-process implementation: a keyed mutex per
// conversation id. Suitable for single-node deployments and tests.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewMemoryLocker creates an empty keyed-mutex locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[uint]*sync.Mutex)}
}

func (l *MemoryLocker) lockFor(conversationID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[conversationID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[conversationID] = m
	}
	return m
}

// WithLock implements Locker.
func (l *MemoryLocker) WithLock(ctx context.Context, conversationID uint, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := l.lockFor(conversationID)
	m.Lock()
	defer m.Unlock()
	return fn()
}
