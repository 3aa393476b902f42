// Package memstore is a process-local revocation.Store.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/taskauth/revocation"
)

// Store keeps entries in a map guarded by a mutex. The mutex is the store's
// atomicity primitive, the equivalent of a unique index.
type Store struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]time.Time)}
}

func (s *Store) InsertRevocation(_ context.Context, fingerprint string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[fingerprint]; exists {
		return revocation.ErrDuplicate
	}
	s.entries[fingerprint] = expiresAt.UTC()
	return nil
}

func (s *Store) FindRevocation(_ context.Context, fingerprint string) (revocation.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.entries[fingerprint]
	if !ok {
		return revocation.Entry{}, revocation.ErrNotFound
	}
	return revocation.Entry{Fingerprint: fingerprint, ExpiresAt: exp}, nil
}

func (s *Store) DeleteRevocation(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	delete(s.entries, fingerprint)
	s.mu.Unlock()
	return nil
}

func (s *Store) DeleteExpiredRevocations(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for fp, exp := range s.entries {
		if !exp.After(now) {
			delete(s.entries, fp)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, stale ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
