// Package memory provides an in-process suppression store with manual expiry.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
)

// Store implements crawler.SuppressionStore in memory. Entries expire lazily
// against the injected clock, so tests control expiry by moving the clock.
type Store struct {
	mu      sync.RWMutex
	clock   crawler.Clock
	entries map[string]time.Time
}

// New constructs a Store.
func New(clock crawler.Clock) *Store {
	return &Store{
		clock:   clock,
		entries: make(map[string]time.Time),
	}
}

// IsSuppressed reports whether key holds an unexpired entry.
func (s *Store) IsSuppressed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	expiresAt, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !s.clock.Now().Before(expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.Equal(expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// SuppressUntil installs or replaces the entry for key.
func (s *Store) SuppressUntil(_ context.Context, key string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = expiresAt
	return nil
}

// ExpiresAt returns the stored expiry for key.
func (s *Store) ExpiresAt(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.entries[key]
	return t, ok
}

// Expire drops key immediately, as if its TTL had elapsed.
func (s *Store) Expire(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len reports the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
