package cache

import (
	"context"
	"sync"
	"time"
)

const pendingMarker = "\x00pending"

// IdempotencyStore remembers Idempotency-Key values of mutating requests so a
// retried request is answered from the first response instead of running twice.
type IdempotencyStore interface {
	// Reserve claims key. It returns false if the key is already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Complete stores the response for a reserved key.
	Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Lookup returns the stored response. done is false while the first request is in flight.
	Lookup(ctx context.Context, key string) (response []byte, done bool, err error)
	// Release drops a reservation so the key can be used again.
	Release(ctx context.Context, key string) error
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-process IdempotencyStore used when Redis is not configured
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.get(key); ok {
		return false, nil
	}
	s.entries[key] = memoryEntry{value: pendingMarker, expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Complete(_ context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{value: string(response), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.get(key)
	if !ok || e.value == pendingMarker {
		return nil, false, nil
	}
	return []byte(e.value), true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// get returns a live entry and evicts an expired one. Caller holds mu.
func (s *MemoryStore) get(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}
