package cache

import (
	"context"
	"sync"
	"time"
)

// Store abstracts the counters and short-lived values the platform keeps
// outside the relational database (rate-limit windows, transient flags).
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (count int64, remaining time.Duration, err error)
	Delete(ctx context.Context, key string) error
}

// memoryStore is a process-local Store, used when Redis is not configured.
type memoryStore struct {
	mu    sync.Mutex
	data  map[string]*memoryEntry
	clock func() time.Time
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryStore constructs an in-memory store suitable for single-instance
// deployments and tests.
func NewMemoryStore() Store {
	return &memoryStore{
		data:  make(map[string]*memoryEntry),
		clock: time.Now,
	}
}

func (s *memoryStore) IncrementWithTTL(_ context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &memoryEntry{expiresAt: now.Add(ttl)}
		s.data[key] = entry
	}
	entry.count++

	// Opportunistic cleanup keeps the map bounded without a background goroutine.
	if len(s.data) > 4096 {
		for k, e := range s.data {
			if now.After(e.expiresAt) {
				delete(s.data, k)
			}
		}
	}

	return entry.count, entry.expiresAt.Sub(now), nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
