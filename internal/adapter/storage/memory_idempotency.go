package storage

import (
	"context"
	"sync"
	"time"
)

const sweepThreshold = 4096

// MemoryIdempotency is the single-process stand-in for RedisAdapter.
type MemoryIdempotency struct {
	mu   sync.Mutex
	ttl  time.Duration
	keys map[string]time.Time
	now  func() time.Time
}

func NewMemoryIdempotency(ttl time.Duration) *MemoryIdempotency {
	if ttl <= 0 {
		ttl = idempotencyKeyTTL
	}
	return &MemoryIdempotency{
		ttl:  ttl,
		keys: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (m *MemoryIdempotency) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expires, ok := m.keys[key]; ok && now.Before(expires) {
		return false, nil
	}

	if len(m.keys) >= sweepThreshold {
		for k, expires := range m.keys {
			if !now.Before(expires) {
				delete(m.keys, k)
			}
		}
	}

	m.keys[key] = now.Add(m.ttl)
	return true, nil
}

func (m *MemoryIdempotency) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.keys, key)
	return nil
}
