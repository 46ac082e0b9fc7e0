package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value   []byte
	expires time.Time // zero — без истечения
}

// MemoryCache — кеш в памяти процесса для одиночного инстанса.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memEntry
	now   func() time.Time
	counters
}

// NewMemoryCache создаёт пустой кеш.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memEntry), now: time.Now}
}

// Get implements Repo.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer m.recordLatency(start)

	if key == "" {
		return nil, ErrInvalidKey
	}

	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || (!e.expires.IsZero() && !m.now().Before(e.expires)) {
		m.miss()
		return nil, ErrCacheMiss
	}
	m.hit()
	return append([]byte(nil), e.value...), nil
}

// Set implements Repo.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

// Delete implements Repo.
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// GetMetrics implements Repo.
func (m *MemoryCache) GetMetrics() *Metrics { return m.snapshot() }

// Close implements Repo.
func (m *MemoryCache) Close() error { return nil }
