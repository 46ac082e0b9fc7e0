package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Repo — горячий кеш перед медленным хранилищем учётных записей.
//
// Использование:
//
//	data, err := repo.Get(ctx, "account:user@bookit.com")
//	err = repo.Set(ctx, "account:user@bookit.com", data, time.Minute)
//	err = repo.Delete(ctx, "account:user@bookit.com")
type Repo interface {
	// Get возвращает ErrCacheMiss если ключа нет или он истёк.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение. TTL = 0 означает отсутствие истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет ключ; отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, key string) error

	// GetMetrics возвращает снимок метрик.
	GetMetrics() *Metrics

	Close() error
}

// Invalidator рассылает инвалидации между инстансами шлюза.
type Invalidator interface {
	PublishInvalidation(ctx context.Context, key string) error
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error
	Close() error
}

// InvalidationHandler обрабатывает уведомления об инвалидации кеша.
type InvalidationHandler func(key string) error

// Metrics содержит метрики кеша.
type Metrics struct {
	TotalRequests int64     `json:"total_requests"`
	CacheHits     int64     `json:"cache_hits"`
	CacheMisses   int64     `json:"cache_misses"`
	HitRatio      float64   `json:"hit_ratio"`
	MaxLatencyMs  float64   `json:"max_latency_ms"`
	LastUpdate    time.Time `json:"last_update"`
}

// Ошибки кеша
var (
	ErrCacheMiss  = errors.New("cache miss")
	ErrInvalidKey = errors.New("cache: invalid key")
)

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// counters — общие счётчики попаданий для реализаций Repo.
type counters struct {
	hits       int64
	misses     int64
	maxLatency int64 // нс

	mu sync.Mutex
}

func (c *counters) hit()  { atomic.AddInt64(&c.hits, 1) }
func (c *counters) miss() { atomic.AddInt64(&c.misses, 1) }

func (c *counters) recordLatency(start time.Time) {
	latency := time.Since(start).Nanoseconds()
	for {
		current := atomic.LoadInt64(&c.maxLatency)
		if latency <= current || atomic.CompareAndSwapInt64(&c.maxLatency, current, latency) {
			return
		}
	}
}

func (c *counters) snapshot() *Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	m := &Metrics{
		TotalRequests: hits + misses,
		CacheHits:     hits,
		CacheMisses:   misses,
		MaxLatencyMs:  float64(atomic.LoadInt64(&c.maxLatency)) / 1e6,
		LastUpdate:    time.Now(),
	}
	if m.TotalRequests > 0 {
		m.HitRatio = float64(hits) / float64(m.TotalRequests)
	}
	return m
}
