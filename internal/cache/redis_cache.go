package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/bookit/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки Redis для кеша.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// MaxTTL ограничивает TTL сверху, 0 — без ограничения.
	MaxTTL time.Duration
}

// RedisCache реализует Repo поверх Redis: общий кеш для всех инстансов.
type RedisCache struct {
	client *redis.Client
	prefix string
	maxTTL time.Duration
	counters
}

// NewRedisCache создаёт клиент и проверяет соединение.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "bookit:cache:"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Redis cache initialized: %s", cfg.Addr)
	return &RedisCache{client: rdb, prefix: cfg.KeyPrefix, maxTTL: cfg.MaxTTL}, nil
}

// Get implements Repo.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer r.recordLatency(start)

	if key == "" {
		return nil, ErrInvalidKey
	}

	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == nil {
		r.hit()
		return val, nil
	}
	r.miss()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return nil, fmt.Errorf("redis get error: %w", err)
}

// Set implements Repo.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if r.maxTTL > 0 && (ttl == 0 || ttl > r.maxTTL) {
		ttl = r.maxTTL
	}
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Delete implements Repo.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// GetMetrics implements Repo.
func (r *RedisCache) GetMetrics() *Metrics { return r.snapshot() }

// Close implements Repo.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
