package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/bookit/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей, 0 — без истечения
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "bookit:client:",
		TTL:       365 * 24 * time.Hour,
	}
}

// RedisStore хранит клиентский кеш в Redis: ключ <prefix><clientID>:<key>.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore создаёт клиент и проверяет соединение.
func NewRedisStore(config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "bookit:client:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("🔴 Connected to Redis at %s", config.Addr)
	return newRedisStoreWithClient(client, config.KeyPrefix, config.TTL), nil
}

func newRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, keyPrefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(clientID, key string) string {
	return r.keyPrefix + clientID + ":" + key
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, clientID, key string) ([]byte, error) {
	if err := validate(clientID, key); err != nil {
		return nil, err
	}
	val, err := r.client.Get(ctx, r.key(clientID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis get: %v", ErrUnavailable, err)
	}
	return val, nil
}

// Set implements Store.
func (r *RedisStore) Set(ctx context.Context, clientID, key string, value []byte) error {
	if err := validate(clientID, key); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(clientID, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, clientID, key string) error {
	if err := validate(clientID, key); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.key(clientID, key)).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %v", ErrUnavailable, err)
	}
	return nil
}

// Close implements Store.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
