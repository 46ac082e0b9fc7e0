package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/annel0/bookit/internal/logging"
)

// FallbackStore оборачивает основное хранилище. Если бэкенд недоступен,
// запись уходит в память процесса (сессия работает, но не переживёт
// перезапуск), а вызывающий код ошибки не видит.
type FallbackStore struct {
	primary Store
	overlay *MemoryStore
	log     *logging.Logger

	mu         sync.RWMutex
	tombstones map[string]struct{} // удалено локально, пока бэкенд недоступен

	degraded int64
}

// NewFallbackStore создаёт обёртку. log может быть nil — тогда используется глобальный логгер.
func NewFallbackStore(primary Store, log *logging.Logger) *FallbackStore {
	if log == nil {
		log = logging.Default()
	}
	return &FallbackStore{
		primary:    primary,
		overlay:    NewMemoryStore(),
		log:        log,
		tombstones: make(map[string]struct{}),
	}
}

func tombstoneKey(clientID, key string) string {
	return clientID + "\x00" + key
}

func (f *FallbackStore) buried(clientID, key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.tombstones[tombstoneKey(clientID, key)]
	return ok
}

func (f *FallbackStore) setTombstone(clientID, key string, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if on {
		f.tombstones[tombstoneKey(clientID, key)] = struct{}{}
	} else {
		delete(f.tombstones, tombstoneKey(clientID, key))
	}
}

func (f *FallbackStore) degrade(op, clientID, key string, err error) {
	atomic.AddInt64(&f.degraded, 1)
	f.log.Warn("storage %s %s/%s недоступно, работаем в памяти: %v", op, clientID, key, err)
}

// Get implements Store.
func (f *FallbackStore) Get(ctx context.Context, clientID, key string) ([]byte, error) {
	if err := validate(clientID, key); err != nil {
		return nil, err
	}
	if f.buried(clientID, key) {
		return nil, ErrNotFound
	}
	if f.overlay.has(clientID, key) {
		return f.overlay.Get(ctx, clientID, key)
	}

	val, err := f.primary.Get(ctx, clientID, key)
	if err == nil || errors.Is(err, ErrNotFound) {
		return val, err
	}
	f.degrade("get", clientID, key, err)
	return nil, ErrNotFound
}

// Set implements Store.
func (f *FallbackStore) Set(ctx context.Context, clientID, key string, value []byte) error {
	if err := validate(clientID, key); err != nil {
		return err
	}
	f.setTombstone(clientID, key, false)

	if err := f.primary.Set(ctx, clientID, key, value); err != nil {
		f.degrade("set", clientID, key, err)
		return f.overlay.Set(ctx, clientID, key, value)
	}
	// бэкенд снова доступен: локальная копия больше не нужна
	return f.overlay.Delete(ctx, clientID, key)
}

// Delete implements Store.
func (f *FallbackStore) Delete(ctx context.Context, clientID, key string) error {
	if err := validate(clientID, key); err != nil {
		return err
	}
	_ = f.overlay.Delete(ctx, clientID, key)

	if err := f.primary.Delete(ctx, clientID, key); err != nil {
		f.degrade("delete", clientID, key, err)
		f.setTombstone(clientID, key, true)
		return nil
	}
	f.setTombstone(clientID, key, false)
	return nil
}

// Degraded возвращает число операций, обслуженных в памяти.
func (f *FallbackStore) Degraded() int64 {
	return atomic.LoadInt64(&f.degraded)
}

// Close implements Store.
func (f *FallbackStore) Close() error {
	return f.primary.Close()
}
