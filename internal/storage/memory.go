package storage

import (
	"context"
	"sync"
)

// MemoryStore — потокобезопасное хранилище в памяти процесса.
// Данные теряются при перезапуске.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte // clientID -> key -> value
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, clientID, key string) ([]byte, error) {
	if err := validate(clientID, key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[clientID][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, clientID, key string, value []byte) error {
	if err := validate(clientID, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[clientID]
	if !ok {
		bucket = make(map[string][]byte)
		m.data[clientID] = bucket
	}
	bucket[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, clientID, key string) error {
	if err := validate(clientID, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if bucket, ok := m.data[clientID]; ok {
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(m.data, clientID)
		}
	}
	return nil
}

// has сообщает, есть ли ключ (без копирования значения).
func (m *MemoryStore) has(clientID, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[clientID][key]
	return ok
}

// Len возвращает число клиентов с данными.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
