package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Ключи клиентского кеша. Значение по ключу всегда перезаписывается целиком.
const (
	KeyUser           = "user"
	KeyPreferences    = "userPreferences"
	KeyTheme          = "theme"
	KeyWizardProgress = "onboardingWizard"
)

// Store — долговременный кеш клиента (аналог localStorage браузера),
// разделённый по clientID.
//
// Использование:
//
//	err := store.Set(ctx, clientID, storage.KeyUser, data)
//	data, err := store.Get(ctx, clientID, storage.KeyUser)
type Store interface {
	// Get возвращает ErrNotFound, если ключа нет.
	Get(ctx context.Context, clientID, key string) ([]byte, error)

	// Set перезаписывает значение целиком.
	Set(ctx context.Context, clientID, key string, value []byte) error

	// Delete удаляет ключ; отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, clientID, key string) error

	// Close освобождает соединения.
	Close() error
}

// Ошибки хранилища
var (
	ErrNotFound    = errors.New("storage: key not found")
	ErrUnavailable = errors.New("storage: backend unavailable")
	ErrInvalidKey  = errors.New("storage: invalid key")
)

func validate(clientID, key string) error {
	if clientID == "" || key == "" {
		return ErrInvalidKey
	}
	return nil
}

// GetJSON читает и декодирует значение.
func GetJSON(ctx context.Context, s Store, clientID, key string, dst interface{}) error {
	data, err := s.Get(ctx, clientID, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON кодирует и сохраняет значение.
func SetJSON(ctx context.Context, s Store, clientID, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, clientID, key, data)
}
