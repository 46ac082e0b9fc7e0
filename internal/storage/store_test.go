package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/annel0/bookit/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore — общий контракт для всех реализаций Store.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "client-1", KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "client-1", KeyUser, []byte(`{"email":"a"}`)))
	require.NoError(t, s.Set(ctx, "client-2", KeyUser, []byte(`{"email":"b"}`)))

	got, err := s.Get(ctx, "client-1", KeyUser)
	require.NoError(t, err)
	assert.Equal(t, `{"email":"a"}`, string(got))

	// перезапись целиком
	require.NoError(t, s.Set(ctx, "client-1", KeyUser, []byte(`{}`)))
	got, err = s.Get(ctx, "client-1", KeyUser)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))

	require.NoError(t, s.Delete(ctx, "client-1", KeyUser))
	_, err = s.Get(ctx, "client-1", KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)

	// удаление отсутствующего ключа — не ошибка
	require.NoError(t, s.Delete(ctx, "client-1", KeyUser))

	// клиенты изолированы
	got, err = s.Get(ctx, "client-2", KeyUser)
	require.NoError(t, err)
	assert.Equal(t, `{"email":"b"}`, string(got))

	assert.ErrorIs(t, s.Set(ctx, "", KeyUser, nil), ErrInvalidKey)
	_, err = s.Get(ctx, "client-1", "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	buf := []byte("dark")
	require.NoError(t, s.Set(ctx, "c", KeyTheme, buf))
	buf[0] = 'X'

	got, err := s.Get(ctx, "c", KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", string(got))
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Get(context.Background(), "client-2", KeyUser)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("BOOKIT_TEST_REDIS")
	if addr == "" {
		t.Skip("BOOKIT_TEST_REDIS не задан")
	}
	s, err := NewRedisStore(&RedisConfig{Addr: addr, KeyPrefix: "bookit:test:", TTL: time.Minute})
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

// brokenStore имитирует недоступный бэкенд (например, запрещённое хранилище браузера).
type brokenStore struct {
	*MemoryStore
	down bool
}

func (b *brokenStore) Get(ctx context.Context, c, k string) ([]byte, error) {
	if b.down {
		return nil, errors.New("connection refused")
	}
	return b.MemoryStore.Get(ctx, c, k)
}

func (b *brokenStore) Set(ctx context.Context, c, k string, v []byte) error {
	if b.down {
		return errors.New("connection refused")
	}
	return b.MemoryStore.Set(ctx, c, k, v)
}

func (b *brokenStore) Delete(ctx context.Context, c, k string) error {
	if b.down {
		return errors.New("connection refused")
	}
	return b.MemoryStore.Delete(ctx, c, k)
}

func newFallback(t *testing.T) (*FallbackStore, *brokenStore, *bytes.Buffer) {
	t.Helper()
	primary := &brokenStore{MemoryStore: NewMemoryStore()}
	var buf bytes.Buffer
	return NewFallbackStore(primary, logging.NewWriterLogger("storage", &buf, logging.DEBUG)), primary, &buf
}

func TestFallbackStore_Contract(t *testing.T) {
	f, _, _ := newFallback(t)
	exerciseStore(t, f)
	assert.Zero(t, f.Degraded())
}

func TestFallbackStore_DegradesToMemory(t *testing.T) {
	f, primary, logs := newFallback(t)
	ctx := context.Background()

	primary.down = true
	require.NoError(t, f.Set(ctx, "c", KeyUser, []byte("alice")))

	got, err := f.Get(ctx, "c", KeyUser)
	require.NoError(t, err)
	assert.Equal(t, "alice", string(got))
	assert.Equal(t, int64(1), f.Degraded())
	assert.Contains(t, logs.String(), "[WARN] [storage]")

	// чтение отсутствующего ключа при недоступном бэкенде — просто промах
	_, err = f.Get(ctx, "c", KeyPreferences)
	assert.ErrorIs(t, err, ErrNotFound)

	// бэкенд восстановился: новая запись уходит в него, копия в памяти снимается
	primary.down = false
	require.NoError(t, f.Set(ctx, "c", KeyUser, []byte("bob")))
	got, err = primary.MemoryStore.Get(ctx, "c", KeyUser)
	require.NoError(t, err)
	assert.Equal(t, "bob", string(got))
	assert.False(t, f.overlay.has("c", KeyUser))
}

func TestFallbackStore_DeleteWhileDownHidesStaleValue(t *testing.T) {
	f, primary, _ := newFallback(t)
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, "c", KeyUser, []byte("alice")))
	primary.down = true
	require.NoError(t, f.Delete(ctx, "c", KeyUser))

	primary.down = false
	_, err := f.Get(ctx, "c", KeyUser)
	assert.ErrorIs(t, err, ErrNotFound, "выход из системы не должен воскрешать сессию")

	require.NoError(t, f.Set(ctx, "c", KeyUser, []byte("carol")))
	got, err := f.Get(ctx, "c", KeyUser)
	require.NoError(t, err)
	assert.Equal(t, "carol", string(got))
}

func TestJSONHelpers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	type prefs struct {
		Purpose []string `json:"purpose"`
	}
	require.NoError(t, SetJSON(ctx, s, "c", KeyPreferences, prefs{Purpose: []string{"flights"}}))

	var got prefs
	require.NoError(t, GetJSON(ctx, s, "c", KeyPreferences, &got))
	assert.Equal(t, []string{"flights"}, got.Purpose)

	require.NoError(t, s.Set(ctx, "c", KeyTheme, []byte("{broken")))
	assert.Error(t, GetJSON(ctx, s, "c", KeyTheme, &got))
	assert.ErrorIs(t, GetJSON(ctx, s, "c", KeyUser, &got), ErrNotFound)
}
