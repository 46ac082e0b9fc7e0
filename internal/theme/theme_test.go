package theme

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/annel0/bookit/internal/session"
	"github.com/annel0/bookit/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"light", "dark"} {
		got, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, got.String())
	}
	_, err := Parse("Dark")
	assert.ErrorIs(t, err, ErrUnknownTheme)
}

func TestToggle(t *testing.T) {
	assert.Equal(t, Dark, Light.Toggle())
	assert.Equal(t, Light, Dark.Toggle())
	assert.Equal(t, Light, Light.Toggle().Toggle())
}

func TestService_CurrentFallbacks(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewService(store, session.CookieOptions{})
	ctx := context.Background()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, Default, svc.Current(ctx, r, "c"))

	r.AddCookie(&http.Cookie{Name: session.ThemeCookie, Value: "dark"})
	assert.Equal(t, Dark, svc.Current(ctx, r, "c"))

	// кеш важнее cookie
	require.NoError(t, store.Set(ctx, "c", storage.KeyTheme, []byte("light")))
	assert.Equal(t, Light, svc.Current(ctx, r, "c"))

	require.NoError(t, store.Set(ctx, "c", storage.KeyTheme, []byte("neon")))
	assert.Equal(t, Dark, svc.Current(ctx, r, "c"))
}

func TestService_Toggle(t *testing.T) {
	svc := NewService(storage.NewMemoryStore(), session.CookieOptions{})
	ctx := context.Background()
	r := httptest.NewRequest(http.MethodPost, "/api/theme", nil)

	rec := httptest.NewRecorder()
	got, err := svc.Toggle(ctx, rec, r, "c")
	require.NoError(t, err)
	assert.Equal(t, Dark, got)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "dark", cookies[0].Value)

	got, err = svc.Toggle(ctx, httptest.NewRecorder(), r, "c")
	require.NoError(t, err)
	assert.Equal(t, Light, got)
}

func TestService_SetRejectsUnknown(t *testing.T) {
	svc := NewService(storage.NewMemoryStore(), session.CookieOptions{})
	err := svc.Set(context.Background(), httptest.NewRecorder(), "c", Theme("blue"))
	assert.ErrorIs(t, err, ErrUnknownTheme)
}
