package session

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/annel0/bookit/internal/auth"
	"github.com/annel0/bookit/internal/eventbus"
	"github.com/annel0/bookit/internal/logging"
	"github.com/annel0/bookit/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.PasswordCost = bcrypt.MinCost
}

type fixture struct {
	mgr   *Manager
	store *storage.MemoryStore
	bus   eventbus.EventBus
	logs  *bytes.Buffer
}

func newFixture(t *testing.T, codec auth.IdentityCodec) *fixture {
	t.Helper()
	dir, err := auth.NewMemoryDirectory(auth.DefaultAccounts)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	bus := eventbus.NewMemoryBus(16)
	t.Cleanup(func() { _ = bus.Close() })

	var logs bytes.Buffer
	mgr, err := NewManager(Config{
		Authenticator: auth.NewAuthenticator(dir),
		Codec:         codec,
		Store:         store,
		Bus:           bus,
		Logger:        logging.NewWriterLogger("session", &logs, logging.DEBUG),
	})
	require.NoError(t, err)
	return &fixture{mgr: mgr, store: store, bus: bus, logs: &logs}
}

// requestWith переносит Set-Cookie ответа в новый запрос.
func requestWith(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return r
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestNewManager_RequiresDependencies(t *testing.T) {
	_, err := NewManager(Config{})
	assert.Error(t, err)
}

func TestLogin_SetsCookieAndCache(t *testing.T) {
	f := newFixture(t, nil)
	rec := httptest.NewRecorder()

	id, err := f.mgr.Login(context.Background(), rec, "client-1", "admin@bookit.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, id.Role)

	c := findCookie(rec, UserCookie)
	require.NotNil(t, c)
	assert.Equal(t, "/", c.Path)
	assert.False(t, c.Secure)
	assert.False(t, c.HttpOnly)

	var cached auth.Identity
	require.NoError(t, storage.GetJSON(context.Background(), f.store, "client-1", storage.KeyUser, &cached))
	assert.Equal(t, id, cached)

	got := f.mgr.Identity(requestWith(rec))
	require.NotNil(t, got)
	assert.Equal(t, id, *got)
}

func TestLogin_InvalidCredentialsWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	rec := httptest.NewRecorder()

	_, err := f.mgr.Login(context.Background(), rec, "client-1", "admin@bookit.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Nil(t, findCookie(rec, UserCookie))
	assert.Equal(t, 0, f.store.Len())
	assert.Contains(t, f.logs.String(), "неудачный вход")
}

func TestLogin_SecondLoginOverwritesIdentity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.mgr.Login(ctx, httptest.NewRecorder(), "c", "admin@bookit.com", "admin123")
	require.NoError(t, err)
	_, err = f.mgr.Login(ctx, httptest.NewRecorder(), "c", "user@bookit.com", "user123")
	require.NoError(t, err)

	var cached auth.Identity
	require.NoError(t, storage.GetJSON(ctx, f.store, "c", storage.KeyUser, &cached))
	assert.Equal(t, "user@bookit.com", cached.Email)
	assert.Equal(t, auth.RoleUser, cached.Role)
}

func TestLogout_ClearsCookieAndCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.mgr.Login(ctx, httptest.NewRecorder(), "c", "user@bookit.com", "user123")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, f.mgr.Logout(ctx, rec, "c"))

	c := findCookie(rec, UserCookie)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
	assert.Equal(t, "", c.Value)

	_, err = f.store.Get(ctx, "c", storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// выход без сессии
	require.NoError(t, f.mgr.Logout(ctx, httptest.NewRecorder(), "c"))
	require.NoError(t, f.mgr.Logout(ctx, httptest.NewRecorder(), ""))
}

func TestIdentity_FailsClosed(t *testing.T) {
	f := newFixture(t, nil)

	for _, raw := range []string{"", "not-json", "%7B%22email%22", `{"email":"x@y","role":"root","name":"X"}`} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if raw != "" {
			r.AddCookie(&http.Cookie{Name: UserCookie, Value: raw})
		}
		assert.Nil(t, f.mgr.Identity(r), "cookie %q", raw)
	}
}

func TestIdentity_RawJSONCookie(t *testing.T) {
	f := newFixture(t, nil)

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.Header.Set("Cookie", `theme=dark; user={"email":"user@bookit.com","role":"user","name":"Regular User"}; onboarding_completed=true`)

	got := f.mgr.Identity(r)
	require.NotNil(t, got)
	assert.Equal(t, "Regular User", got.Name)
	assert.True(t, OnboardingCompleted(r))

	r.Header.Set("Cookie", `user={"email":"user@bookit.com","role":"root","name":"X"}`)
	assert.Nil(t, f.mgr.Identity(r))
}

func TestRawCookieValue(t *testing.T) {
	lines := []string{`a=1; user={"email":"e"}`, "b=2"}
	assert.Equal(t, `{"email":"e"}`, rawCookieValue(lines, "user"))
	assert.Equal(t, "2", rawCookieValue(lines, "b"))
	assert.Empty(t, rawCookieValue(lines, "missing"))
	assert.Empty(t, rawCookieValue(nil, "user"))
}

func TestIdentity_SignedCodecRejectsForgedJSON(t *testing.T) {
	codec, err := auth.NewSignedCodec(nil, time.Hour)
	require.NoError(t, err)
	f := newFixture(t, codec)

	forged, err := auth.JSONCodec{}.Encode(auth.Identity{Email: "x@y", Role: auth.RoleAdmin, Name: "X"})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: UserCookie, Value: forged})
	assert.Nil(t, f.mgr.Identity(r))

	rec := httptest.NewRecorder()
	_, err = f.mgr.Login(context.Background(), rec, "c", "admin@bookit.com", "admin123")
	require.NoError(t, err)
	got := f.mgr.Identity(requestWith(rec))
	require.NotNil(t, got)
	assert.True(t, got.IsAdmin())
}

func TestRestore_PrefersCacheThenCookie(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	_, err := f.mgr.Login(ctx, rec, "c", "user@bookit.com", "user123")
	require.NoError(t, err)
	r := requestWith(rec)

	got := f.mgr.Restore(ctx, r, "c")
	require.NotNil(t, got)
	assert.Equal(t, "Regular User", got.Name)

	// кеш другого клиента пуст — берётся cookie
	got = f.mgr.Restore(ctx, r, "other")
	require.NotNil(t, got)
	assert.Equal(t, "user@bookit.com", got.Email)

	assert.Nil(t, f.mgr.Restore(ctx, httptest.NewRequest(http.MethodGet, "/", nil), "other"))
}

func TestOnboardingCompleted(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, OnboardingCompleted(r))

	r.AddCookie(&http.Cookie{Name: OnboardingCookie, Value: "yes"})
	assert.False(t, OnboardingCompleted(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: OnboardingCookie, Value: "true"})
	assert.True(t, OnboardingCompleted(r))
}

func TestLogin_PublishesEvents(t *testing.T) {
	f := newFixture(t, nil)
	var (
		mu    sync.Mutex
		types []string
	)
	_, err := f.bus.Subscribe(context.Background(), eventbus.Filter{Sources: []string{"session"}}, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		types = append(types, ev.EventType)
		mu.Unlock()
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = f.mgr.Login(ctx, httptest.NewRecorder(), "c", "admin@bookit.com", "admin123")
	require.NoError(t, err)
	require.NoError(t, f.mgr.Logout(ctx, httptest.NewRecorder(), "c"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(types) == 2
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{eventbus.EventLogin, eventbus.EventLogout}, types)
}

func TestClientID(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	id := ClientID(rec, r, CookieOptions{})
	assert.Len(t, id, 36)
	c := findCookie(rec, ClientIDCookie)
	require.NotNil(t, c)
	assert.Equal(t, id, c.Value)

	// повторный вызов в том же запросе видит уже выданный id
	assert.Equal(t, id, ClientID(httptest.NewRecorder(), r, CookieOptions{}))

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.AddCookie(&http.Cookie{Name: ClientIDCookie, Value: "../etc"})
	assert.NotEqual(t, "../etc", ClientID(httptest.NewRecorder(), bad, CookieOptions{}))
}

func TestCookieOptions(t *testing.T) {
	opts := CookieOptions{Secure: true, HTTPOnly: true, SameSite: http.SameSiteLaxMode}
	c := opts.New(OnboardingCookie, "true", OnboardingMaxAge)
	assert.Equal(t, 365*24*3600, c.MaxAge)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)

	e := opts.Expired(UserCookie)
	assert.Equal(t, -1, e.MaxAge)
}
