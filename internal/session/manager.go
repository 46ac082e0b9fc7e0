package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/annel0/bookit/internal/auth"
	"github.com/annel0/bookit/internal/eventbus"
	"github.com/annel0/bookit/internal/logging"
	"github.com/annel0/bookit/internal/storage"
)

// Manager ведёт сессию пользователя: вход, выход и чтение личности из cookie.
// Личность хранится дважды: в кеше клиента (ключ "user") и в cookie "user".
type Manager struct {
	auth    *auth.Authenticator
	codec   auth.IdentityCodec
	store   storage.Store
	bus     eventbus.EventBus
	cookies CookieOptions
	log     *logging.Logger
}

// Config собирает зависимости Manager.
type Config struct {
	Authenticator *auth.Authenticator
	Codec         auth.IdentityCodec // nil — auth.JSONCodec
	Store         storage.Store
	Bus           eventbus.EventBus // nil — события не публикуются
	Cookies       CookieOptions
	Logger        *logging.Logger
}

// NewManager создаёт менеджер сессий.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Authenticator == nil {
		return nil, errors.New("session: authenticator is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if cfg.Codec == nil {
		cfg.Codec = auth.JSONCodec{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetSessionLogger()
	}
	return &Manager{
		auth:    cfg.Authenticator,
		codec:   cfg.Codec,
		store:   cfg.Store,
		bus:     cfg.Bus,
		cookies: cfg.Cookies,
		log:     cfg.Logger,
	}, nil
}

// Cookies возвращает атрибуты cookie, с которыми работает менеджер.
func (m *Manager) Cookies() CookieOptions {
	return m.cookies
}

// Login проверяет учётные данные. При успехе личность записывается в кеш
// клиента и в cookie "user". Неверные данные — auth.ErrInvalidCredentials,
// при этом ничего не пишется.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, clientID, email, password string) (auth.Identity, error) {
	id, err := m.auth.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			m.log.Info("неудачный вход: %s", email)
			m.publish(ctx, eventbus.EventLoginFailed, clientID, map[string]string{"email": email})
		}
		return auth.Identity{}, err
	}

	value, err := m.codec.Encode(id)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("encode identity: %w", err)
	}
	// Ошибки бэкенда кеша не прерывают вход: FallbackStore уходит в память.
	if err := storage.SetJSON(ctx, m.store, clientID, storage.KeyUser, id); err != nil {
		m.log.Warn("не удалось сохранить личность %s: %v", id.Email, err)
	}
	http.SetCookie(w, m.cookies.New(UserCookie, value, 0))

	m.log.Info("вход: %s (%s)", id.Email, id.Role)
	m.publish(ctx, eventbus.EventLogin, clientID, id)
	return id, nil
}

// Logout удаляет cookie "user" и личность из кеша клиента.
// Повторный выход без сессии не ошибка.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, clientID string) error {
	http.SetCookie(w, m.cookies.Expired(UserCookie))
	if clientID == "" {
		return nil
	}
	if err := m.store.Delete(ctx, clientID, storage.KeyUser); err != nil {
		return fmt.Errorf("clear cached identity: %w", err)
	}
	m.publish(ctx, eventbus.EventLogout, clientID, nil)
	return nil
}

// Identity читает личность из cookie запроса. Отсутствующая или битая cookie — nil.
func (m *Manager) Identity(r *http.Request) *auth.Identity {
	raw := cookieValue(r, UserCookie)
	id, ok := auth.ParseIdentity(m.codec, raw)
	if !ok && raw != "" {
		m.log.Debug("битая cookie user отброшена")
	}
	return id
}

// Restore возвращает личность из кеша клиента; если там пусто, используется cookie.
func (m *Manager) Restore(ctx context.Context, r *http.Request, clientID string) *auth.Identity {
	if clientID != "" {
		var id auth.Identity
		err := storage.GetJSON(ctx, m.store, clientID, storage.KeyUser, &id)
		if err == nil && id.Validate() == nil {
			return &id
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			m.log.Debug("кеш личности %s не прочитан: %v", clientID, err)
		}
	}
	return m.Identity(r)
}

// OnboardingCompleted сообщает, стоит ли cookie onboarding_completed=true.
func (m *Manager) OnboardingCompleted(r *http.Request) bool {
	return OnboardingCompleted(r)
}

// OnboardingCompleted проверяет cookie без менеджера.
func OnboardingCompleted(r *http.Request) bool {
	return cookieValue(r, OnboardingCookie) == "true"
}

func (m *Manager) publish(ctx context.Context, eventType, clientID string, payload interface{}) {
	if m.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope("session", eventType, payload)
	if err != nil {
		m.log.Warn("событие %s не собрано: %v", eventType, err)
		return
	}
	ev.Metadata = map[string]string{"client_id": clientID}
	if err := m.bus.Publish(ctx, ev); err != nil {
		m.log.Warn("событие %s не опубликовано: %v", eventType, err)
	}
}
