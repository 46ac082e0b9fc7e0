package theme

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/annel0/bookit/internal/session"
	"github.com/annel0/bookit/internal/storage"
)

// Theme — цветовая схема интерфейса.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Default используется, пока клиент ничего не выбрал.
const Default = Light

// ErrUnknownTheme возвращается Parse для неизвестного значения.
var ErrUnknownTheme = errors.New("theme: unknown theme")

// Parse разбирает строку light|dark.
func Parse(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
}

// Toggle возвращает противоположную тему.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

func (t Theme) String() string { return string(t) }

// Service хранит выбор темы в кеше клиента и дублирует его в cookie "theme".
type Service struct {
	store   storage.Store
	cookies session.CookieOptions
}

// NewService создаёт сервис темы.
func NewService(store storage.Store, cookies session.CookieOptions) *Service {
	return &Service{store: store, cookies: cookies}
}

// Current возвращает тему клиента: кеш, затем cookie, затем Default.
func (s *Service) Current(ctx context.Context, r *http.Request, clientID string) Theme {
	if clientID != "" {
		if raw, err := s.store.Get(ctx, clientID, storage.KeyTheme); err == nil {
			if t, err := Parse(string(raw)); err == nil {
				return t
			}
		}
	}
	if r != nil {
		if c, err := r.Cookie(session.ThemeCookie); err == nil {
			if t, err := Parse(c.Value); err == nil {
				return t
			}
		}
	}
	return Default
}

// Set сохраняет тему и ставит cookie.
func (s *Service) Set(ctx context.Context, w http.ResponseWriter, clientID string, t Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return err
	}
	if err := s.store.Set(ctx, clientID, storage.KeyTheme, []byte(t)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	http.SetCookie(w, s.cookies.New(session.ThemeCookie, string(t), session.OnboardingMaxAge))
	return nil
}

// Toggle переключает тему клиента и возвращает новую.
func (s *Service) Toggle(ctx context.Context, w http.ResponseWriter, r *http.Request, clientID string) (Theme, error) {
	next := s.Current(ctx, r, clientID).Toggle()
	if err := s.Set(ctx, w, clientID, next); err != nil {
		return "", err
	}
	return next, nil
}
