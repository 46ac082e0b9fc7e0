package onboarding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/annel0/bookit/internal/eventbus"
	"github.com/annel0/bookit/internal/logging"
	"github.com/annel0/bookit/internal/session"
	"github.com/annel0/bookit/internal/storage"
)

// Service хранит прогресс мастера между запросами и завершает онбординг.
type Service struct {
	store   storage.Store
	bus     eventbus.EventBus
	cookies session.CookieOptions
	log     *logging.Logger
}

// NewService создаёт сервис. bus может быть nil.
func NewService(store storage.Store, bus eventbus.EventBus, cookies session.CookieOptions) *Service {
	return &Service{
		store:   store,
		bus:     bus,
		cookies: cookies,
		log:     logging.GetComponentLogger("onboarding"),
	}
}

// Load возвращает сохранённый мастер клиента или новый.
func (s *Service) Load(ctx context.Context, clientID string) (*Wizard, error) {
	w := NewWizard()
	err := storage.GetJSON(ctx, s.store, clientID, storage.KeyWizardProgress, w)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NewWizard(), nil
	case err != nil:
		// битое состояние начинается заново
		s.log.Warn("прогресс онбординга %s не прочитан: %v", clientID, err)
		return NewWizard(), nil
	}
	if !w.Valid() {
		return NewWizard(), nil
	}
	normalize(&w.Selections)
	return w, nil
}

func normalize(p *Preferences) {
	for _, l := range []*[]string{&p.Purpose, &p.Travel, &p.Entertainment} {
		if *l == nil {
			*l = []string{}
		}
	}
}

// Update загружает мастер, применяет fn и сохраняет результат.
func (s *Service) Update(ctx context.Context, clientID string, fn func(*Wizard) error) (*Wizard, error) {
	w, err := s.Load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return w, err
	}
	if err := storage.SetJSON(ctx, s.store, clientID, storage.KeyWizardProgress, w); err != nil {
		return nil, fmt.Errorf("save wizard: %w", err)
	}
	return w, nil
}

// Toggle переключает вариант на текущем шаге.
func (s *Service) Toggle(ctx context.Context, clientID, option string) (*Wizard, error) {
	return s.Update(ctx, clientID, func(w *Wizard) error { return w.Toggle(option) })
}

// Next переходит к следующему шагу.
func (s *Service) Next(ctx context.Context, clientID string) (*Wizard, error) {
	return s.Update(ctx, clientID, (*Wizard).Next)
}

// Back возвращается на шаг назад.
func (s *Service) Back(ctx context.Context, clientID string) (*Wizard, error) {
	return s.Update(ctx, clientID, (*Wizard).Back)
}

// Complete сохраняет выбор под ключом userPreferences (целиком), ставит cookie
// onboarding_completed=true на год и удаляет прогресс мастера.
func (s *Service) Complete(ctx context.Context, rw http.ResponseWriter, clientID string) (Preferences, error) {
	w, err := s.Load(ctx, clientID)
	if err != nil {
		return Preferences{}, err
	}
	prefs, err := w.Complete()
	if err != nil {
		return Preferences{}, err
	}

	if err := storage.SetJSON(ctx, s.store, clientID, storage.KeyPreferences, prefs); err != nil {
		return Preferences{}, fmt.Errorf("save preferences: %w", err)
	}
	http.SetCookie(rw, s.cookies.New(session.OnboardingCookie, "true", session.OnboardingMaxAge))
	if err := s.store.Delete(ctx, clientID, storage.KeyWizardProgress); err != nil {
		s.log.Warn("прогресс онбординга %s не удалён: %v", clientID, err)
	}

	s.log.Info("онбординг завершён: %s", clientID)
	s.publish(ctx, clientID, prefs)
	return prefs, nil
}

// Preferences возвращает сохранённый выбор клиента.
func (s *Service) Preferences(ctx context.Context, clientID string) (Preferences, error) {
	var p Preferences
	if err := storage.GetJSON(ctx, s.store, clientID, storage.KeyPreferences, &p); err != nil {
		return Preferences{}, err
	}
	normalize(&p)
	return p, nil
}

func (s *Service) publish(ctx context.Context, clientID string, prefs Preferences) {
	if s.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope("onboarding", eventbus.EventOnboardingCompleted, prefs)
	if err != nil {
		return
	}
	ev.Metadata = map[string]string{"client_id": clientID}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("событие %s не опубликовано: %v", ev.EventType, err)
	}
}
