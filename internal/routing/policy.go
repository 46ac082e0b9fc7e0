package routing

import (
	"github.com/annel0/bookit/internal/auth"
)

// Action — итог оценки запроса.
type Action int

const (
	ActionAllow Action = iota
	ActionRedirect
)

func (a Action) String() string {
	if a == ActionRedirect {
		return "redirect"
	}
	return "allow"
}

// Decision — решение политики: пропустить или перенаправить на Location.
type Decision struct {
	Action   Action
	Location string
}

// Allow пропускает запрос.
func Allow() Decision { return Decision{Action: ActionAllow} }

// RedirectTo перенаправляет запрос.
func RedirectTo(location string) Decision {
	return Decision{Action: ActionRedirect, Location: location}
}

// IsRedirect сообщает, требует ли решение перенаправления.
func (d Decision) IsRedirect() bool { return d.Action == ActionRedirect }

func (d Decision) String() string {
	if d.IsRedirect() {
		return "REDIRECT(" + d.Location + ")"
	}
	return "ALLOW"
}

// Request — входные данные политики. Identity == nil означает
// отсутствующую или нечитаемую cookie.
type Request struct {
	Path                string
	Identity            *auth.Identity
	OnboardingCompleted bool
}

// Evaluate применяет правила доступа; срабатывает первое совпавшее.
// Функция чистая: одинаковые входы дают одинаковое решение.
func Evaluate(req Request) Decision {
	p := req.Path
	id := req.Identity
	public := IsPublic(p)

	// Лендинг и маркетинговая страница открыты всегда
	if p == OnboardingPath || p == RootPath {
		return Allow()
	}

	if id == nil && !public {
		return RedirectTo(LoginPath)
	}

	if id != nil && !req.OnboardingCompleted && p != UserOnboardingPath && !public {
		return RedirectTo(UserOnboardingPath)
	}

	if id != nil && req.OnboardingCompleted && p == UserOnboardingPath {
		return RedirectTo(DashboardPath)
	}

	if id != nil && (p == LoginPath || p == SignupPath) {
		return RedirectTo(homeFor(id))
	}

	if Classify(p) == ClassAdminProtected {
		if id == nil {
			return RedirectTo(LoginPath)
		}
		if !id.IsAdmin() {
			return RedirectTo(DashboardPath)
		}
	}

	return Allow()
}

// homeFor — стартовая страница пользователя по роли.
func homeFor(id *auth.Identity) string {
	if id.IsAdmin() {
		return AdminDashboardPath
	}
	return DashboardPath
}

// Home — экспортированный вариант для обработчиков логина.
func Home(id auth.Identity) string {
	return homeFor(&id)
}
