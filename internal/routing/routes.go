package routing

import (
	"path"
	"strings"
)

// Пути, на которые ссылается политика доступа.
const (
	RootPath           = "/"
	LoginPath          = "/login"
	SignupPath         = "/signup"
	ForgotPasswordPath = "/forgot-password"
	OnboardingPath     = "/onboarding"
	UserOnboardingPath = "/user-onboarding"
	DashboardPath      = "/dashboard"
	AdminPrefix        = "/admin"
	AdminDashboardPath = "/admin/dashboard"
)

// Class — статическая классификация пути.
type Class int

const (
	ClassPublic Class = iota
	ClassOnboardingOnly
	ClassUserProtected
	ClassAdminProtected
)

func (c Class) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassOnboardingOnly:
		return "onboarding-only"
	case ClassUserProtected:
		return "user-protected"
	case ClassAdminProtected:
		return "admin-protected"
	default:
		return "unknown"
	}
}

var publicPaths = map[string]struct{}{
	RootPath:           {},
	LoginPath:          {},
	SignupPath:         {},
	ForgotPasswordPath: {},
	OnboardingPath:     {},
}

// IsPublic сообщает, открыт ли путь без входа.
func IsPublic(p string) bool {
	_, ok := publicPaths[p]
	return ok
}

// Classify относит нормализованный путь ровно к одному классу.
func Classify(p string) Class {
	switch {
	case IsPublic(p):
		return ClassPublic
	case p == UserOnboardingPath:
		return ClassOnboardingOnly
	case strings.HasPrefix(p, AdminPrefix):
		return ClassAdminProtected
	default:
		return ClassUserProtected
	}
}

// Normalize приводит путь запроса к виду, который ожидает политика:
// ведущий слэш, без "." и "..", без завершающего слэша.
func Normalize(raw string) string {
	if raw == "" {
		return RootPath
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return path.Clean(raw)
}

// Matcher — набор путей, на которых работает guard.
// Всё, что не совпало (API, статика), проходит мимо политики.
type Matcher struct {
	exact    map[string]struct{}
	prefixes []string
}

// DefaultMatcher повторяет список страниц сайта.
func DefaultMatcher() *Matcher {
	return NewMatcher(
		[]string{RootPath, LoginPath, SignupPath, OnboardingPath, UserOnboardingPath, ForgotPasswordPath},
		[]string{DashboardPath, AdminPrefix},
	)
}

// NewMatcher: exact — точные пути; trees — корни поддеревьев ("/dashboard"
// совпадает с "/dashboard" и "/dashboard/...", но не с "/dashboards").
func NewMatcher(exact, trees []string) *Matcher {
	m := &Matcher{exact: make(map[string]struct{}, len(exact))}
	for _, p := range exact {
		m.exact[Normalize(p)] = struct{}{}
	}
	for _, p := range trees {
		m.prefixes = append(m.prefixes, Normalize(p))
	}
	return m
}

// Matches проверяет нормализованный путь.
func (m *Matcher) Matches(p string) bool {
	if _, ok := m.exact[p]; ok {
		return true
	}
	for _, root := range m.prefixes {
		if p == root || strings.HasPrefix(p, root+"/") {
			return true
		}
	}
	return false
}
