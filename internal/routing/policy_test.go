package routing

import (
	"testing"

	"github.com/annel0/bookit/internal/auth"
	"github.com/stretchr/testify/assert"
)

var (
	admin = &auth.Identity{Email: "admin@bookit.com", Role: auth.RoleAdmin, Name: "Admin User"}
	user  = &auth.Identity{Email: "user@bookit.com", Role: auth.RoleUser, Name: "Regular User"}
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name      string
		path      string
		id        *auth.Identity
		onboarded bool
		want      Decision
	}{
		// 1. лендинг и маркетинг открыты всегда
		{"onboarding без входа", "/onboarding", nil, false, Allow()},
		{"корень без входа", "/", nil, false, Allow()},
		{"корень админ", "/", admin, true, Allow()},
		{"onboarding не прошедший онбординг", "/onboarding", user, false, Allow()},

		// 2. без входа — на логин
		{"dashboard без входа", "/dashboard", nil, false, RedirectTo("/login")},
		{"bookings без входа", "/dashboard/bookings", nil, false, RedirectTo("/login")},
		{"user-onboarding без входа", "/user-onboarding", nil, true, RedirectTo("/login")},
		{"admin без входа", "/admin/dashboard", nil, true, RedirectTo("/login")},
		{"login без входа", "/login", nil, false, Allow()},
		{"signup без входа", "/signup", nil, false, Allow()},
		{"forgot-password без входа", "/forgot-password", nil, false, Allow()},

		// 3. вход есть, онбординг не пройден
		{"dashboard до онбординга", "/dashboard", user, false, RedirectTo("/user-onboarding")},
		{"admin до онбординга", "/admin/dashboard", admin, false, RedirectTo("/user-onboarding")},
		{"user-onboarding до онбординга", "/user-onboarding", user, false, Allow()},
		{"forgot-password до онбординга", "/forgot-password", user, false, Allow()},

		// 4. онбординг уже пройден
		{"user-onboarding после онбординга", "/user-onboarding", user, true, RedirectTo("/dashboard")},
		{"user-onboarding админ после онбординга", "/user-onboarding", admin, true, RedirectTo("/dashboard")},

		// 5. вход есть — со страниц входа на домашнюю
		{"login пользователь", "/login", user, true, RedirectTo("/dashboard")},
		{"login админ", "/login", admin, true, RedirectTo("/admin/dashboard")},
		{"signup пользователь до онбординга", "/signup", user, false, RedirectTo("/dashboard")},
		{"signup админ", "/signup", admin, false, RedirectTo("/admin/dashboard")},

		// 6. админка
		{"admin пользователь", "/admin/dashboard", user, true, RedirectTo("/dashboard")},
		{"admin админ", "/admin/dashboard", admin, true, Allow()},
		{"admin users админ", "/admin/users", admin, true, Allow()},
		{"голый префикс", "/administrator", user, true, RedirectTo("/dashboard")},

		// 7. остальное
		{"dashboard пользователь", "/dashboard", user, true, Allow()},
		{"dashboard админ", "/dashboard/settings", admin, true, Allow()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := Request{Path: tc.path, Identity: tc.id, OnboardingCompleted: tc.onboarded}
			got := Evaluate(req)
			assert.Equal(t, tc.want, got)
			// чистая функция: повторный вызов даёт то же решение
			assert.Equal(t, got, Evaluate(req))
		})
	}
}

func TestEvaluate_PublicAlwaysAllowedWithoutIdentity(t *testing.T) {
	for p := range publicPaths {
		for _, onboarded := range []bool{false, true} {
			assert.Equal(t, Allow(), Evaluate(Request{Path: p, OnboardingCompleted: onboarded}), p)
		}
	}
}

func TestEvaluate_ProtectedRequireIdentity(t *testing.T) {
	for _, p := range []string{"/dashboard", "/dashboard/bookings", "/dashboard/favorites", "/user-onboarding", "/admin", "/admin/venues", "/profile"} {
		d := Evaluate(Request{Path: p})
		assert.Equal(t, RedirectTo(LoginPath), d, p)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ClassPublic, Classify("/"))
	assert.Equal(t, ClassPublic, Classify("/forgot-password"))
	assert.Equal(t, ClassOnboardingOnly, Classify("/user-onboarding"))
	assert.Equal(t, ClassUserProtected, Classify("/dashboard/bookings"))
	assert.Equal(t, ClassAdminProtected, Classify("/admin/settings"))
	assert.Equal(t, "admin-protected", ClassAdminProtected.String())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/", Normalize(""))
	assert.Equal(t, "/", Normalize("/"))
	assert.Equal(t, "/dashboard", Normalize("/dashboard/"))
	assert.Equal(t, "/admin/dashboard", Normalize("/dashboard/../admin//dashboard"))
	assert.Equal(t, "/login", Normalize("login"))
}

func TestMatcher(t *testing.T) {
	m := DefaultMatcher()
	for _, p := range []string{"/", "/login", "/signup", "/onboarding", "/user-onboarding", "/forgot-password", "/dashboard", "/dashboard/bookings", "/admin", "/admin/dashboard"} {
		assert.True(t, m.Matches(p), p)
	}
	for _, p := range []string{"/api/auth/login", "/health", "/metrics", "/dashboards", "/static/logo.png"} {
		assert.False(t, m.Matches(p), p)
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "ALLOW", Allow().String())
	assert.Equal(t, "REDIRECT(/login)", RedirectTo("/login").String())
	assert.Equal(t, "redirect", RedirectTo("/login").Action.String())
	assert.Equal(t, "allow", Allow().Action.String())
	assert.Equal(t, "/admin/dashboard", Home(*admin))
	assert.Equal(t, "/dashboard", Home(*user))
}
