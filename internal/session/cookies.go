package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Имена cookie.
const (
	UserCookie       = "user"
	OnboardingCookie = "onboarding_completed"
	ClientIDCookie   = "client_id"
	ThemeCookie      = "theme"
)

// OnboardingMaxAge — срок жизни флага завершённого онбординга (~1 год).
const OnboardingMaxAge = 365 * 24 * time.Hour

// CookieOptions задаёт атрибуты безопасности cookie. Нулевое значение —
// режим совместимости: без Secure/HttpOnly/SameSite, как у исходного клиента.
type CookieOptions struct {
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// New создаёт cookie с path "/" и заданным сроком жизни (0 — сессионная).
func (o CookieOptions) New(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Secure:   o.Secure,
		HttpOnly: o.HTTPOnly,
		SameSite: o.SameSite,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge / time.Second)
		c.Expires = time.Now().Add(maxAge).UTC()
	}
	return c
}

// Expired создаёт cookie, удаляющую name у клиента.
func (o CookieOptions) Expired(name string) *http.Cookie {
	c := o.New(name, "", 0)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0).UTC()
	return c
}

// cookieValue возвращает значение cookie или "".
// net/http отбрасывает значения с кавычками, а клиент пишет cookie user
// сырым JSON, поэтому при промахе пара ищется в заголовке Cookie напрямую.
func cookieValue(r *http.Request, name string) string {
	if c, err := r.Cookie(name); err == nil {
		return c.Value
	}
	return rawCookieValue(r.Header.Values("Cookie"), name)
}

func rawCookieValue(lines []string, name string) string {
	for _, line := range lines {
		for _, part := range strings.Split(line, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
			if ok && k == name {
				return v
			}
		}
	}
	return ""
}

// ClientID возвращает идентификатор клиента из cookie. Если его нет или он
// не похож на UUID, выдаётся новый и сразу ставится в ответ.
func ClientID(w http.ResponseWriter, r *http.Request, opts CookieOptions) string {
	if v := cookieValue(r, ClientIDCookie); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			return v
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, opts.New(ClientIDCookie, id, OnboardingMaxAge))
	// Тот же запрос дальше видит новый id.
	r.AddCookie(&http.Cookie{Name: ClientIDCookie, Value: id})
	return id
}
