package session

import (
	"net/http"
	"strings"
	"time"
)

// Cookies describes the session cookie written to browsers.
type Cookies struct {
	Name     string
	Path     string
	MaxAge   time.Duration
	Secure   bool
	SameSite http.SameSite
}

// Set writes token as the session cookie.
func (c Cookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     c.path(),
		MaxAge:   int(c.MaxAge.Seconds()),
		Expires:  time.Now().Add(c.MaxAge),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// Clear expires the session cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     c.path(),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

func (c Cookies) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// TokenFromRequest returns the session token of r: the Authorization
// header with or without a "Bearer " prefix, otherwise the cookie named
// cookieName. The header wins so a token written by the auth bridge is
// never shadowed by a stale cookie. It returns "" when neither carries a
// token.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if token := TokenFromHeader(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

// TokenFromHeader strips an optional "Bearer " scheme from an Authorization
// header value. The raw form is what the auth bridge writes.
func TokenFromHeader(value string) string {
	value = strings.TrimSpace(value)
	const bearer = "Bearer "
	if len(value) >= len(bearer) && strings.EqualFold(value[:len(bearer)], bearer) {
		return strings.TrimSpace(value[len(bearer):])
	}
	return value
}
