package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/session"
)

// SessionResolver resolves a session token. *authbridge.Engine implements
// it.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*authbridge.Session, error)
}

// AccessChecker decides whether a session may pass RequireAdmin.
// *authbridge.Engine implements it.
type AccessChecker interface {
	IsAccessAllowed(sess *authbridge.Session) bool
}

// Guard rejects requests without a valid session with 401 (503 when the
// session backend is down). The token is read from the Authorization
// header, falling back to the cookieName cookie.
func Guard(resolver SessionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token := session.TokenFromRequest(r, cookieName)
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := resolver.GetSession(r.Context(), token)
			if err != nil {
				writeSessionError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess, token)))
		})
	}
}

// Optional resolves the session when one is present and always continues.
func Optional(resolver SessionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver != nil {
				if token := session.TokenFromRequest(r, cookieName); token != "" {
					if sess, err := resolver.GetSession(r.Context(), token); err == nil {
						r = r.WithContext(withSession(r.Context(), sess, token))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin must run after Guard. It answers 403 for sessions checker
// does not allow.
func RequireAdmin(checker AccessChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if checker == nil || !checker.IsAccessAllowed(sess) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	status := authbridge.StatusForError(err)
	if status != http.StatusServiceUnavailable {
		status = http.StatusUnauthorized
	}
	http.Error(w, http.StatusText(status), status)
}
