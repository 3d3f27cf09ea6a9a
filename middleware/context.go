package middleware

import (
	"context"

	"github.com/MrEthical07/authbridge"
)

type sessionContextKey struct{}

type sessionValue struct {
	session *authbridge.Session
	token   string
}

func withSession(ctx context.Context, sess *authbridge.Session, token string) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sessionValue{session: sess, token: token})
}

// SessionFromContext returns the session put in ctx by Guard or Optional.
func SessionFromContext(ctx context.Context) (*authbridge.Session, bool) {
	v, ok := ctx.Value(sessionContextKey{}).(sessionValue)
	if !ok || v.session == nil {
		return nil, false
	}
	return v.session, true
}

// TokenFromContext returns the token the session was resolved from.
func TokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionContextKey{}).(sessionValue)
	if !ok || v.token == "" {
		return "", false
	}
	return v.token, true
}
