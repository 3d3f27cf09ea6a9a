package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/credential"
	"go.uber.org/zap"
)

// SessionStarter mints a session token. *authbridge.Engine implements it.
type SessionStarter interface {
	StartSession(ctx context.Context, data authbridge.SessionData) (string, error)
}

// BridgeObserver is told the outcome of every bridged request.
// *authbridge.Engine implements it.
type BridgeObserver interface {
	ObserveBridge(ctx context.Context, outcome authbridge.BridgeOutcome, id credential.Identity, err error)
}

type bridgeOptions struct {
	logger     *zap.Logger
	onError    func(*http.Request, error)
	observer   BridgeObserver
	failClosed bool
	header     string
}

// BridgeOption configures Bridge.
type BridgeOption func(*bridgeOptions)

// WithLogger sets the logger used by the default error handler.
func WithLogger(logger *zap.Logger) BridgeOption {
	return func(o *bridgeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithErrorHandler replaces the default error handler, which logs at error
// level. It is called once per failed mint, before the request continues.
func WithErrorHandler(fn func(*http.Request, error)) BridgeOption {
	return func(o *bridgeOptions) {
		o.onError = fn
	}
}

// WithObserver reports every outcome to observer.
func WithObserver(observer BridgeObserver) BridgeOption {
	return func(o *bridgeOptions) {
		o.observer = observer
	}
}

// WithFailClosed answers 503 when a matched credential cannot be exchanged
// for a session, instead of continuing with the header unchanged.
func WithFailClosed() BridgeOption {
	return func(o *bridgeOptions) {
		o.failClosed = true
	}
}

// WithHeader bridges a header other than Authorization.
func WithHeader(name string) BridgeOption {
	return func(o *bridgeOptions) {
		if name != "" {
			o.header = name
		}
	}
}

// Bridge returns middleware that exchanges a recognised credential for a
// session token.
//
// When verifier matches the Authorization header, Bridge mints a session for
// the matched identity, overwrites the header with the raw token and calls
// next. Any other request reaches next untouched. If the credential matches
// but minting fails or yields an empty token, the header is left as it was,
// the error goes to the error handler, and the request continues (or gets a
// 503 with WithFailClosed). next is called at most once per request.
func Bridge(verifier credential.Verifier, starter SessionStarter, opts ...BridgeOption) func(http.Handler) http.Handler {
	if verifier == nil {
		panic("middleware: Bridge requires a verifier")
	}

	o := bridgeOptions{
		logger: zap.NewNop(),
		header: "Authorization",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.onError == nil {
		logger := o.logger.Named("bridge")
		o.onError = func(r *http.Request, err error) {
			logger.Error("auth bridge could not mint a session",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, ok, err := verifier.Verify(ctx, r.Header.Get(o.header))
			if err != nil {
				o.fail(w, r, next, id, fmt.Errorf("verify credential: %w", err))
				return
			}
			if !ok {
				o.observe(ctx, authbridge.BridgePassthrough, id, nil)
				next.ServeHTTP(w, r)
				return
			}

			token, err := startSession(ctx, starter, id)
			if err != nil {
				o.fail(w, r, next, id, err)
				return
			}

			r.Header.Set(o.header, token)
			o.observe(ctx, authbridge.BridgeMatched, id, nil)
			next.ServeHTTP(w, r)
		})
	}
}

func startSession(ctx context.Context, starter SessionStarter, id credential.Identity) (string, error) {
	if starter == nil {
		return "", authbridge.ErrSessionStrategyUnavailable
	}
	token, err := starter.StartSession(ctx, authbridge.SessionData{
		ListKey: id.ListKey,
		ItemID:  id.ItemID,
	})
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("%w: empty token", authbridge.ErrSessionCreationFailed)
	}
	return token, nil
}

func (o *bridgeOptions) fail(w http.ResponseWriter, r *http.Request, next http.Handler, id credential.Identity, err error) {
	o.observe(r.Context(), authbridge.BridgeFailed, id, err)
	o.onError(r, err)

	if o.failClosed {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	next.ServeHTTP(w, r)
}

func (o *bridgeOptions) observe(ctx context.Context, outcome authbridge.BridgeOutcome, id credential.Identity, err error) {
	if o.observer != nil {
		o.observer.ObserveBridge(ctx, outcome, id, err)
	}
}
