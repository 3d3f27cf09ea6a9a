package authbridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/authbridge/credential"
	"github.com/MrEthical07/authbridge/internal/audit"
	"github.com/MrEthical07/authbridge/internal/rate"
	"github.com/MrEthical07/authbridge/jwt"
	"github.com/MrEthical07/authbridge/password"
	"github.com/MrEthical07/authbridge/repository"
	"github.com/MrEthical07/authbridge/session"
	"go.uber.org/zap"
)

// dummyHash is compared against when an identity is unknown, so unknown and
// wrong-password sign-ins cost the same.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3SuzZV6Bq9NVMhIXB4yGbFa"

// Engine mints and resolves sessions. Build it with New().Build().
type Engine struct {
	config       Config
	strategy     session.Strategy
	sessionStore *session.Store
	items        repository.ItemStore
	hasher       *password.Bcrypt
	tokens       *jwt.Manager
	limiter      *rate.Limiter
	audit        *audit.Dispatcher
	metrics      *Metrics
	logger       *zap.Logger
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) Logger() *zap.Logger {
	if e == nil || e.logger == nil {
		return zap.NewNop()
	}
	return e.logger
}

// Cookies returns the session cookie settings.
func (e *Engine) Cookies() session.Cookies {
	return session.Cookies{
		Name:     e.config.Session.CookieName,
		Path:     "/",
		MaxAge:   e.config.Session.MaxAge,
		Secure:   e.config.secureCookies(),
		SameSite: e.config.Session.SameSite,
	}
}

// StartSession mints a session token for data. For items of the auth list
// Admin is taken from the item store when one is configured. An unknown
// item fails only with Session.RequireItem set.
func (e *Engine) StartSession(ctx context.Context, data SessionData) (string, error) {
	if e == nil || e.strategy == nil {
		return "", ErrSessionStrategyUnavailable
	}
	start := time.Now()

	token, err := e.startSession(ctx, data)
	if err != nil {
		e.metrics.Inc(MetricSessionStartFailure)
		e.emitAudit(ctx, AuditSessionStartFailed, false, data, "", err, nil)
		return "", err
	}

	e.metrics.Inc(MetricSessionStarted)
	e.metrics.Observe(MetricSessionStartLatency, time.Since(start))
	e.emitAudit(ctx, AuditSessionStarted, true, data, "", nil, nil)
	return token, nil
}

func (e *Engine) startSession(ctx context.Context, data SessionData) (string, error) {
	if strings.TrimSpace(data.ListKey) == "" || strings.TrimSpace(data.ItemID) == "" {
		return "", ErrInvalidSessionData
	}

	if e.items != nil && data.ListKey == e.config.Auth.ListKey {
		item, err := e.items.Get(ctx, data.ItemID)
		switch {
		case err == nil:
			data.Admin = item.IsAdmin
		case errors.Is(err, repository.ErrNotFound):
			if e.config.Session.RequireItem {
				return "", ErrItemNotFound
			}
			data.Admin = false
		default:
			if e.config.Session.RequireItem {
				return "", fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
			}
			e.logger.Warn("item lookup failed; starting session without it",
				zap.String("list_key", data.ListKey),
				zap.String("item_id", data.ItemID),
				zap.Error(err),
			)
			data.Admin = false
		}
	}

	token, err := e.strategy.Start(ctx, data)
	if err != nil {
		if errors.Is(err, session.ErrRedisUnavailable) {
			return "", fmt.Errorf("%w: %v", ErrSessionStrategyUnavailable, err)
		}
		return "", fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrSessionCreationFailed)
	}
	return token, nil
}

// GetSession resolves token. For items of the auth list Admin reflects the
// item store at lookup time, not at mint time.
func (e *Engine) GetSession(ctx context.Context, token string) (*Session, error) {
	if e == nil || e.strategy == nil {
		return nil, ErrSessionStrategyUnavailable
	}
	if token == "" {
		e.metrics.Inc(MetricSessionRejected)
		return nil, ErrUnauthorized
	}

	sess, err := e.strategy.Get(ctx, token)
	if err != nil {
		e.metrics.Inc(MetricSessionRejected)
		return nil, mapSessionError(err)
	}
	if err := e.reloadItem(ctx, sess); err != nil {
		e.metrics.Inc(MetricSessionRejected)
		return nil, err
	}

	e.metrics.Inc(MetricSessionValidated)
	return sess, nil
}

// reloadItem refreshes Admin from the item store so demoted or deleted
// items lose access before their token expires. A missing item rejects the
// session only with Session.RequireItem set.
func (e *Engine) reloadItem(ctx context.Context, sess *Session) error {
	if e.items == nil || sess.ListKey != e.config.Auth.ListKey {
		return nil
	}
	item, err := e.items.Get(ctx, sess.ItemID)
	switch {
	case err == nil:
		sess.Admin = item.IsAdmin
		return nil
	case errors.Is(err, repository.ErrNotFound):
		if e.config.Session.RequireItem {
			return fmt.Errorf("%w: item %s no longer exists", ErrSessionNotFound, sess.ItemID)
		}
		sess.Admin = false
		return nil
	default:
		return fmt.Errorf("%w: item lookup: %v", ErrEngineNotReady, err)
	}
}

// EndSession invalidates the session behind token. Stateless sessions end
// when the client drops the token.
func (e *Engine) EndSession(ctx context.Context, token string) error {
	if e == nil || e.strategy == nil {
		return ErrSessionStrategyUnavailable
	}
	if token == "" {
		return ErrUnauthorized
	}

	var data SessionData
	var sid string
	if sess, err := e.strategy.Get(ctx, token); err == nil {
		data, sid = sess.Data, sess.SessionID
	}

	if err := e.strategy.End(ctx, token); err != nil {
		return mapSessionError(err)
	}

	e.metrics.Inc(MetricSessionEnded)
	e.emitAudit(ctx, AuditSessionEnded, true, data, sid, nil, nil)
	return nil
}

// EndAllSessions ends every session of one item. Only the redis store can
// do this.
func (e *Engine) EndAllSessions(ctx context.Context, listKey, itemID string) (int, error) {
	if e == nil {
		return 0, ErrSessionStrategyUnavailable
	}
	stored, ok := e.strategy.(*session.Stored)
	if !ok {
		return 0, fmt.Errorf("%w: strategy cannot enumerate sessions", ErrSessionStrategyUnavailable)
	}

	n, err := stored.EndAllForItem(ctx, listKey, itemID)
	if err != nil {
		return 0, mapSessionError(err)
	}

	e.emitAudit(ctx, AuditSessionsEndedAll, true, SessionData{ListKey: listKey, ItemID: itemID}, "", nil,
		map[string]string{"count": fmt.Sprint(n)})
	return n, nil
}

// ActiveSessions lists the session ids stored for one item. Like
// EndAllSessions it needs the redis store.
func (e *Engine) ActiveSessions(ctx context.Context, listKey, itemID string) ([]string, error) {
	if e == nil {
		return nil, ErrSessionStrategyUnavailable
	}
	stored, ok := e.strategy.(*session.Stored)
	if !ok {
		return nil, fmt.Errorf("%w: strategy cannot enumerate sessions", ErrSessionStrategyUnavailable)
	}
	ids, err := stored.ActiveSessionIDs(ctx, listKey, itemID)
	if err != nil {
		return nil, mapSessionError(err)
	}
	return ids, nil
}

// AuthenticateWithPassword signs an item in by email and password. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials. With a
// limiter, too many failures for the email or client IP yield
// ErrRateLimited until the window passes.
func (e *Engine) AuthenticateWithPassword(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	if e == nil || e.items == nil {
		return nil, ErrEngineNotReady
	}
	email = repository.NormalizeEmail(email)
	ip := clientIPFromContext(ctx)

	if err := e.checkSignInLimit(ctx, email, ip); err != nil {
		e.metrics.Inc(MetricSignInRateLimited)
		e.emitAudit(ctx, AuditSignIn, false, SessionData{ListKey: e.config.Auth.ListKey}, "", err,
			map[string]string{"email": email})
		return nil, err
	}

	result, err := e.authenticateWithPassword(ctx, email, plaintext)
	if err != nil {
		meta := map[string]string{"email": email}
		if errors.Is(err, ErrInvalidCredentials) {
			if n, ok := e.recordSignInFailure(ctx, email, ip); ok {
				meta["attempts"] = strconv.FormatInt(n, 10)
			}
		}
		e.metrics.Inc(MetricSignInFailure)
		e.emitAudit(ctx, AuditSignIn, false, SessionData{ListKey: e.config.Auth.ListKey}, "", err, meta)
		return nil, err
	}

	if e.limiter != nil {
		if err := e.limiter.Reset(ctx, email); err != nil {
			e.logger.Warn("sign-in limiter reset failed", zap.Error(err))
		}
	}
	e.metrics.Inc(MetricSignInSuccess)
	e.emitAudit(ctx, AuditSignIn, true, SessionData{ListKey: e.config.Auth.ListKey, ItemID: result.Item.ID}, "", nil, nil)
	return result, nil
}

func (e *Engine) authenticateWithPassword(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	item, err := e.items.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = e.hasher.Verify(plaintext, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	ok, err := e.hasher.Verify(plaintext, item.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := e.startSession(ctx, SessionData{
		ListKey: e.config.Auth.ListKey,
		ItemID:  item.ID,
		Admin:   item.IsAdmin,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Item: item}, nil
}

// checkSignInLimit fails open when redis is unreachable.
func (e *Engine) checkSignInLimit(ctx context.Context, email, ip string) error {
	if e.limiter == nil {
		return nil
	}
	err := e.limiter.Check(ctx, email, ip)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrRateLimited
	default:
		e.logger.Warn("sign-in limiter unavailable", zap.Error(err))
		return nil
	}
}

// recordSignInFailure counts a failure and returns the failures recorded for
// email in the current window. ok is false without a working limiter.
func (e *Engine) recordSignInFailure(ctx context.Context, email, ip string) (attempts int64, ok bool) {
	if e.limiter == nil {
		return 0, false
	}
	if err := e.limiter.Fail(ctx, email, ip); err != nil {
		e.logger.Warn("sign-in limiter update failed", zap.Error(err))
		return 0, false
	}
	n, err := e.limiter.Attempts(ctx, email)
	if err != nil {
		return 0, false
	}
	return n, true
}

// InitialItemRequired reports whether the auth list is still empty.
func (e *Engine) InitialItemRequired(ctx context.Context) (bool, error) {
	if e == nil || e.items == nil {
		return false, ErrEngineNotReady
	}
	n, err := e.items.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// CreateInitialItem creates the first item of the auth list as an admin
// and signs it in. It fails with ErrInitialItemExists once any item exists.
func (e *Engine) CreateInitialItem(ctx context.Context, in InitialItemInput) (*AuthResult, error) {
	if e == nil || e.items == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Auth.InitFirstItem {
		return nil, ErrAccessDenied
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidItemInput, err)
	}

	item, err := e.items.CreateFirst(ctx, repository.ItemInput{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotEmpty):
			return nil, ErrInitialItemExists
		case errors.Is(err, repository.ErrDuplicateEmail), errors.Is(err, repository.ErrInvalidInput):
			return nil, fmt.Errorf("%w: %v", ErrInvalidItemInput, err)
		default:
			return nil, err
		}
	}

	data := SessionData{ListKey: e.config.Auth.ListKey, ItemID: item.ID, Admin: true}
	e.metrics.Inc(MetricInitialItemCreated)
	e.emitAudit(ctx, AuditInitialItemCreated, true, data, "", nil, nil)

	token, err := e.StartSession(ctx, data)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Item: item}, nil
}

// AuthenticatedItem loads the item a session belongs to.
func (e *Engine) AuthenticatedItem(ctx context.Context, sess *Session) (*Item, error) {
	if sess == nil {
		return nil, ErrUnauthorized
	}
	if e == nil || e.items == nil {
		return nil, ErrEngineNotReady
	}
	if sess.ListKey != e.config.Auth.ListKey {
		return nil, ErrItemNotFound
	}

	item, err := e.items.Get(ctx, sess.ItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// IsAccessAllowed reports whether sess may use the admin surface.
func (e *Engine) IsAccessAllowed(sess *Session) bool {
	return sess != nil && sess.Admin
}

// BridgeVerifier returns the verifier for the configured bridge identity.
// With Bridge.JWTSecret set, bearer tokens from the external issuer are
// accepted after the shared secret.
func (e *Engine) BridgeVerifier() (credential.Verifier, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	b := e.config.Bridge
	if !b.Enabled {
		return nil, fmt.Errorf("%w: bridge disabled", ErrEngineNotReady)
	}
	static, err := credential.NewStatic(map[string]credential.Identity{
		b.Secret: {ListKey: b.ListKey, ItemID: b.ItemID},
	})
	if err != nil {
		return nil, err
	}
	if b.JWTSecret == "" {
		return static, nil
	}

	issuer, err := jwt.NewManager(jwt.Config{
		TTL:           e.config.Session.MaxAge,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(b.JWTSecret),
		Issuer:        b.JWTIssuer,
		Audience:      b.JWTAudience,
	})
	if err != nil {
		return nil, fmt.Errorf("bridge jwt: %w", err)
	}
	return credential.Chain(static, credential.NewJWTBearer(issuer, b.ListKey)), nil
}

// ObserveBridge records one pass of the auth bridge.
func (e *Engine) ObserveBridge(ctx context.Context, outcome BridgeOutcome, id credential.Identity, err error) {
	if e == nil {
		return
	}
	data := SessionData{ListKey: id.ListKey, ItemID: id.ItemID}

	switch outcome {
	case BridgeMatched:
		e.metrics.Inc(MetricBridgeMatched)
		e.emitAudit(ctx, AuditBridgeMatched, true, data, "", nil, nil)
	case BridgeFailed:
		e.metrics.Inc(MetricBridgeFailure)
		e.emitAudit(ctx, AuditBridgeFailed, false, data, "", err, nil)
	default:
		e.metrics.Inc(MetricBridgePassthrough)
	}
}

// Health pings the item store and the redis session store when configured.
func (e *Engine) Health(ctx context.Context) HealthReport {
	var report HealthReport
	if e == nil {
		report.ItemStore = ErrEngineNotReady
		return report
	}
	if e.items != nil {
		report.ItemStore = e.items.Ping(ctx)
	}
	if e.sessionStore != nil {
		_, report.SessionStore = e.sessionStore.Ping(ctx)
	}
	return report
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// Close flushes pending audit events. It does not close the item store or
// the redis client.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// StatusForError maps engine errors to HTTP status codes without exposing
// their text.
func StatusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInitialItemExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidSessionData), errors.Is(err, ErrInvalidItemInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrItemNotFound):
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func mapSessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrTokenInvalid), errors.Is(err, session.ErrInvalidEncoding):
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case errors.Is(err, session.ErrSessionNotFound):
		return ErrSessionNotFound
	case errors.Is(err, session.ErrRedisUnavailable):
		return fmt.Errorf("%w: %v", ErrSessionStrategyUnavailable, err)
	default:
		return err
	}
}
