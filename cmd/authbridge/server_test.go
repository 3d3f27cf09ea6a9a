package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/jwt"
	"github.com/MrEthical07/authbridge/repository"
	"github.com/MrEthical07/authbridge/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingStrategy struct{}

func (failingStrategy) Start(context.Context, session.Data) (string, error) {
	return "", errors.New("store offline")
}
func (failingStrategy) Get(context.Context, string) (*session.Session, error) {
	return nil, session.ErrTokenInvalid
}
func (failingStrategy) End(context.Context, string) error { return nil }

func testEngineConfig() authbridge.Config {
	cfg := authbridge.DefaultConfig()
	cfg.Password.Cost = 4
	return cfg
}

func newTestServer(t *testing.T, cfg authbridge.Config, strategy session.Strategy) (*Server, *authbridge.Engine) {
	t.Helper()
	b := authbridge.New().WithConfig(cfg).WithItemStore(repository.NewMemory())
	if strategy != nil {
		b = b.WithStrategy(strategy)
	}
	engine, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	s := NewServer(zap.NewNop(), engine)
	require.NoError(t, s.RegisterRoutes())
	return s, engine
}

func do(s *Server, method, path string, setup func(*http.Request)) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, nil)
	if setup != nil {
		setup(r)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, r)
	return rec
}

func withBridgeSecret(r *http.Request) {
	r.Header.Set("Authorization", authbridge.DefaultBridgeSecret)
}

func TestSessionRouteThroughBridge(t *testing.T) {
	s, engine := newTestServer(t, testEngineConfig(), nil)

	rec := do(s, http.MethodGet, "/api/session", withBridgeSecret)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sess authbridge.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, authbridge.DefaultListKey, sess.ListKey)
	assert.Equal(t, authbridge.DefaultBridgeItemID, sess.ItemID)
	assert.False(t, sess.Admin)

	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/session", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/session", func(r *http.Request) {
		r.Header.Set("Authorization", "not-the-secret")
	}).Code)

	snap := engine.MetricsSnapshot()
	assert.Equal(t, uint64(1), snap.Counters[authbridge.MetricBridgeMatched])
	assert.Equal(t, uint64(2), snap.Counters[authbridge.MetricBridgePassthrough])
}

func TestAdminRoute(t *testing.T) {
	s, engine := newTestServer(t, testEngineConfig(), nil)

	// The bridge item does not exist, so it is not an admin.
	assert.Equal(t, http.StatusForbidden, do(s, http.MethodGet, "/admin", withBridgeSecret).Code)

	res, err := engine.CreateInitialItem(context.Background(), authbridge.InitialItemInput{
		Name: "Ada", Email: "ada@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	rec := do(s, http.MethodGet, "/admin", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: authbridge.DefaultCookieName, Value: res.Token})
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), res.Item.ID)
}

func TestBridgeFailureIsReportedAndRequestContinues(t *testing.T) {
	s, engine := newTestServer(t, testEngineConfig(), failingStrategy{})

	var reported int32
	s.ReportError = func(err error) {
		atomic.AddInt32(&reported, 1)
		assert.ErrorIs(t, err, authbridge.ErrSessionCreationFailed)
	}

	// The header is left as is and fails session lookup downstream.
	rec := do(s, http.MethodGet, "/api/session", withBridgeSecret)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&reported))
	assert.Equal(t, uint64(1), engine.MetricsSnapshot().Counters[authbridge.MetricBridgeFailure])
}

func TestBridgeFailClosed(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Bridge.FailClosed = true
	s, _ := newTestServer(t, cfg, failingStrategy{})

	rec := do(s, http.MethodGet, "/api/session", withBridgeSecret)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBridgeDisabled(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Bridge.Enabled = false
	s, _ := newTestServer(t, cfg, nil)

	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/session", withBridgeSecret).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, testEngineConfig(), nil)

	rec := do(s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"itemStore":"ok","sessionStore":"ok"}`, rec.Body.String())

	do(s, http.MethodGet, "/api/session", withBridgeSecret)

	rec = do(s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "authbridge_bridge_matched_total 1")
	assert.Contains(t, rec.Body.String(), "authbridge_item_store_up 1")
}

func TestGraphQLRouteSeesBridgeSession(t *testing.T) {
	s, engine := newTestServer(t, testEngineConfig(), nil)

	body := `{"query":"{ authenticatedItem { id } }"}`
	r := httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	withBridgeSecret(r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"authenticatedItem":null}}`, rec.Body.String())
	assert.Equal(t, uint64(1), engine.MetricsSnapshot().Counters[authbridge.MetricSessionValidated])
}

func TestBridgeTokenWinsOverSessionCookie(t *testing.T) {
	s, engine := newTestServer(t, testEngineConfig(), nil)

	res, err := engine.CreateInitialItem(context.Background(), authbridge.InitialItemInput{
		Name: "Ada", Email: "ada@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	cookies := map[string]string{
		"stale cookie":      "expired-or-garbage",
		"other item cookie": res.Token,
	}
	for name, value := range cookies {
		t.Run(name, func(t *testing.T) {
			rec := do(s, http.MethodGet, "/api/session", func(r *http.Request) {
				withBridgeSecret(r)
				r.AddCookie(&http.Cookie{Name: authbridge.DefaultCookieName, Value: value})
			})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var sess authbridge.Session
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
			assert.Equal(t, authbridge.DefaultBridgeItemID, sess.ItemID)
		})
	}

	// Without the bridge header the cookie still signs the request in.
	rec := do(s, http.MethodGet, "/api/session", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: authbridge.DefaultCookieName, Value: res.Token})
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), res.Item.ID)
}

func TestBridgeAcceptsExternalBearerToken(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Bridge.JWTSecret = "idp-signing-secret-0123456789abcdef"
	s, _ := newTestServer(t, cfg, nil)

	idp, err := jwt.NewManager(jwt.Config{
		TTL:           time.Minute,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(cfg.Bridge.JWTSecret),
	})
	require.NoError(t, err)
	claims := jwt.SessionClaims{}
	claims.Subject = "item-from-idp"
	token, err := idp.Issue(claims)
	require.NoError(t, err)

	rec := do(s, http.MethodGet, "/api/session", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sess authbridge.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, authbridge.DefaultListKey, sess.ListKey)
	assert.Equal(t, "item-from-idp", sess.ItemID)
}
