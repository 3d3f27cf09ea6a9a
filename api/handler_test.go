package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/middleware"
	"github.com/MrEthical07/authbridge/repository"
	"github.com/MrEthical07/authbridge/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) AuthenticatedItem(ctx context.Context, sess *authbridge.Session) (*authbridge.Item, error) {
	args := m.Called(ctx, sess)
	item, _ := args.Get(0).(*authbridge.Item)
	return item, args.Error(1)
}

func (m *mockEngine) AuthenticateWithPassword(ctx context.Context, email, password string) (*authbridge.AuthResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*authbridge.AuthResult)
	return res, args.Error(1)
}

func (m *mockEngine) CreateInitialItem(ctx context.Context, in authbridge.InitialItemInput) (*authbridge.AuthResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*authbridge.AuthResult)
	return res, args.Error(1)
}

func (m *mockEngine) EndSession(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

var testCookies = session.Cookies{Name: "keystonejs-session", MaxAge: time.Hour}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func post(t *testing.T, h http.Handler, query string, vars map[string]interface{}, setup func(*http.Request)) (*httptest.ResponseRecorder, gqlResponse) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/graphql", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if setup != nil {
		setup(r)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	var resp gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

const signInMutation = `mutation($email: String!, $password: String!) {
	authenticateUserWithPassword(email: $email, password: $password) {
		__typename
		... on UserAuthenticationWithPasswordSuccess { sessionToken item { id email isAdmin } }
		... on UserAuthenticationWithPasswordFailure { message }
	}
}`

func TestSignInFailureIsAUnionMember(t *testing.T) {
	engine := &mockEngine{}
	engine.On("AuthenticateWithPassword", mock.Anything, "ada@example.com", "nope").
		Return(nil, authbridge.ErrInvalidCredentials)

	h, err := NewHandler(engine, testCookies, nil)
	require.NoError(t, err)

	rec, resp := post(t, h, signInMutation, map[string]interface{}{"email": "ada@example.com", "password": "nope"}, nil)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"__typename":"UserAuthenticationWithPasswordFailure","message":"Authentication failed."}`,
		string(resp.Data["authenticateUserWithPassword"]))
	assert.Empty(t, rec.Result().Cookies())
	engine.AssertExpectations(t)
}

func TestSignInSuccessSetsCookie(t *testing.T) {
	engine := &mockEngine{}
	item := &authbridge.Item{ID: "item-1", Email: "ada@example.com", IsAdmin: true}
	engine.On("AuthenticateWithPassword", mock.Anything, "ada@example.com", "correct horse").
		Return(&authbridge.AuthResult{Token: "tok-1", Item: item}, nil)

	h, err := NewHandler(engine, testCookies, nil)
	require.NoError(t, err)

	rec, resp := post(t, h, signInMutation, map[string]interface{}{"email": "ada@example.com", "password": "correct horse"}, nil)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"__typename":"UserAuthenticationWithPasswordSuccess","sessionToken":"tok-1","item":{"id":"item-1","email":"ada@example.com","isAdmin":true}}`,
		string(resp.Data["authenticateUserWithPassword"]))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "keystonejs-session", cookies[0].Name)
	assert.Equal(t, "tok-1", cookies[0].Value)
}

func TestInternalErrorsAreHidden(t *testing.T) {
	engine := &mockEngine{}
	engine.On("AuthenticateWithPassword", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("pq: connection refused to 10.0.0.3"))

	h, err := NewHandler(engine, testCookies, nil)
	require.NoError(t, err)

	_, resp := post(t, h, signInMutation, map[string]interface{}{"email": "a@b.c", "password": "x"}, nil)

	require.Len(t, resp.Errors, 1)
	assert.NotContains(t, resp.Errors[0].Message, "10.0.0.3")
}

func TestAuthenticatedItemAnonymous(t *testing.T) {
	h, err := NewHandler(&mockEngine{}, testCookies, nil)
	require.NoError(t, err)

	_, resp := post(t, h, `{ authenticatedItem { id } }`, nil, nil)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `null`, string(resp.Data["authenticatedItem"]))
}

func TestMethodNotAllowed(t *testing.T) {
	h, err := NewHandler(&mockEngine{}, testCookies, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/graphql", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// newStack wires the real engine, the bridge and the handler the way the
// server does.
func newStack(t *testing.T) (*authbridge.Engine, http.Handler) {
	t.Helper()
	cfg := authbridge.DefaultConfig()
	cfg.Password.Cost = 4
	engine, err := authbridge.New().WithConfig(cfg).WithItemStore(repository.NewMemory()).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	h, err := NewHandler(engine, engine.Cookies(), nil)
	require.NoError(t, err)

	verifier, err := engine.BridgeVerifier()
	require.NoError(t, err)

	cookieName := engine.Config().Session.CookieName
	stack := middleware.Bridge(verifier, engine, middleware.WithObserver(engine))(middleware.Optional(engine, cookieName)(h))
	return engine, stack
}

func TestInitialUserFlowEndToEnd(t *testing.T) {
	_, h := newStack(t)

	create := `mutation($data: CreateInitialUserInput!) {
		createInitialUser(data: $data) { sessionToken item { id name isAdmin } }
	}`
	rec, resp := post(t, h, create, map[string]interface{}{
		"data": map[string]interface{}{"name": "Ada", "email": "ada@example.com", "password": "correct horse"},
	}, nil)
	require.Empty(t, resp.Errors)

	var created struct {
		SessionToken string `json:"sessionToken"`
		Item         struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			IsAdmin bool   `json:"isAdmin"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(resp.Data["createInitialUser"], &created))
	assert.True(t, created.Item.IsAdmin)
	require.Len(t, rec.Result().Cookies(), 1)
	cookie := rec.Result().Cookies()[0]

	// Second attempt fails.
	_, resp = post(t, h, create, map[string]interface{}{
		"data": map[string]interface{}{"name": "Bob", "email": "bob@example.com", "password": "another pass"},
	}, nil)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0].Message, authbridge.ErrInitialItemExists.Error())

	// The cookie resolves to the created item.
	_, resp = post(t, h, `{ authenticatedItem { id name } }`, nil, func(r *http.Request) { r.AddCookie(cookie) })
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"id":"`+created.Item.ID+`","name":"Ada"}`, string(resp.Data["authenticatedItem"]))

	// endSession clears the cookie.
	rec, resp = post(t, h, `mutation { endSession }`, nil, func(r *http.Request) { r.AddCookie(cookie) })
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `true`, string(resp.Data["endSession"]))
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Less(t, rec.Result().Cookies()[0].MaxAge, 0)
}

func TestBridgedRequestSeesBridgeSession(t *testing.T) {
	engine, h := newStack(t)

	// No item exists for the bridge identity, so authenticatedItem is null,
	// but the resolver ran with a session in context.
	_, resp := post(t, h, `{ authenticatedItem { id } }`, nil, func(r *http.Request) {
		r.Header.Set("Authorization", authbridge.DefaultBridgeSecret)
	})
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `null`, string(resp.Data["authenticatedItem"]))

	snap := engine.MetricsSnapshot()
	assert.Equal(t, uint64(1), snap.Counters[authbridge.MetricBridgeMatched])
	assert.Equal(t, uint64(0), snap.Counters[authbridge.MetricBridgePassthrough])
	assert.Equal(t, uint64(1), snap.Counters[authbridge.MetricSessionValidated])
}
