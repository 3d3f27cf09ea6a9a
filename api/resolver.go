package api

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/middleware"
	graphql "github.com/graph-gophers/graphql-go"
)

// authFailedMessage is returned for every failed password sign-in.
const authFailedMessage = "Authentication failed."

// Engine is the part of *authbridge.Engine the API uses.
type Engine interface {
	AuthenticatedItem(ctx context.Context, sess *authbridge.Session) (*authbridge.Item, error)
	AuthenticateWithPassword(ctx context.Context, email, password string) (*authbridge.AuthResult, error)
	CreateInitialItem(ctx context.Context, in authbridge.InitialItemInput) (*authbridge.AuthResult, error)
	EndSession(ctx context.Context, token string) error
}

type rootResolver struct {
	engine Engine
}

func (r *rootResolver) AuthenticatedItem(ctx context.Context) (*userResolver, error) {
	sess, ok := middleware.SessionFromContext(ctx)
	if !ok {
		return nil, nil
	}

	item, err := r.engine.AuthenticatedItem(ctx, sess)
	if err != nil {
		if errors.Is(err, authbridge.ErrItemNotFound) {
			return nil, nil
		}
		return nil, publicError(err)
	}
	return &userResolver{item: item}, nil
}

type signInArgs struct {
	Email    string
	Password string
}

func (r *rootResolver) AuthenticateUserWithPassword(ctx context.Context, args signInArgs) (*authResultResolver, error) {
	result, err := r.engine.AuthenticateWithPassword(ctx, args.Email, args.Password)
	if err != nil {
		if errors.Is(err, authbridge.ErrInvalidCredentials) {
			return &authResultResolver{failure: &failureResolver{message: authFailedMessage}}, nil
		}
		return nil, publicError(err)
	}

	cookiesFromContext(ctx).set(result.Token)
	return &authResultResolver{success: &successResolver{result: result}}, nil
}

type createInitialUserArgs struct {
	Data struct {
		Name     string
		Email    string
		Password string
	}
}

func (r *rootResolver) CreateInitialUser(ctx context.Context, args createInitialUserArgs) (*successResolver, error) {
	result, err := r.engine.CreateInitialItem(ctx, authbridge.InitialItemInput{
		Name:     args.Data.Name,
		Email:    args.Data.Email,
		Password: args.Data.Password,
	})
	if err != nil {
		return nil, publicError(err)
	}

	cookiesFromContext(ctx).set(result.Token)
	return &successResolver{result: result}, nil
}

func (r *rootResolver) EndSession(ctx context.Context) (bool, error) {
	if token, ok := middleware.TokenFromContext(ctx); ok {
		if err := r.engine.EndSession(ctx, token); err != nil && !errors.Is(err, authbridge.ErrSessionNotFound) {
			return false, publicError(err)
		}
	}
	cookiesFromContext(ctx).clear()
	return true, nil
}

type userResolver struct {
	item *authbridge.Item
}

func (u *userResolver) ID() graphql.ID    { return graphql.ID(u.item.ID) }
func (u *userResolver) Name() string      { return u.item.Name }
func (u *userResolver) Email() string     { return u.item.Email }
func (u *userResolver) IsAdmin() bool     { return u.item.IsAdmin }
func (u *userResolver) CreatedAt() string { return u.item.CreatedAt.UTC().Format(time.RFC3339) }

type successResolver struct {
	result *authbridge.AuthResult
}

func (s *successResolver) SessionToken() string { return s.result.Token }
func (s *successResolver) Item() *userResolver  { return &userResolver{item: s.result.Item} }

type failureResolver struct {
	message string
}

func (f *failureResolver) Message() string { return f.message }

type authResultResolver struct {
	success *successResolver
	failure *failureResolver
}

func (a *authResultResolver) ToUserAuthenticationWithPasswordSuccess() (*successResolver, bool) {
	return a.success, a.success != nil
}

func (a *authResultResolver) ToUserAuthenticationWithPasswordFailure() (*failureResolver, bool) {
	return a.failure, a.failure != nil
}

// publicError hides internal error text behind the matching sentinel.
func publicError(err error) error {
	for _, sentinel := range []error{
		authbridge.ErrInitialItemExists,
		authbridge.ErrInvalidItemInput,
		authbridge.ErrAccessDenied,
		authbridge.ErrRateLimited,
		authbridge.ErrUnauthorized,
		authbridge.ErrEngineNotReady,
		authbridge.ErrSessionStrategyUnavailable,
		authbridge.ErrSessionCreationFailed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return errors.New("internal error")
}
