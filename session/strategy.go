package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authbridge/jwt"
	"github.com/google/uuid"
)

// ErrTokenInvalid is returned when a token fails signature, expiry or shape
// checks.
var ErrTokenInvalid = errors.New("invalid session token")

// Strategy starts, resolves and ends sessions. Implementations are safe for
// concurrent use.
type Strategy interface {
	// Start mints a token for data.
	Start(ctx context.Context, data Data) (string, error)
	// Get resolves a token to its session.
	Get(ctx context.Context, token string) (*Session, error)
	// End invalidates the session behind token, where the strategy can.
	End(ctx context.Context, token string) error
}

// Stateless carries the whole session inside a signed token.
type Stateless struct {
	tokens *jwt.Manager
}

var _ Strategy = (*Stateless)(nil)

// NewStateless returns a strategy that signs session data with tokens. The
// session lifetime is the manager's TTL.
func NewStateless(tokens *jwt.Manager) *Stateless {
	return &Stateless{tokens: tokens}
}

func (s *Stateless) Start(_ context.Context, data Data) (string, error) {
	return s.tokens.Issue(jwt.SessionClaims{
		ListKey: data.ListKey,
		ItemID:  data.ItemID,
		Admin:   data.Admin,
	})
}

func (s *Stateless) Get(_ context.Context, token string) (*Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.ListKey == "" || claims.ItemID == "" {
		return nil, ErrTokenInvalid
	}
	return sessionFromClaims(claims), nil
}

// End is a no-op: a stateless token stays valid until it expires, so ending
// the session is the client dropping its cookie.
func (s *Stateless) End(context.Context, string) error {
	return nil
}

// Stored keeps sessions in Redis and issues tokens that carry only the
// session id.
type Stored struct {
	store  *Store
	tokens *jwt.Manager
	now    func() time.Time
}

var _ Strategy = (*Stored)(nil)

// NewStored returns a strategy backed by store. Sessions live for the
// manager's TTL.
func NewStored(store *Store, tokens *jwt.Manager) *Stored {
	return &Stored{store: store, tokens: tokens, now: time.Now}
}

func (s *Stored) Start(ctx context.Context, data Data) (string, error) {
	now := s.now()
	ttl := s.tokens.TTL()
	sess := &Session{
		Data:      data,
		SessionID: uuid.NewString(),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	if err := s.store.Save(ctx, sess, ttl); err != nil {
		return "", err
	}
	return s.tokens.Issue(jwt.SessionClaims{SID: sess.SessionID})
}

func (s *Stored) Get(ctx context.Context, token string) (*Session, error) {
	sid, err := s.sessionID(token)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, sid)
}

func (s *Stored) End(ctx context.Context, token string) error {
	sid, err := s.sessionID(token)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, sid)
}

// EndAllForItem ends every stored session of one item.
func (s *Stored) EndAllForItem(ctx context.Context, listKey, itemID string) (int, error) {
	return s.store.DeleteAllForItem(ctx, listKey, itemID)
}

// ActiveSessionIDs lists the stored session ids of one item.
func (s *Stored) ActiveSessionIDs(ctx context.Context, listKey, itemID string) ([]string, error) {
	return s.store.ActiveSessionIDs(ctx, listKey, itemID)
}

func (s *Stored) sessionID(token string) (string, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.SID == "" {
		return "", ErrTokenInvalid
	}
	return claims.SID, nil
}

func sessionFromClaims(claims *jwt.SessionClaims) *Session {
	sess := &Session{
		Data: Data{
			ListKey: claims.ListKey,
			ItemID:  claims.ItemID,
			Admin:   claims.Admin,
		},
		SessionID: claims.SID,
	}
	if claims.IssuedAt != nil {
		sess.CreatedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return sess
}
