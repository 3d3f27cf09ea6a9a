package credential

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/authbridge/jwt"
)

// ErrInvalidStatic is returned by NewStatic for an unusable secret or
// identity.
var ErrInvalidStatic = errors.New("credential: invalid static entry")

// Identity is the subject a session is minted for.
type Identity struct {
	ListKey string
	ItemID  string
}

// Valid reports whether both fields are set.
func (i Identity) Valid() bool {
	return i.ListKey != "" && i.ItemID != ""
}

// Verifier resolves a raw header value to an identity. ok is false when the
// value is not a recognised credential; err is reserved for failures of the
// verifier itself.
type Verifier interface {
	Verify(ctx context.Context, header string) (identity Identity, ok bool, err error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, header string) (Identity, bool, error)

func (f VerifierFunc) Verify(ctx context.Context, header string) (Identity, bool, error) {
	return f(ctx, header)
}

// StaticVerifier matches header values against a fixed allowlist of shared
// secrets.
type StaticVerifier struct {
	entries []staticEntry
}

type staticEntry struct {
	secret   []byte
	identity Identity
}

// NewStatic returns a verifier for secrets mapped to identities. Empty
// secrets and invalid identities are rejected.
func NewStatic(secrets map[string]Identity) (*StaticVerifier, error) {
	v := &StaticVerifier{entries: make([]staticEntry, 0, len(secrets))}
	for secret, identity := range secrets {
		if secret == "" {
			return nil, fmt.Errorf("%w: empty shared secret", ErrInvalidStatic)
		}
		if !identity.Valid() {
			return nil, fmt.Errorf("%w: identity needs a list key and item id", ErrInvalidStatic)
		}
		v.entries = append(v.entries, staticEntry{secret: []byte(secret), identity: identity})
	}
	return v, nil
}

// Static is NewStatic for one secret. It panics on invalid input and is
// meant for wiring at startup.
func Static(secret string, identity Identity) *StaticVerifier {
	v, err := NewStatic(map[string]Identity{secret: identity})
	if err != nil {
		panic(err)
	}
	return v
}

// Verify compares header with every configured secret in constant time.
func (v *StaticVerifier) Verify(_ context.Context, header string) (Identity, bool, error) {
	if header == "" {
		return Identity{}, false, nil
	}
	got := []byte(header)

	var (
		match Identity
		found bool
	)
	for _, entry := range v.entries {
		if subtle.ConstantTimeCompare(got, entry.secret) == 1 && !found {
			match = entry.identity
			found = true
		}
	}
	return match, found, nil
}

// JWTBearer accepts "Bearer <jwt>" headers signed by an external issuer. The
// token subject becomes the item id.
type JWTBearer struct {
	tokens  *jwt.Manager
	listKey string
}

// NewJWTBearer returns a verifier for tokens accepted by tokens. Identities
// are placed in listKey.
func NewJWTBearer(tokens *jwt.Manager, listKey string) *JWTBearer {
	return &JWTBearer{tokens: tokens, listKey: listKey}
}

// Verify parses the bearer token. A missing prefix or an invalid token is a
// non-match, not an error.
func (v *JWTBearer) Verify(_ context.Context, header string) (Identity, bool, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return Identity{}, false, nil
	}

	claims, err := v.tokens.Parse(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return Identity{}, false, nil
	}
	id := Identity{ListKey: v.listKey, ItemID: claims.Subject}
	if !id.Valid() {
		return Identity{}, false, nil
	}
	return id, true, nil
}

// Chain tries verifiers in order and returns the first match. The first
// error stops the chain.
func Chain(verifiers ...Verifier) Verifier {
	return VerifierFunc(func(ctx context.Context, header string) (Identity, bool, error) {
		for _, v := range verifiers {
			id, ok, err := v.Verify(ctx, header)
			if err != nil {
				return Identity{}, false, err
			}
			if ok {
				return id, true, nil
			}
		}
		return Identity{}, false, nil
	})
}
