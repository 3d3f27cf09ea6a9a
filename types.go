package authbridge

import (
	"github.com/MrEthical07/authbridge/repository"
	"github.com/MrEthical07/authbridge/session"
)

// SessionData is what a session records about its subject.
type SessionData = session.Data

// Session is a resolved session.
type Session = session.Session

// Item is an item of the auth list.
type Item = repository.Item

// AuthResult is returned by operations that sign an item in.
type AuthResult struct {
	Token string
	Item  *Item
}

// InitialItemInput holds the fields of the first item. Password is
// plaintext and hashed by the engine.
type InitialItemInput struct {
	Name     string
	Email    string
	Password string
}

// BridgeOutcome classifies one pass of the auth bridge.
type BridgeOutcome int

const (
	// BridgePassthrough means the header was not a recognised credential.
	BridgePassthrough BridgeOutcome = iota
	// BridgeMatched means a session was minted and the header rewritten.
	BridgeMatched
	// BridgeFailed means the credential matched but minting failed.
	BridgeFailed
)

func (o BridgeOutcome) String() string {
	switch o {
	case BridgeMatched:
		return "matched"
	case BridgeFailed:
		return "failed"
	default:
		return "passthrough"
	}
}

// HealthReport is a point-in-time view of the engine's backends.
type HealthReport struct {
	ItemStore    error
	SessionStore error
}

// Healthy reports whether every configured backend answered.
func (h HealthReport) Healthy() bool {
	return h.ItemStore == nil && h.SessionStore == nil
}
