package session

import "time"

// Data is the identity embedded in a session: which list, which item, and
// whether that item may use the admin surface.
type Data struct {
	ListKey string `json:"listKey"`
	ItemID  string `json:"itemId"`
	Admin   bool   `json:"isAdmin"`
}

// Session is a resolved session. CreatedAt and ExpiresAt are unix seconds.
type Session struct {
	Data

	SessionID string `json:"sessionId,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && s.ExpiresAt <= now.Unix()
}

// TTL returns the remaining lifetime at now, or zero when expired.
func (s *Session) TTL(now time.Time) time.Duration {
	remaining := time.Unix(s.ExpiresAt, 0).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
