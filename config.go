package authbridge

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/authbridge/password"
)

const (
	// DevSessionSecret is the development session secret. Production mode
	// refuses it.
	DevSessionSecret = "-- DEV COOKIE SECRET; CHANGE ME --"
	// DefaultSessionMaxAge is the session cookie and token lifetime.
	DefaultSessionMaxAge = 30 * 24 * time.Hour
	// DefaultCookieName is the session cookie name.
	DefaultCookieName = "keystonejs-session"
	// DefaultListKey is the auth list.
	DefaultListKey = "User"
	// DefaultBridgeSecret is the shared secret the bridge accepts by default.
	DefaultBridgeSecret = "supersecret"
	// DefaultBridgeItemID is the item the bridge mints sessions for by
	// default.
	DefaultBridgeItemID = "clgfkyin10000ecy82wllcj5i"

	minSessionSecretBytes = 32
)

// SessionStoreKind selects the session strategy.
type SessionStoreKind string

const (
	// SessionStoreStateless keeps the whole session inside a signed token.
	SessionStoreStateless SessionStoreKind = "stateless"
	// SessionStoreRedis keeps sessions in Redis behind a session id token.
	SessionStoreRedis SessionStoreKind = "redis"
)

// Config is the engine configuration. Build it from DefaultConfig.
type Config struct {
	Session  SessionConfig
	Bridge   BridgeConfig
	Auth     AuthConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

// SessionConfig controls session tokens and cookies.
type SessionConfig struct {
	Secret     string
	MaxAge     time.Duration
	CookieName string
	SameSite   http.SameSite
	// SecureCookies forces the Secure flag. Production mode sets it too.
	SecureCookies bool
	Store         SessionStoreKind
	RedisPrefix   string
	// RequireItem makes StartSession fail for items missing from the item
	// store, and GetSession reject sessions whose item was deleted.
	RequireItem bool
}

// BridgeConfig is the identity the auth bridge mints sessions for.
type BridgeConfig struct {
	Enabled    bool
	Secret     string
	ListKey    string
	ItemID     string
	FailClosed bool
	// JWTSecret, when set, makes the bridge also accept "Bearer <jwt>"
	// headers signed with it by an external issuer. The token subject is the
	// item id in ListKey.
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// AuthConfig names the auth list.
type AuthConfig struct {
	ListKey string
	// InitFirstItem allows CreateInitialItem while the list is empty.
	InitFirstItem bool
	// MaxSignInAttempts failed sign-ins per email within SignInWindow are
	// allowed before ErrRateLimited. Throttling needs a redis client; zero
	// disables it.
	MaxSignInAttempts int
	SignInWindow      time.Duration
	SignInPerIP       bool
}

type PasswordConfig struct {
	Cost     int
	MinBytes int
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

type SecurityConfig struct {
	ProductionMode bool
}

// DefaultConfig returns the development configuration: stateless sessions
// signed with DevSessionSecret for 30 days, and the bridge enabled for
// DefaultBridgeSecret.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Secret:      DevSessionSecret,
			MaxAge:      DefaultSessionMaxAge,
			CookieName:  DefaultCookieName,
			SameSite:    http.SameSiteLaxMode,
			Store:       SessionStoreStateless,
			RedisPrefix: "ab",
		},
		Bridge: BridgeConfig{
			Enabled: true,
			Secret:  DefaultBridgeSecret,
			ListKey: DefaultListKey,
			ItemID:  DefaultBridgeItemID,
		},
		Auth: AuthConfig{
			ListKey:           DefaultListKey,
			InitFirstItem:     true,
			MaxSignInAttempts: 10,
			SignInWindow:      15 * time.Minute,
			SignInPerIP:       true,
		},
		Password: PasswordConfig{
			Cost:     password.DefaultCost,
			MinBytes: password.DefaultMinBytes,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Session
	if len(c.Session.Secret) < minSessionSecretBytes {
		return errors.New("Session Secret must be at least 32 bytes")
	}
	if c.Session.MaxAge <= 0 {
		return errors.New("Session MaxAge must be > 0")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("Session CookieName must be set")
	}
	switch c.Session.Store {
	case SessionStoreStateless:
	case SessionStoreRedis:
		if strings.TrimSpace(c.Session.RedisPrefix) == "" {
			return errors.New("Session RedisPrefix must be set for the redis store")
		}
	default:
		return errors.New("unsupported Session Store")
	}

	// Bridge
	if c.Bridge.Enabled {
		if c.Bridge.Secret == "" {
			return errors.New("Bridge Secret must be set when the bridge is enabled")
		}
		if c.Bridge.ListKey == "" || c.Bridge.ItemID == "" {
			return errors.New("Bridge ListKey and ItemID must be set when the bridge is enabled")
		}
		if c.Bridge.JWTSecret != "" && c.Bridge.JWTSecret == c.Session.Secret {
			return errors.New("Bridge JWTSecret must differ from the Session Secret")
		}
	}

	// Auth
	if strings.TrimSpace(c.Auth.ListKey) == "" {
		return errors.New("Auth ListKey must be set")
	}
	if c.Auth.MaxSignInAttempts < 0 {
		return errors.New("Auth MaxSignInAttempts must be >= 0")
	}
	if c.Auth.MaxSignInAttempts > 0 && c.Auth.SignInWindow <= 0 {
		return errors.New("Auth SignInWindow must be > 0 when sign-in throttling is on")
	}

	// Password
	if _, err := password.NewBcrypt(password.Config{Cost: c.Password.Cost, MinBytes: c.Password.MinBytes}); err != nil {
		return err
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Production
	if c.Security.ProductionMode {
		if c.Session.Secret == DevSessionSecret {
			return errors.New("production mode refuses the development session secret")
		}
		if c.Bridge.Enabled && c.Bridge.Secret == DefaultBridgeSecret {
			return errors.New("production mode refuses the default bridge secret")
		}
	}

	return nil
}

func (c Config) secureCookies() bool {
	return c.Session.SecureCookies || c.Security.ProductionMode
}
