package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/authbridge"
	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

var ErrInvalidEnv = errors.New("invalid environment")

type Config struct {
	Port        int    `env:"PORT" envDefault:"3205"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:./authbridge.db"`

	SessionSecret      string                      `env:"SESSION_SECRET" envDefault:"-- DEV COOKIE SECRET; CHANGE ME --"`
	SessionMaxAge      time.Duration               `env:"SESSION_MAX_AGE" envDefault:"720h"`
	SessionCookieName  string                      `env:"SESSION_COOKIE_NAME" envDefault:"keystonejs-session"`
	SessionSameSite    string                      `env:"SESSION_SAME_SITE" envDefault:"lax"`
	SessionStore       authbridge.SessionStoreKind `env:"SESSION_STORE" envDefault:"stateless"`
	SessionRequireItem bool                        `env:"SESSION_REQUIRE_ITEM" envDefault:"false"`
	RedisURL           string                      `env:"REDIS_URL"`

	BridgeEnabled     bool   `env:"BRIDGE_ENABLED" envDefault:"true"`
	BridgeSecret      string `env:"BRIDGE_SECRET" envDefault:"supersecret"`
	BridgeListKey     string `env:"BRIDGE_LIST_KEY" envDefault:"User"`
	BridgeItemID      string `env:"BRIDGE_ITEM_ID" envDefault:"clgfkyin10000ecy82wllcj5i"`
	BridgeFailClosed  bool   `env:"BRIDGE_FAIL_CLOSED" envDefault:"false"`
	BridgeJWTSecret   string `env:"BRIDGE_JWT_SECRET"`
	BridgeJWTIssuer   string `env:"BRIDGE_JWT_ISSUER"`
	BridgeJWTAudience string `env:"BRIDGE_JWT_AUDIENCE"`

	ProductionMode bool   `env:"PRODUCTION_MODE" envDefault:"false"`
	SentryDsn      string `env:"SENTRY_DSN"`
	AuditEnabled   bool   `env:"AUDIT_ENABLED" envDefault:"true"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

func parseSameSite(value string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("%w: unknown SESSION_SAME_SITE %q", ErrInvalidEnv, value)
}

// Parse loads .env when it exists, then reads the environment.
func Parse() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (Config, error) {
	var conf Config
	if err := env.Parse(&conf); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidEnv, err)
	}
	if _, err := parseSameSite(conf.SessionSameSite); err != nil {
		return Config{}, err
	}
	conf.SessionStore = authbridge.SessionStoreKind(strings.ToLower(strings.TrimSpace(string(conf.SessionStore))))
	switch conf.SessionStore {
	case authbridge.SessionStoreStateless, authbridge.SessionStoreRedis:
	default:
		return Config{}, fmt.Errorf("%w: unknown SESSION_STORE %q", ErrInvalidEnv, conf.SessionStore)
	}
	if conf.SessionStore == authbridge.SessionStoreRedis && conf.RedisURL == "" {
		return Config{}, fmt.Errorf("%w: REDIS_URL is required when SESSION_STORE=redis", ErrInvalidEnv)
	}
	if conf.Port <= 0 || conf.Port > 65535 {
		return Config{}, fmt.Errorf("%w: PORT %d out of range", ErrInvalidEnv, conf.Port)
	}
	return conf, nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// EngineConfig maps the environment onto the engine defaults.
func (c Config) EngineConfig() authbridge.Config {
	cfg := authbridge.DefaultConfig()

	cfg.Session.Secret = c.SessionSecret
	cfg.Session.MaxAge = c.SessionMaxAge
	cfg.Session.CookieName = c.SessionCookieName
	if sameSite, err := parseSameSite(c.SessionSameSite); err == nil {
		cfg.Session.SameSite = sameSite
	}
	cfg.Session.Store = c.SessionStore
	cfg.Session.RequireItem = c.SessionRequireItem

	cfg.Bridge.Enabled = c.BridgeEnabled
	cfg.Bridge.Secret = c.BridgeSecret
	cfg.Bridge.ListKey = c.BridgeListKey
	cfg.Bridge.ItemID = c.BridgeItemID
	cfg.Bridge.FailClosed = c.BridgeFailClosed
	cfg.Bridge.JWTSecret = c.BridgeJWTSecret
	cfg.Bridge.JWTIssuer = c.BridgeJWTIssuer
	cfg.Bridge.JWTAudience = c.BridgeJWTAudience

	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Metrics.Enabled = c.MetricsEnabled
	cfg.Security.ProductionMode = c.ProductionMode
	return cfg
}
