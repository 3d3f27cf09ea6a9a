package authbridge

import "time"

// LintSeverity ranks a lint warning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintHigh:
		return "high"
	case LintWarn:
		return "warn"
	default:
		return "info"
	}
}

// LintWarning is one finding of Config.Lint.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of findings of Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	codes := make([]string, 0, len(r))
	for _, w := range r {
		codes = append(codes, w.Code)
	}
	return codes
}

// AtLeast returns the warnings at or above min.
func (r LintResult) AtLeast(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// Lint reports settings that are valid but risky. It never fails; Validate
// rejects what cannot run.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.Session.Secret == DevSessionSecret {
		add("session_dev_secret", LintHigh, "session tokens are signed with the development secret")
	}
	if c.Bridge.Enabled {
		if c.Bridge.Secret == DefaultBridgeSecret {
			add("bridge_default_secret", LintHigh, "the auth bridge accepts the default shared secret")
		}
		if len(c.Bridge.Secret) < 16 {
			add("bridge_short_secret", LintWarn, "the auth bridge secret is shorter than 16 bytes")
		}
		if !c.Session.RequireItem {
			add("bridge_unchecked_item", LintInfo, "the bridge mints sessions without checking the item exists")
		}
	}
	if !c.secureCookies() {
		add("cookies_insecure", LintWarn, "session cookies are sent without the Secure flag")
	}
	if c.Session.MaxAge > DefaultSessionMaxAge {
		add("session_max_age_long", LintWarn, "sessions live longer than 30 days")
	}
	if c.Session.Store == SessionStoreStateless && c.Session.MaxAge > 24*time.Hour {
		add("stateless_unrevocable", LintInfo, "stateless sessions cannot be revoked before they expire")
	}
	if c.Audit.Enabled && c.Audit.DropIfFull {
		add("audit_drop_if_full", LintInfo, "audit events are dropped when the buffer is full")
	}
	if !c.Metrics.Enabled {
		add("metrics_disabled", LintInfo, "engine metrics are disabled")
	}

	return ws
}

// SecurityReport summarises the security-relevant engine settings.
type SecurityReport struct {
	ProductionMode     bool
	SessionStore       SessionStoreKind
	SessionMaxAge      time.Duration
	SecureCookies      bool
	DevSessionSecret   bool
	BridgeEnabled      bool
	BridgeDefaultCreds bool
	BridgeFailClosed   bool
	RequireItem        bool
	PasswordCost       int
	Warnings           LintResult
}

// SecurityReport returns the engine's view of its configuration.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	cfg := e.config
	return SecurityReport{
		ProductionMode:     cfg.Security.ProductionMode,
		SessionStore:       cfg.Session.Store,
		SessionMaxAge:      cfg.Session.MaxAge,
		SecureCookies:      cfg.secureCookies(),
		DevSessionSecret:   cfg.Session.Secret == DevSessionSecret,
		BridgeEnabled:      cfg.Bridge.Enabled,
		BridgeDefaultCreds: cfg.Bridge.Enabled && cfg.Bridge.Secret == DefaultBridgeSecret,
		BridgeFailClosed:   cfg.Bridge.FailClosed,
		RequireItem:        cfg.Session.RequireItem,
		PasswordCost:       cfg.Password.Cost,
		Warnings:           cfg.Lint(),
	}
}
