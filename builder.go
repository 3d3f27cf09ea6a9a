package authbridge

import (
	"errors"

	"github.com/MrEthical07/authbridge/internal/audit"
	"github.com/MrEthical07/authbridge/internal/rate"
	"github.com/MrEthical07/authbridge/jwt"
	"github.com/MrEthical07/authbridge/password"
	"github.com/MrEthical07/authbridge/repository"
	"github.com/MrEthical07/authbridge/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an Engine. A Builder is single-use.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	items     repository.ItemStore
	auditSink AuditSink
	logger    *zap.Logger
	strategy  session.Strategy

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the client used by the redis session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithItemStore sets the auth list storage. Without one, password sign-in
// and initial item creation return ErrEngineNotReady.
func (b *Builder) WithItemStore(store repository.ItemStore) *Builder {
	b.items = store
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithStrategy replaces the configured session strategy.
func (b *Builder) WithStrategy(strategy session.Strategy) *Builder {
	b.strategy = strategy
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Session.MaxAge,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(cfg.Session.Secret),
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewBcrypt(password.Config{
		Cost:     cfg.Password.Cost,
		MinBytes: cfg.Password.MinBytes,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config: cfg,
		items:  b.items,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}

	// -------- SESSION STRATEGY --------
	switch {
	case b.strategy != nil:
		engine.strategy = b.strategy
	case cfg.Session.Store == SessionStoreRedis:
		if b.redis == nil {
			return nil, errors.New("redis session store requires a redis client")
		}
		engine.sessionStore = session.NewStore(b.redis, cfg.Session.RedisPrefix)
		engine.strategy = session.NewStored(engine.sessionStore, tokens)
	default:
		engine.strategy = session.NewStateless(tokens)
	}

	if b.redis != nil && cfg.Auth.MaxSignInAttempts > 0 {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:      cfg.Session.RedisPrefix,
			MaxAttempts: cfg.Auth.MaxSignInAttempts,
			Window:      cfg.Auth.SignInWindow,
			PerIP:       cfg.Auth.SignInPerIP,
		})
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Logger:     logger,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
