package main

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/config"
	"github.com/MrEthical07/authbridge/repository"
	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

func newLogger(productionMode bool) (*zap.Logger, error) {
	if productionMode {
		return zap.NewProduction(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	}
	return zap.NewDevelopment(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

// initSentry is a no-op without a DSN. A bad DSN is fatal only in
// production mode.
func initSentry(conf config.Config, logger *zap.Logger) (bool, error) {
	if conf.SentryDsn == "" {
		return false, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:   conf.SentryDsn,
		Debug: !conf.ProductionMode,
	}); err != nil {
		if conf.ProductionMode {
			return false, fmt.Errorf("init sentry: %w", err)
		}
		logger.Warn("Failed to initialise sentry", zap.Error(err))
		return false, nil
	}
	return true, nil
}

// app holds what serve and mint share.
type app struct {
	engine *authbridge.Engine
	items  repository.ItemStore
	redis  *redis.Client
}

func (r *app) Close() {
	if r.engine != nil {
		r.engine.Close()
	}
	if r.items != nil {
		_ = r.items.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
}

func openApp(ctx context.Context, conf config.Config, logger *zap.Logger) (*app, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	rt := &app{}

	logger.Info("Opening item store...", zap.String("scheme", repository.Scheme(conf.DatabaseURL)))
	items, err := repository.Open(ctx, conf.DatabaseURL)
	if err != nil {
		return nil, err
	}
	rt.items = items

	cfg := conf.EngineConfig()
	builder := authbridge.New().
		WithConfig(cfg).
		WithItemStore(items).
		WithLogger(logger)

	if cfg.Session.Store == authbridge.SessionStoreRedis {
		opts, err := redis.ParseURL(conf.RedisURL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rt.redis = redis.NewClient(opts)
		if err := rt.redis.Ping(ctx).Err(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		builder = builder.WithRedis(rt.redis)
	}

	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(authbridge.NewZapSink(logger))
	}

	engine, err := builder.Build()
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.engine = engine
	return rt, nil
}
