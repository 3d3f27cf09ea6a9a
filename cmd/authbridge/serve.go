package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/config"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the GraphQL auth API on PORT",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Parse()
			if err != nil {
				return err
			}

			logger, err := newLogger(conf.ProductionMode)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			sentryEnabled, err := initSentry(conf, logger)
			if err != nil {
				return err
			}
			if sentryEnabled {
				defer sentry.Flush(2 * time.Second)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := openApp(ctx, conf, logger)
			if err != nil {
				logger.Error("Failed to start", zap.Error(err))
				return err
			}
			defer rt.Close()

			logLint(logger, rt.engine.SecurityReport().Warnings)
			announceInitialItem(ctx, logger, rt.engine)

			server := NewServer(logger, rt.engine)
			if sentryEnabled {
				server.ReportError = func(err error) { sentry.CaptureException(err) }
			}
			if err := server.RegisterRoutes(); err != nil {
				return err
			}

			return server.Run(ctx, conf.Addr(), shutdownTimeout)
		},
	}
}

func logLint(logger *zap.Logger, lint authbridge.LintResult) {
	for _, w := range lint {
		fields := []zap.Field{zap.String("code", w.Code), zap.String("severity", w.Severity.String())}
		if w.Severity >= authbridge.LintWarn {
			logger.Warn(w.Message, fields...)
		} else {
			logger.Info(w.Message, fields...)
		}
	}
}

func announceInitialItem(ctx context.Context, logger *zap.Logger, engine *authbridge.Engine) {
	required, err := engine.InitialItemRequired(ctx)
	if err != nil {
		logger.Warn("Could not count items", zap.Error(err))
		return
	}
	if required {
		logger.Info("No items yet; createInitialUser is open")
	}
}
