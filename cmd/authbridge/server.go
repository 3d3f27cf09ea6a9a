package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/api"
	"github.com/MrEthical07/authbridge/metrics/export/prometheus"
	"github.com/MrEthical07/authbridge/middleware"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 3 * time.Second

type Server struct {
	Logger *zap.Logger
	Engine *authbridge.Engine

	// ReportError receives bridge failures after they are logged.
	ReportError func(error)

	router *gin.Engine
}

func NewServer(logger *zap.Logger, engine *authbridge.Engine) *Server {
	if engine.Config().Security.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{
		Logger: logger,
		Engine: engine,
		router: gin.New(),
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) RegisterRoutes() error {
	s.router.Use(ginzap.Ginzap(s.Logger, time.RFC3339, true))
	s.router.Use(ginzap.RecoveryWithZap(s.Logger, true))
	s.router.Use(clientIP)

	bridge, err := s.bridge()
	if err != nil {
		return err
	}

	graphql, err := api.NewHandler(s.Engine, s.Engine.Cookies(), s.Logger)
	if err != nil {
		return err
	}

	cookieName := s.Engine.Config().Session.CookieName
	optional := middleware.Gin(middleware.Optional(s.Engine, cookieName))
	guard := middleware.Gin(middleware.Guard(s.Engine, cookieName))
	admin := middleware.Gin(middleware.RequireAdmin(s.Engine))

	s.router.GET("/api/graphql", bridge, optional, gin.WrapH(graphql))
	s.router.POST("/api/graphql", bridge, optional, gin.WrapH(graphql))
	s.router.GET("/api/session", bridge, guard, s.sessionHandler)
	s.router.GET("/admin", bridge, guard, admin, s.adminHandler)
	s.router.GET("/healthz", s.healthHandler)
	s.router.GET("/metrics", gin.WrapH(prometheus.NewPrometheusExporter(s.Engine).Handler()))

	return nil
}

// bridge returns a no-op handler when the bridge is disabled.
func (s *Server) bridge() (gin.HandlerFunc, error) {
	cfg := s.Engine.Config().Bridge
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }, nil
	}

	verifier, err := s.Engine.BridgeVerifier()
	if err != nil {
		return nil, err
	}

	opts := []middleware.BridgeOption{
		middleware.WithObserver(s.Engine),
		middleware.WithErrorHandler(s.bridgeError),
	}
	if cfg.FailClosed {
		opts = append(opts, middleware.WithFailClosed())
	}
	return middleware.Gin(middleware.Bridge(verifier, s.Engine, opts...)), nil
}

func (s *Server) bridgeError(r *http.Request, err error) {
	s.Logger.Error("Auth bridge failed to mint a session",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	if s.ReportError != nil {
		s.ReportError(err)
	}
}

func (s *Server) sessionHandler(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) adminHandler(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"listKey": sess.ListKey,
		"itemId":  sess.ItemID,
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	report := s.Engine.Health(ctx)
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"itemStore":    healthString(report.ItemStore),
		"sessionStore": healthString(report.SessionStore),
	})
}

func healthString(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "unavailable"
}

func clientIP(c *gin.Context) {
	c.Request = c.Request.WithContext(authbridge.WithClientIP(c.Request.Context(), c.ClientIP()))
	c.Next()
}

// Run serves on addr until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string, drain time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("Listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
