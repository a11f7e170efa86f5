// Package server is the HTTP API of the registry: loupe queries, cut and
// ownership submission, and dispatch.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	slogecho "github.com/samber/slog-echo"
	"go.ntppool.org/common/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/auraprotocol/diamond/diamond"
	"github.com/auraprotocol/diamond/server/metrics"
)

// Config is the API server configuration.
type Config struct {
	Listen string `name:"listen" env:"DIAMOND_LISTEN" default:":8000" help:"API listen address"`
	JWTKey string `name:"jwt-key" env:"DIAMOND_JWT_KEY" help:"HS256 key verifying admin tokens; admin endpoints are disabled without it"`
}

type Server struct {
	d   *diamond.Diamond
	key []byte
	log *slog.Logger
	m   *metrics.Metrics
	e   *echo.Echo
}

type Option func(*Server)

// WithMetrics records request metrics in reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(srv *Server) {
		srv.m = metrics.New(reg)
	}
}

// New returns the API server for d. Without a key, cut and ownership
// requests are refused.
func New(ctx context.Context, d *diamond.Diamond, jwtKey string, opts ...Option) *Server {
	srv := &Server{
		d:   d,
		key: []byte(jwtKey),
		log: logger.FromContext(ctx).WithGroup("api"),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.e = srv.setupEcho()
	return srv
}

// Handler returns the API as an http.Handler.
func (srv *Server) Handler() http.Handler {
	return srv.e
}

func (srv *Server) setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("diamondd"))
	if srv.m != nil {
		e.Use(srv.m.Middleware)
	}
	e.Use(slogecho.NewWithConfig(srv.log, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.NewContext(req.Context(), srv.log)))
			return next(c)
		}
	})

	e.GET("/healthz", srv.healthz)

	v1 := e.Group("/v1")
	v1.GET("/facets", srv.facets)
	v1.GET("/facets/addresses", srv.facetAddresses)
	v1.GET("/facets/:facet/selectors", srv.facetSelectors)
	v1.GET("/selectors/:selector", srv.facetAddress)
	v1.GET("/owner", srv.owner)
	v1.GET("/history", srv.history)
	v1.POST("/dispatch", srv.dispatch)

	v1.POST("/cut", srv.cut, srv.requireCaller)
	v1.POST("/owner", srv.transferOwnership, srv.requireCaller)

	return e
}

// Run serves the API on listen until ctx is done.
func (srv *Server) Run(ctx context.Context, listen string) error {
	server := &http.Server{
		Addr:    listen,
		Handler: srv.e,

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       240 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			srv.log.Warn("api shutdown", "err", err)
		}
	}()

	srv.log.InfoContext(ctx, "starting api server", "listen", listen)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
