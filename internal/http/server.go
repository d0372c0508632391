// Package http exposes the MCP server over streamable HTTP, with health and
// Prometheus endpoints alongside.
package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/logging"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/telemetry"
)

// HealthReporter reports telemetry export health.
type HealthReporter interface {
	Health() telemetry.HealthStatus
}

// Server serves the MCP handler on /mcp.
type Server struct {
	echo      *echo.Echo
	logger    *logging.Logger
	config    *Config
	gatherer  prometheus.Gatherer
	meter     metric.MeterProvider
	telemetry HealthReporter
	version   string
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// AuthToken, when set, is required as a bearer token on /mcp.
	AuthToken       string
	ShutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves g on /metrics instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithMeterProvider records HTTP metrics on mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Server) { s.meter = mp }
}

// WithTelemetry includes t in /health.
func WithTelemetry(t HealthReporter) Option {
	return func(s *Server) { s.telemetry = t }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a new HTTP server around mcpHandler.
func NewServer(mcpHandler http.Handler, logger *logging.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if mcpHandler == nil {
		return nil, fmt.Errorf("mcp handler cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9091,
		}
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		logger:   logger.Named("http"),
		config:   cfg,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(s.requestLog)
	e.Use(NewHTTPMetrics(s.meter, s.logger).MetricsMiddleware())

	s.echo = e
	s.registerRoutes(mcpHandler)

	return s, nil
}

func (s *Server) requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		s.logger.Info(c.Request().Context(), "http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)

		return err
	}
}

func (s *Server) registerRoutes(mcpHandler http.Handler) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	var mws []echo.MiddlewareFunc
	if s.config.AuthToken != "" {
		mws = append(mws, s.bearerAuth())
	}
	s.echo.Any("/mcp", echo.WrapHandler(mcpHandler), mws...)
}

func (s *Server) bearerAuth() echo.MiddlewareFunc {
	want := []byte(s.config.AuthToken)
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), want) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			s.logger.Info(c.Request().Context(), "rejected unauthenticated request",
				zap.String("remote", c.RealIP()),
				zap.Error(err),
			)
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid bearer token")
		},
	})
}

// TelemetryHealth is the telemetry section of HealthResponse.
type TelemetryHealth struct {
	Healthy bool     `json:"healthy"`
	Reasons []string `json:"reasons,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version,omitempty"`
	Telemetry *TelemetryHealth `json:"telemetry,omitempty"`
}

// handleHealth reports "degraded" while telemetry export is failing. The
// bridge itself still serves requests, so the status code stays 200.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.version}
	if s.telemetry != nil {
		h := s.telemetry.Health()
		resp.Telemetry = &TelemetryHealth{Healthy: h.Healthy, Reasons: h.Reasons}
		if h.Degraded {
			resp.Status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Handler returns the routed handler, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the listener address once Start is serving, or nil.
func (s *Server) Addr() net.Addr {
	return s.echo.ListenerAddr()
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	s.logger.Info(ctx, "starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
