// Package http serves the sesiond HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/sesiond/internal/config"
	"github.com/fyrsmithlabs/sesiond/internal/generator"
	"github.com/fyrsmithlabs/sesiond/internal/logging"
	"github.com/fyrsmithlabs/sesiond/internal/telemetry"
)

// Server provides the HTTP endpoints of sesiond.
type Server struct {
	echo      *echo.Echo
	generator *generator.Service
	logger    *logging.Logger
	config    *config.Config

	version  string
	gatherer prometheus.Gatherer
	metrics  *HTTPMetrics
	tracer   trace.Tracer
	health   func() telemetry.HealthStatus
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithGatherer sets the registry exposed on /metrics.
// Defaults to prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithHTTPMetrics enables the OpenTelemetry HTTP instruments.
func WithHTTPMetrics(m *HTTPMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithTracer enables a server span per request.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithTelemetryHealth reports telemetry status on /health.
func WithTelemetryHealth(fn func() telemetry.HealthStatus) Option {
	return func(s *Server) { s.health = fn }
}

// NewServer creates the HTTP server.
func NewServer(gen *generator.Service, logger *logging.Logger, cfg *config.Config, opts ...Option) (*Server, error) {
	if gen == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = config.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		generator: gen,
		logger:    logger,
		config:    cfg,
		gatherer:  prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error(c.Request().Context(), "panic recovered",
				zap.Error(err), zap.ByteString("stack", stack))
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		},
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:        uuid.NewString,
		RequestIDHandler: s.bindRequestID,
	}))
	if s.tracer != nil {
		e.Use(tracingMiddleware(s.tracer))
	}
	if s.metrics != nil {
		e.Use(s.metrics.MetricsMiddleware())
	}
	e.Use(s.requestLogger)
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", cfg.Server.MaxUploadSize)))
	if cfg.Server.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/health" || c.Path() == "/metrics"
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.Server.RateLimit),
				Burst:     cfg.Server.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}

	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	s.echo.POST("/generate", s.handleGenerate)
	s.echo.POST("/validate_json", s.handleValidateJSON)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/period", s.handlePeriod)
}

// bindRequestID stores the request ID in the request context so that every
// log line of the request carries it. Client-supplied IDs that fail
// validation are not propagated.
func (s *Server) bindRequestID(c echo.Context, id string) {
	if !logging.ValidRequestID(id) {
		return
	}
	req := c.Request()
	c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		fields := []zap.Field{
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("bytes_out", c.Response().Size),
			zap.String("remote_ip", c.RealIP()),
		}
		if c.Response().Status >= http.StatusInternalServerError {
			s.logger.Warn(req.Context(), "http request", fields...)
		} else {
			s.logger.Info(req.Context(), "http request", fields...)
		}
		return nil
	}
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the bound listener address once Start is listening, else nil.
func (s *Server) Addr() net.Addr {
	return s.echo.ListenerAddr()
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails. Cancellation triggers a graceful shutdown bounded by the
// configured timeout; a clean shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Server.Addr()
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "starting http server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout.Duration())
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
