package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pfrederiksen/bonetider/internal/logger"
	"github.com/pfrederiksen/bonetider/internal/service"
)

// Paths served by the prayer times handler
const (
	PathPrayerTimes = "/prayer-times"
	PathLegacy      = "/.netlify/functions/prayer-times"
)

// Resolver produces the record to serve for an instant
type Resolver interface {
	Resolve(ctx context.Context, now time.Time) *service.Response
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// ErrorResponse is the body of non-200 answers
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// Server provides HTTP endpoints for bonetider.
type Server struct {
	echo     *echo.Echo
	resolver Resolver
	metrics  *logger.Metrics
	config   *Config
	now      func() time.Time
}

// NewServer creates a new HTTP server.
func NewServer(resolver Resolver, metrics *logger.Metrics, cfg *Config) (*Server, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}
	if metrics == nil {
		metrics = logger.DefaultMetrics()
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8888,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	e.Use(requestLogger(metrics))

	s := &Server{
		echo:     e,
		resolver: resolver,
		metrics:  metrics,
		config:   cfg,
		now:      time.Now,
	}

	s.registerRoutes()

	return s, nil
}

func requestLogger(metrics *logger.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			duration := time.Since(start)

			metrics.RecordTiming("http.request", duration)
			log := logger.Default().With(logger.Fields{
				"method": c.Request().Method,
				"uri":    c.Request().RequestURI,
			})
			log.Info("HTTP request", logger.Fields{
				"status":   c.Response().Status,
				"duration": duration.String(),
			})

			return nil
		}
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", s.handleMetrics)

	s.echo.Any(PathPrayerTimes, s.handlePrayerTimes)
	s.echo.Any(PathLegacy, s.handlePrayerTimes)
}

// Handler returns the server as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleMetrics returns the metrics snapshot.
func (s *Server) handleMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.metrics.Snapshot())
}

// handlePrayerTimes serves today's record. Preflight requests never get here,
// the CORS middleware answers them.
func (s *Server) handlePrayerTimes(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	}

	resp := s.resolver.Resolve(c.Request().Context(), s.now())
	s.metrics.IncrCounter("http.prayer_times." + string(resp.Source))

	return c.JSON(http.StatusOK, resp)
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logger.Info("Starting HTTP server", logger.Fields{"addr": s.Addr()})
	return s.echo.Start(s.Addr())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP server", nil)
	return s.echo.Shutdown(ctx)
}
