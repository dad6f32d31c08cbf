package server

import (
	"context"
	"net/http"
	"time"

	"ceassist/internal/config"
	"ceassist/internal/handlers"
	"ceassist/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Server represents the application server
type Server struct {
	echo    *echo.Echo
	service *service.Service
	db      *sqlx.DB
	config  *config.Config
	logger  zerolog.Logger
}

// New creates a new server instance. db is only set when approvals live in
// a SQL database; /healthz/db reports unhealthy otherwise.
func New(cfg *config.Config, svc *service.Service, db *sqlx.DB, logger zerolog.Logger) *Server {
	return &Server{
		config:  cfg,
		service: svc,
		db:      db,
		logger:  logger,
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	// Middleware
	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	// Hide Echo banner
	s.echo.HideBanner = true
	s.echo.HidePort = true

	// Setup routes
	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	// API group with /api prefix
	api := s.echo.Group("/api")

	if s.config.EnableSwagger {
		s.echo.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// Health endpoints (keep at root level for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.DBHealthHandler(s.db))

	// API endpoints under /api prefix
	api.GET("/", handlers.RootHandler(s.config.Version))
	api.GET("/threads", handlers.ThreadsHandler(s.service))
	api.POST("/approve", handlers.ApproveHandler(s.service))
	api.GET("/metrics", handlers.MetricsHandler(s.service))
	api.GET("/export/snapshot", handlers.SnapshotHandler(s.service))

	// Downloads
	s.echo.GET("/export/json", handlers.ExportJSONHandler(s.service))
	s.echo.GET("/export/csv", handlers.ExportCSVHandler(s.service))

	// Serve static files (this should be last to avoid conflicts)
	s.echo.Static("/", "static")
}

// Handler returns the configured router. Initialize must be called first.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server. It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	if err := s.echo.Start(":" + s.config.Port); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Server shutting down")
	return s.echo.Shutdown(ctx)
}
