// Package http provides the HTTP API for reflectd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reflectd/pkg/llm"
	"github.com/fyrsmithlabs/reflectd/pkg/reflection"
)

// Server exposes the reflection pipeline over HTTP.
//
// Each reflect request runs on its own engine over the shared provider
// client, so concurrent requests never contend on one engine's history.
type Server struct {
	echo      *echo.Echo
	completer llm.Completer
	logger    *zap.Logger
	config    *Config

	runs     atomic.Int64
	failures atomic.Int64
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// Version is reported by GET /api/v1/status.
	Version string

	// CallTimeout bounds each completion call of a run. Zero leaves
	// cancellation to the request context.
	CallTimeout time.Duration
}

// NewServer creates a new HTTP server over the given completion
// capability.
func NewServer(completer llm.Completer, logger *zap.Logger, cfg *Config) (*Server, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		completer: completer,
		logger:    logger,
		config:    cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check
	s.echo.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/reflect", s.handleReflect)
	v1.GET("/status", s.handleStatus)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleStatus reports the daemon's run counters since startup.
func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Status:  "ok",
		Version: s.config.Version,
		Counts: StatusCounts{
			Runs:     s.runs.Load(),
			Failures: s.failures.Load(),
		},
	})
}

// handleReflect runs the three-pass reflection pipeline for the request.
func (s *Server) handleReflect(c echo.Context) error {
	var req ReflectRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid reflect request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Persona == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "persona field is required")
	}
	if req.Task == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task field is required")
	}

	// Fresh engine per request: engines serialize their runs, the shared
	// provider client is safe for concurrent use.
	engine, err := reflection.NewEngineWithCompleter(s.completer,
		reflection.WithLogger(s.logger),
		reflection.WithCallTimeout(s.config.CallTimeout),
	)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "creating engine")
	}

	prompt := reflection.PromptTemplate{
		Persona:      req.Persona,
		Task:         req.Task,
		Context:      req.Context,
		OutputFormat: req.OutputFormat,
	}

	id := "refl-" + uuid.NewString()
	start := time.Now()

	result, err := engine.GenerateText(c.Request().Context(), prompt, req.Criteria)
	if err != nil {
		s.failures.Add(1)
		s.logger.Warn("reflection run failed",
			zap.String("id", id),
			zap.Error(err))

		if errors.Is(err, reflection.ErrMissingPersona) || errors.Is(err, reflection.ErrMissingTask) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, reflection.ErrGeneration) {
			return echo.NewHTTPError(http.StatusBadGateway, "generation failed: upstream provider error")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "generation failed")
	}

	s.runs.Add(1)

	history := engine.History()
	return c.JSON(http.StatusOK, ReflectResponse{
		ID:         id,
		Result:     result,
		Draft:      history[0],
		Critique:   history[1],
		DurationMS: time.Since(start).Milliseconds(),
	})
}

// Echo returns the underlying Echo instance for registering additional
// routes, such as the daemon's /metrics endpoint.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
