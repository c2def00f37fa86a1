// Package api serves the dashboard views over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mklimuk/focus-pilot/pkg/ai"
	"github.com/mklimuk/focus-pilot/pkg/auth"
	"github.com/mklimuk/focus-pilot/pkg/automation"
	"github.com/mklimuk/focus-pilot/pkg/metrics"
	"github.com/mklimuk/focus-pilot/pkg/model"
	"github.com/mklimuk/focus-pilot/pkg/state"
)

// BackendStore reads and writes the remote sync settings.
type BackendStore interface {
	BackendConfig() (model.BackendConfig, error)
	SaveBackendConfig(cfg model.BackendConfig) error
}

// Advisor produces AI advice.
type Advisor interface {
	Advise(ctx context.Context, goals []model.Goal, tasks []model.Task, user model.UserState) ([]ai.Advice, error)
}

// Jobs lists and triggers scheduled jobs.
type Jobs interface {
	Jobs() []automation.JobInfo
	RunNow(ctx context.Context, name string) (string, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// AdviceRate is the sustained number of advice requests per minute.
	AdviceRate  float64
	AdviceBurst int
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
}

// Deps are the components the views operate on. Jobs and Metrics are optional.
type Deps struct {
	State    *state.Orchestrator
	Backend  BackendStore
	Advisor  Advisor
	Verifier auth.Verifier
	Sessions *auth.Sessions
	Jobs     Jobs
	Metrics  *metrics.Metrics
}

// Server provides the dashboard HTTP API.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	limiter *rate.Limiter
	logger  *zap.Logger
	config  *Config
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, logger *zap.Logger, cfg *Config) (*Server, error) {
	if deps.State == nil {
		return nil, fmt.Errorf("state cannot be nil")
	}
	if deps.Verifier == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("verifier and sessions are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8080}
	}
	if cfg.AdviceRate <= 0 {
		cfg.AdviceRate = 6
	}
	if cfg.AdviceBurst <= 0 {
		cfg.AdviceBurst = 1
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	})

	s := &Server{
		echo:    e,
		deps:    deps,
		limiter: rate.NewLimiter(rate.Limit(cfg.AdviceRate/60), cfg.AdviceBurst),
		logger:  logger,
		config:  cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/api/login", s.handleLogin)

	api := s.echo.Group("/api", auth.Middleware(s.deps.Sessions))
	api.POST("/logout", s.handleLogout)

	api.GET("/dashboard", s.handleDashboard)
	api.PUT("/user", s.handleUpdateProfile)
	api.POST("/user/xp", s.handleAddXP)

	api.GET("/goals", s.handleListGoals)
	api.POST("/goals", s.handleCreateGoal)
	api.PUT("/goals/:id", s.handleUpdateGoal)
	api.DELETE("/goals/:id", s.handleDeleteGoal)
	api.POST("/goals/:id/key-results", s.handleAddKeyResult)
	api.POST("/goals/:id/key-results/:krId/toggle", s.handleToggleKeyResult)

	api.GET("/tasks", s.handleListTasks)
	api.POST("/tasks", s.handleCreateTask)
	api.DELETE("/tasks/:id", s.handleDeleteTask)
	api.POST("/tasks/:id/toggle", s.handleToggleTask)
	api.PUT("/tasks/:id/status", s.handleSetTaskStatus)
	api.POST("/tasks/:id/priority/:field", s.handleTogglePriority)
	api.POST("/tasks/:id/subtasks", s.handleAddSubTask)
	api.POST("/tasks/:id/subtasks/:subId/toggle", s.handleToggleSubTask)
	api.GET("/board", s.handleBoard)
	api.GET("/matrix", s.handleMatrix)

	api.GET("/planner", s.handlePlanner)
	api.POST("/planner/tasks", s.handleCreatePlannerTask)
	api.PUT("/planner/victory", s.handleSetVictory)

	api.GET("/advice", s.handleAdvice)

	api.GET("/settings/backend", s.handleGetBackend)
	api.PUT("/settings/backend", s.handlePutBackend)
	api.POST("/sync", s.handleSync)
	api.GET("/sync/status", s.handleSyncStatus)

	if s.deps.Jobs != nil {
		api.GET("/jobs", s.handleListJobs)
		api.POST("/jobs/:name/run", s.handleRunJob)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string      `json:"status"`
	Phase  state.Phase `json:"phase"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Phase: s.deps.State.Phase()})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
