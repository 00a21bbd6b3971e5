package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/devhub-agent/config"
	"github.com/ngenohkevin/devhub-agent/internal/app"
	"github.com/ngenohkevin/devhub-agent/internal/logger"
)

// Server represents the HTTP server
type Server struct {
	cfg           *config.Config
	log           *logger.Logger
	router        *gin.Engine
	handlers      *Handlers
	setupHandlers *SetupHandlers
	auth          *AuthService
	limiter       *RateLimiter
	httpServer    *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, a *app.App, log *logger.Logger, version string) *Server {
	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	auth := NewAuthService(cfg.APIKey, cfg.JWTSecret)

	s := &Server{
		cfg:           cfg,
		log:           log,
		router:        router,
		handlers:      NewHandlers(cfg, a, log.Named("http"), version),
		setupHandlers: NewSetupHandlers(cfg, a, auth),
		auth:          auth,
		limiter:       NewRateLimiter(cfg.RateLimitRPS, nil),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(RecoveryMiddleware(s.log))
	s.router.Use(LoggerMiddleware(s.log.Named("access")))
	s.router.Use(CORSMiddleware(s.cfg.AllowedOrigins))
	s.router.Use(RateLimitMiddleware(s.limiter))
}

func (s *Server) setupRoutes() {
	// Health check (no auth)
	s.router.GET("/health", s.handlers.HealthCheck)

	// Setup routes (no auth required in setup mode)
	if s.cfg.SetupMode {
		setup := s.router.Group("/setup")
		{
			setup.POST("/generate", s.setupHandlers.GenerateKey)
			setup.POST("/save", s.setupHandlers.SaveKey)
		}
	}

	// API routes (require auth)
	api := s.router.Group("/api")
	api.Use(AuthMiddleware(s.auth), WriteAccessMiddleware())
	{
		api.GET("/info", s.handlers.GetInfo)

		// Tasks
		api.GET("/tasks", s.handlers.ListTasks)
		api.GET("/tasks/stats", s.handlers.TaskStats)
		api.GET("/tasks/:id", s.handlers.GetTask)
		api.POST("/tasks", s.handlers.CreateTask)
		api.PATCH("/tasks/:id", s.handlers.UpdateTask)
		api.DELETE("/tasks/:id", s.handlers.DeleteTask)

		// Terminal
		api.GET("/terminal", s.handlers.GetTerminal)
		api.POST("/terminal/commands", s.handlers.SubmitCommand)
		api.POST("/terminal/cancel", s.handlers.CancelCommand)
		api.POST("/terminal/recall", s.handlers.RecallCommand)
		api.DELETE("/terminal/history", s.handlers.ClearHistory)
		api.GET("/terminal/quick-commands", s.handlers.QuickCommands)

		// Notifications
		api.GET("/notifications", s.handlers.ListNotifications)
		api.POST("/notifications/:id/read", s.handlers.MarkNotificationRead)
		api.DELETE("/notifications", s.handlers.ClearNotifications)

		// Real-time events (SSE)
		api.GET("/events", s.handlers.StreamEvents)

		// Settings
		api.GET("/settings", s.setupHandlers.GetSettings)
		api.PUT("/settings", s.setupHandlers.UpdateSettings)
		api.POST("/settings/generate-key", s.setupHandlers.GenerateKey)
		api.POST("/settings/api-key", s.setupHandlers.SaveKey)
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go s.pruneLimiter(ctx)

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Errorw("server forced to shutdown", "error", err)
		}
	}()

	if s.cfg.SetupMode {
		s.log.Warnw("no API key configured, setup mode enabled", "setup", "/setup/generate")
	}
	s.log.Infow("starting DevHub agent", "addr", s.cfg.Addr())

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Clean up
	if err := s.handlers.Close(); err != nil {
		s.log.Errorw("error closing handlers", "error", err)
	}

	s.log.Info("server stopped")
	return nil
}

func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Prune()
		}
	}
}

// Router returns the Gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
