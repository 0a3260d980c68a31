package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docembed/internal/config"
	"docembed/internal/embedding"
	"docembed/internal/service"
)

// EmbedPort is the subset of the embedding service the HTTP API needs.
type EmbedPort interface {
	Embed(ctx context.Context, req service.Request) (*service.Response, error)
	Providers() []embedding.ModuleInfo
}

// Server represents the HTTP server
type Server struct {
	config  config.ServerConfig
	router  *gin.Engine
	service EmbedPort
	logger  *slog.Logger
	server  *http.Server
}

// New creates a new server instance with its routes set up.
func New(cfg config.ServerConfig, svc EmbedPort, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{config: cfg, service: svc, logger: logger}
	s.setup()
	return s
}

func (s *Server) setup() {
	if s.config.Mode != "" {
		gin.SetMode(s.config.Mode)
	}

	s.router = gin.New()
	s.router.Use(requestLogger(s.logger))
	s.router.Use(gin.Recovery())

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) setupRoutes() {
	h := newHandler(s.service)

	s.router.GET("/health", h.health)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/providers", h.providers)
		v1.POST("/embeddings", h.embed)
	}
}

// Handler returns the configured router, for use with httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Stop is called. It returns nil after a graceful stop.
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	return s.server.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
