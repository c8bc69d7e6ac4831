package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/wikiart/pkg/metrics"
)

// Server is the API server for the wikiart system
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
func NewServer(config Config, logger *slog.Logger) (*Server, error) {
	if config.Searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if config.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if config.Sessions == nil {
		return nil, errors.New("session registry is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	app.Use(metrics.Middleware())

	app.Get("/ping", s.handlePing)
	app.Get("/metrics", metrics.Handler())

	v1 := app.Group("/v1")
	v1.Get("/status", s.handleStatus)
	v1.Get("/search", s.handleSearchEndpoint)
	v1.Post("/index/rebuild", s.handleRebuild)

	v1.Post("/sessions", s.handleCreateSession)
	v1.Get("/sessions", s.handleListSessions)
	v1.Get("/sessions/:id", s.handleGetSession)
	v1.Delete("/sessions/:id", s.handleDeleteSession)
	v1.Post("/sessions/:id/messages", s.handlePostMessage)
	v1.Get("/sessions/:id/transcript", s.handleTranscript)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// App exposes the fiber app, e.g. for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
