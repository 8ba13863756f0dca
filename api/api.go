package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/tracememory/api/mcp"
	"github.com/papercomputeco/tracememory/pkg/runtime"
)

// Server is the API server for a single copilot session.
type Server struct {
	config  Config
	session *runtime.Session
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The session is shared with any
// other frontend running in the same process.
func NewServer(config Config, session *runtime.Session, logger *slog.Logger) (*Server, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Copilot: session,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		session: session,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Get("/session", s.handleGetSession)
	v1.Post("/session", s.handleInitSession)
	v1.Post("/session/new", s.handleNewSession)
	v1.Put("/session/min_rating", s.handleSetMinRating)
	v1.Get("/sessions", s.handleListSessions)
	v1.Post("/chat", s.handleChat)
	v1.Get("/messages", s.handleListMessages)
	v1.Delete("/messages", s.handleClearMessages)
	v1.Get("/transcript", s.handleTranscript)
	v1.Get("/facts", s.handleFacts)
	v1.Get("/pins", s.handleListPins)
	v1.Post("/pins", s.handlePin)
	v1.Put("/pins", s.handleEditPin)
	v1.Delete("/pins", s.handleUnpin)
	v1.Get("/diff", s.handleDiff)
	v1.Get("/analytics", s.handleAnalytics)

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}
