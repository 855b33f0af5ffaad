package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ssparihar/essayflow/core/client"
	"github.com/ssparihar/essayflow/patterns/evaluate"
	"github.com/ssparihar/essayflow/providers/history"
)

// Config collects the dependencies a Server needs. Client and Store are
// required; a nil Logger disables logging.
type Config struct {
	// Client performs all model calls.
	Client *client.Client

	// Store persists conversations.
	Store history.Store

	// Logger receives request and persistence events.
	Logger *slog.Logger
}

// Server is the HTTP surface over the chat client and conversation store.
type Server struct {
	app       *fiber.App
	chat      *client.Client
	evaluator *evaluate.Evaluator
	store     history.Store
	logger    *slog.Logger
}

// New assembles the Fiber application and its routes.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "essayflow",
			DisableStartupMessage: true,
		}),
		chat:      config.Client,
		evaluator: evaluate.New(config.Client, evaluate.WithLogger(logger)),
		store:     config.Store,
		logger:    logger,
	}

	server.registerRoutes()
	return server
}

// App returns the underlying Fiber application, used by tests and by
// callers embedding the server behind their own listener.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on the given address and blocks.
func (s *Server) Listen(address string) error {
	s.logger.Info("server listening", "address", address)
	return s.app.Listen(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Post("/chat", s.handleChat)
	api.Post("/evaluate", s.handleEvaluate)

	api.Get("/conversations", s.handleListConversations)
	api.Post("/conversations", s.handleCreateConversation)
	api.Delete("/conversations", s.handleClearConversations)
	api.Get("/conversations/:id", s.handleGetConversation)
	api.Delete("/conversations/:id", s.handleDeleteConversation)
	api.Get("/conversations/:id/transcript", s.handleTranscript)
	api.Post("/conversations/:id/regenerate", s.handleRegenerate)

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
