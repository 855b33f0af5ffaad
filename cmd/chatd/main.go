// Command chatd serves the chat and essay-evaluation API over HTTP.
//
// Configuration comes from the environment (a .env file is loaded when
// present):
//
//	GROQ_API_KEY            credential for the Groq endpoint
//	GROQ_API_BASE_URL       alternate OpenAI-compatible endpoint (optional)
//	ESSAYFLOW_ADDR          listen address, default ":8080"
//	ESSAYFLOW_HISTORY_FILE  conversation store path, default "chat_history.json"
//	ESSAYFLOW_MODEL         model override (optional)
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/ssparihar/essayflow/core/client"
	"github.com/ssparihar/essayflow/core/client/middleware"
	"github.com/ssparihar/essayflow/providers/ai/groq"
	"github.com/ssparihar/essayflow/providers/history/jsonfile"
	"github.com/ssparihar/essayflow/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if os.Getenv("GROQ_API_KEY") == "" {
		// The provider starts degraded and reports the missing key on the
		// first generation call, so the server still comes up.
		logger.Warn("GROQ_API_KEY is not set, generation requests will fail")
	}

	options := []client.Option{
		client.WithMiddlewares(
			middleware.NewLoggingMiddleware(logger, middleware.LogLevelStandard),
			middleware.NewTimeoutMiddleware(2*time.Minute),
		),
	}
	if model := os.Getenv("ESSAYFLOW_MODEL"); model != "" {
		options = append(options, client.WithDefaultModel(model))
	}

	chatClient, err := client.New(groq.New(), options...)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}

	historyFile := os.Getenv("ESSAYFLOW_HISTORY_FILE")
	if historyFile == "" {
		historyFile = "chat_history.json"
	}

	srv := server.New(server.Config{
		Client: chatClient,
		Store:  jsonfile.New(historyFile),
		Logger: logger,
	})

	address := os.Getenv("ESSAYFLOW_ADDR")
	if address == "" {
		address = ":8080"
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logger.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	if err := srv.Listen(address); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
