package http_test

import (
	"context"
	"fmt"
	"time"

	httpserver "github.com/fyrsmithlabs/reflectd/internal/http"
	"go.uber.org/zap"
)

// staticCompleter answers every prompt with the same text. Real servers
// pass a provider-backed llm.Completer instead.
type staticCompleter struct{}

func (staticCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return "A drafted result.", nil
}

// ExampleServer demonstrates how to create and start the HTTP server.
func ExampleServer() {
	// Create logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Configure the server
	cfg := &httpserver.Config{
		Host: "localhost",
		Port: 9090,
	}

	// Create the server over a completion client
	server, err := httpserver.NewServer(staticCompleter{}, logger, cfg)
	if err != nil {
		panic(err)
	}

	// Start server in background
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	fmt.Println("Server started and stopped successfully")
	// Output: Server started and stopped successfully
}
