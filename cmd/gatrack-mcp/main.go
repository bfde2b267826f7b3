package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/gatrack/pkg/mcpsrv"
)

func main() {
	// Set up context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create MCP server with all builtin tools
	// Configuration is loaded from environment variables:
	// - GA_TRACKING_ID: property id, e.g. UA-1234-1 (required before hits are sent)
	// - GA_ENDPOINT: collector URL (default: http://www.google-analytics.com/collect)
	// - GA_REQUEST_METHOD: POST or GET (default: POST)
	// - LOG_LEVEL: debug, info, warn, error (default: info)
	// - LOG_FILE: path to log file (default: stderr only)
	// - etc. (see internal/config for all options)
	server, err := mcpsrv.NewServer(nil)
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}

	// Run the server with stdio transport
	slog.Info("starting gatrack MCP server on stdio")
	runErr := server.Run(ctx)

	// Deliver hits still in flight before exiting
	if err := server.Close(); err != nil {
		slog.Warn("shutdown incomplete", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("server error", "error", runErr)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
