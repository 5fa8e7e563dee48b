package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/health-advisor-server/internal/config"
	"github.com/health-advisor-server/internal/logging"
	"github.com/health-advisor-server/internal/mcp"
	"github.com/health-advisor-server/internal/service"
	"github.com/health-advisor-server/internal/templates"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	// stdout carries the protocol, so logs go to stderr
	logger := logging.NewWithOutput(cfg.Logging, os.Stderr)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader, closeLoader := templates.NewConfiguredLoader(ctx, logger, cfg.Library)
	defer closeLoader()

	advisor := service.NewAdvisorService(logger, cfg.Advice, loader)
	mcpServer := mcp.NewServer(cfg.MCP, logger, advisor)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down MCP server...")
		cancel()
	}()

	if err := mcpServer.Start(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Fatal("MCP server failed")
	}

	logger.Info("Health advisor MCP server stopped")
}
