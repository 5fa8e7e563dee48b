package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/health-advisor-server/internal/api"
	"github.com/health-advisor-server/internal/config"
	"github.com/health-advisor-server/internal/document"
	"github.com/health-advisor-server/internal/logging"
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
	logger := logging.New(cfg.Logging)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader, closeLoader := templates.NewConfiguredLoader(ctx, logger, cfg.Library)
	defer closeLoader()

	advisor := service.NewAdvisorService(logger, cfg.Advice, loader)
	server := api.NewServer(configManager, logger, advisor, document.NewDecoder(logger))

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithField("environment", cfg.Environment).
		WithField("strategy", cfg.Advice.Strategy).
		Infof("Starting health advisor on %s:%d", cfg.Server.Host, cfg.Server.Port)

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
