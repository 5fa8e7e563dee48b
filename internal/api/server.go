package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/health-advisor-server/internal/domain"
	"github.com/health-advisor-server/internal/middleware"
	"github.com/health-advisor-server/internal/service"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Advisor is the pipeline the HTTP handlers drive
type Advisor interface {
	Extract(text string) domain.VitalReading
	Analyze(ctx context.Context, req service.AnalyzeRequest, opts service.AdviceOptions) (*service.AnalyzeResult, error)
	CustomAdvice(ctx context.Context, v domain.VitalReading, r domain.RiskScoreMap) ([]string, error)
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	advisor       Advisor
	decoder       domain.DocumentDecoder
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, logger *logrus.Logger, advisor Advisor, decoder domain.DocumentDecoder) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if gin.Mode() != gin.TestMode {
		if cfg.Logging.Level == "debug" {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}

	origins := cfg.Server.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.CorrelationIDHeader},
		ExposeHeaders: []string{middleware.CorrelationIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.LimitBodySize(cfg.Server.MaxBodyBytes))
	}
	if cfg.RateLimit.Enabled {
		router.Use(middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst).Middleware())
	}

	server := &Server{
		configManager: configManager,
		logger:        logger,
		advisor:       advisor,
		decoder:       decoder,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Router exposes the handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	// Contract used by the web client
	s.router.POST("/api/custom-advice", s.handleCustomAdvice)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/extract", s.handleExtract)
		v1.POST("/analyze", s.handleAnalyze)
		v1.POST("/documents/analyze", s.handleAnalyzeDocument)
	}
}
