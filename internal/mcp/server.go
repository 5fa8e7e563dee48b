// Package mcp exposes the advisor pipeline as Model Context Protocol tools
// served over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/health-advisor-server/internal/domain"
	"github.com/health-advisor-server/internal/service"
)

// Advisor is the subset of the advisor service the tools drive
type Advisor interface {
	Extract(text string) domain.VitalReading
	Score(v domain.VitalReading) (domain.VitalReading, *domain.RiskAssessment)
	Analyze(ctx context.Context, req service.AnalyzeRequest, opts service.AdviceOptions) (*service.AnalyzeResult, error)
	CustomAdvice(ctx context.Context, v domain.VitalReading, r domain.RiskScoreMap) ([]string, error)
}

// Server represents the health advisor MCP server
type Server struct {
	mcpServer *mcp.Server
	advisor   Advisor
	logger    *logrus.Logger
}

// NewServer creates the MCP server and registers its tools
func NewServer(cfg domain.MCPConfig, logger *logrus.Logger, advisor Advisor) *Server {
	name := cfg.ServerName
	if name == "" {
		name = "health-advisor"
	}
	version := cfg.ServerVersion
	if version == "" {
		version = "1.0.0"
	}

	server := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		advisor:   advisor,
		logger:    logger,
	}
	server.registerTools()

	return server
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolExtractVitals,
		Description: "Extract vital signs and lab values from free text such as a lab report",
	}, s.handleExtractVitals)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolScoreRisk,
		Description: "Compute Heart Disease, Diabetes, Obesity and Overall risk scores (0-100) from vitals",
	}, s.handleScoreRisk)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolGenerateAdvice,
		Description: "Generate personalized advice sentences from vitals, text, or precomputed risk scores",
	}, s.handleGenerateAdvice)

	s.logger.WithField("tool_count", len(ToolNames())).Debug("Registered MCP tools")
}

// Start serves MCP over stdin/stdout until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting health advisor MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}
