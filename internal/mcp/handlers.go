package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/health-advisor-server/internal/domain"
	"github.com/health-advisor-server/internal/service"
)

// Tool names
const (
	ToolExtractVitals  = "extract_vitals"
	ToolScoreRisk      = "score_risk"
	ToolGenerateAdvice = "generate_advice"
)

// ToolNames lists the registered tools in registration order
func ToolNames() []string {
	return []string{ToolExtractVitals, ToolScoreRisk, ToolGenerateAdvice}
}

// ExtractVitalsParams defines parameters for extract_vitals tool
type ExtractVitalsParams struct {
	Text string `json:"text" jsonschema:"free text to scan for vital signs"`
}

// ScoreRiskParams defines parameters for score_risk tool. Data is a map of
// vital names to numbers plus an optional gender; Text is extracted and
// filled in underneath it.
type ScoreRiskParams struct {
	Data map[string]any `json:"data,omitempty" jsonschema:"vital values keyed by name, e.g. glucose or systolic"`
	Text string         `json:"text,omitempty" jsonschema:"optional free text to extract vitals from"`
}

// ScoreRiskResult defines the result structure for score_risk tool
type ScoreRiskResult struct {
	Vitals        domain.VitalReading       `json:"vitals"`
	RiskScores    domain.RiskScoreMap       `json:"riskScores"`
	Contributions []domain.RuleContribution `json:"contributions"`
}

// GenerateAdviceParams defines parameters for generate_advice tool
type GenerateAdviceParams struct {
	Data       map[string]any `json:"data,omitempty" jsonschema:"vital values keyed by name"`
	Text       string         `json:"text,omitempty" jsonschema:"optional free text to extract vitals from"`
	RiskScores map[string]int `json:"riskScores,omitempty" jsonschema:"precomputed risk scores; when present no scoring is done"`
	Strategy   string         `json:"strategy,omitempty" jsonschema:"proportional or threshold"`
	Library    string         `json:"library,omitempty" jsonschema:"template library path or URL overriding the configured one"`
}

// handleExtractVitals handles the extract_vitals tool invocation
func (s *Server) handleExtractVitals(ctx context.Context, req *mcp.CallToolRequest, params ExtractVitalsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolExtractVitals).Info("Tool invoked")

	vitals := s.advisor.Extract(params.Text)
	return s.jsonResult(map[string]any{"vitals": vitals}), nil, nil
}

// handleScoreRisk handles the score_risk tool invocation
func (s *Server) handleScoreRisk(ctx context.Context, req *mcp.CallToolRequest, params ScoreRiskParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolScoreRisk).Info("Tool invoked")

	vitals, err := toVitals(params.Data)
	if err != nil {
		return s.createErrorResult("Invalid vitals", err), nil, nil
	}
	if params.Text != "" {
		vitals = vitals.Merge(s.advisor.Extract(params.Text))
	}

	scored, assessment := s.advisor.Score(vitals)
	return s.jsonResult(ScoreRiskResult{
		Vitals:        scored,
		RiskScores:    assessment.Scores,
		Contributions: assessment.Contributions,
	}), nil, nil
}

// handleGenerateAdvice handles the generate_advice tool invocation. Supplied
// risk scores take the custom-advice path; otherwise the full pipeline runs.
func (s *Server) handleGenerateAdvice(ctx context.Context, req *mcp.CallToolRequest, params GenerateAdviceParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolGenerateAdvice).Info("Tool invoked")

	vitals, err := toVitals(params.Data)
	if err != nil {
		return s.createErrorResult("Invalid vitals", err), nil, nil
	}

	if len(params.RiskScores) > 0 {
		if params.Text != "" {
			vitals = vitals.Merge(s.advisor.Extract(params.Text))
		}
		advice, err := s.advisor.CustomAdvice(ctx, vitals, domain.RiskScoreMap(params.RiskScores))
		if err != nil {
			return s.createErrorResult("Advice generation failed", err), nil, nil
		}
		return s.jsonResult(map[string]any{"advice": advice}), nil, nil
	}

	result, err := s.advisor.Analyze(ctx, service.AnalyzeRequest{Vitals: vitals, Text: params.Text},
		service.AdviceOptions{LibrarySource: params.Library, Strategy: params.Strategy})
	if err != nil {
		return s.createErrorResult("Advice generation failed", err), nil, nil
	}

	return s.jsonResult(result), nil, nil
}

// toVitals routes a loose tool argument map through the reading's JSON
// decoder so both surfaces validate values the same way
func toVitals(data map[string]any) (domain.VitalReading, error) {
	if len(data) == 0 {
		return domain.NewVitalReading(), nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return domain.VitalReading{}, err
	}

	var vitals domain.VitalReading
	if err := json.Unmarshal(raw, &vitals); err != nil {
		return domain.VitalReading{}, err
	}
	return vitals, nil
}

func (s *Server) jsonResult(v any) *mcp.CallToolResult {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s.createErrorResult("Encoding result failed", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(body)},
		},
	}
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
		s.logger.WithError(err).Warn(message)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
