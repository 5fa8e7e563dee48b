package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-advisor-server/internal/domain"
)

// RandSource produces the random source owned by a single assembly call
type RandSource func() *rand.Rand

// TimeSeededRand returns a source seeded from the wall clock
func TimeSeededRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// SeededRand returns a RandSource that always starts from seed
func SeededRand(seed int64) RandSource {
	return func() *rand.Rand {
		return rand.New(rand.NewSource(seed))
	}
}

// AnalyzeRequest carries explicit form values and/or raw document text
type AnalyzeRequest struct {
	Vitals domain.VitalReading `json:"data"`
	Text   string              `json:"text,omitempty"`
}

// AnalyzeResult is the outcome of the full pipeline
type AnalyzeResult struct {
	Vitals        domain.VitalReading       `json:"vitals"`
	RiskScores    domain.RiskScoreMap       `json:"riskScores"`
	Contributions []domain.RuleContribution `json:"contributions"`
	Advice        []string                  `json:"advice"`
	Summary       string                    `json:"summary"`
	Strategy      string                    `json:"strategy"`
}

// AdviceOptions overrides the configured library and strategy for one call
type AdviceOptions struct {
	LibrarySource string
	Strategy      string
}

// AdvisorService orchestrates extraction, scoring and advice assembly
type AdvisorService struct {
	logger     *logrus.Logger
	extractor  domain.FieldExtractor
	scorer     domain.RiskScorer
	loader     domain.LibraryLoader
	assemblers map[string]domain.Assembler
	config     domain.AdviceConfig
	newRand    RandSource
}

// NewAdvisorService creates a new advisor with both assembly strategies registered
func NewAdvisorService(logger *logrus.Logger, cfg domain.AdviceConfig, loader domain.LibraryLoader) *AdvisorService {
	if cfg.Strategy == "" {
		cfg.Strategy = domain.StrategyProportional
	}
	s := &AdvisorService{
		logger:     logger,
		extractor:  NewTextExtractor(logger),
		scorer:     NewRiskRuleEngine(logger),
		loader:     loader,
		assemblers: make(map[string]domain.Assembler),
		config:     cfg,
		newRand:    TimeSeededRand,
	}
	s.RegisterAssembler(NewProportionalAssembler(logger))
	s.RegisterAssembler(NewThresholdAssembler(logger))
	return s
}

// WithRandSource replaces the per-call random source factory
func (s *AdvisorService) WithRandSource(src RandSource) *AdvisorService {
	s.newRand = src
	return s
}

// RegisterAssembler adds or replaces a strategy under its name
func (s *AdvisorService) RegisterAssembler(a domain.Assembler) {
	s.assemblers[a.Name()] = a
}

// Strategies lists the registered strategy names
func (s *AdvisorService) Strategies() []string {
	names := make([]string, 0, len(s.assemblers))
	for name := range s.assemblers {
		names = append(names, name)
	}
	return names
}

// Extract runs the field extractor over raw text
func (s *AdvisorService) Extract(text string) domain.VitalReading {
	return s.extractor.Extract(text)
}

// Score derives BMI when possible and evaluates every risk rule
func (s *AdvisorService) Score(v domain.VitalReading) (domain.VitalReading, *domain.RiskAssessment) {
	derived := v.WithDerivedBMI()
	return derived, s.scorer.Evaluate(derived)
}

// Analyze runs the whole pipeline. Values extracted from text only fill keys
// that were not supplied explicitly.
func (s *AdvisorService) Analyze(ctx context.Context, req AnalyzeRequest, opts AdviceOptions) (*AnalyzeResult, error) {
	startTime := time.Now()

	vitals := req.Vitals.Clone()
	if strings.TrimSpace(req.Text) != "" {
		vitals = vitals.Merge(s.extractor.Extract(req.Text))
	}

	vitals, assessment := s.Score(vitals)

	advice, strategy, err := s.assemble(ctx, vitals, assessment.Scores, opts)
	if err != nil {
		return nil, fmt.Errorf("analyzing vitals: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"vitals":    len(vitals.Values),
		"sentences": len(advice),
		"strategy":  strategy,
		"duration":  time.Since(startTime).String(),
	}).Info("Completed health analysis")

	return &AnalyzeResult{
		Vitals:        vitals,
		RiskScores:    assessment.Scores,
		Contributions: assessment.Contributions,
		Advice:        advice,
		Summary:       domain.Summary(vitals, assessment.Scores),
		Strategy:      strategy,
	}, nil
}

// CustomAdvice assembles advice for caller-supplied vitals and risk scores.
// Supplied scores are clamped; Overall is always recomputed.
func (s *AdvisorService) CustomAdvice(ctx context.Context, v domain.VitalReading, r domain.RiskScoreMap) ([]string, error) {
	scores := make(domain.RiskScoreMap, len(r))
	for k, score := range r {
		if k == domain.OverallKey {
			continue
		}
		scores[k] = domain.ClampScore(score)
	}

	advice, _, err := s.assemble(ctx, v, scores, AdviceOptions{})
	if err != nil {
		return nil, fmt.Errorf("building custom advice: %w", err)
	}
	return advice, nil
}

func (s *AdvisorService) assemble(ctx context.Context, v domain.VitalReading, r domain.RiskScoreMap, opts AdviceOptions) ([]string, string, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = s.config.Strategy
	}
	assembler, ok := s.assemblers[strategy]
	if !ok {
		return nil, "", domain.NewValidationError("strategy", "unknown advice strategy", strategy)
	}

	source := opts.LibrarySource
	if source == "" {
		source = s.config.LibraryPath
	}
	lib, err := s.loader.Load(ctx, source)
	if err != nil {
		s.logger.WithError(err).WithField("source", source).Error("Failed to load template library")
		return nil, "", err
	}

	return assembler.Assemble(v, r, lib, s.newRand()), strategy, nil
}
