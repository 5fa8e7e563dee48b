package domain

import (
	"context"
	"io"
	"math/rand"
)

// FieldExtractor turns decoded document text into a vital reading
type FieldExtractor interface {
	Extract(rawText string) VitalReading
}

// RiskScorer turns a vital reading into clamped per-condition scores plus Overall
type RiskScorer interface {
	Score(v VitalReading) RiskScoreMap
	Evaluate(v VitalReading) *RiskAssessment
}

// LibraryLoader loads and validates a template library from a file path or URL
type LibraryLoader interface {
	Load(ctx context.Context, source string) (*TemplateLibrary, error)
}

// Assembler builds the ordered advice narrative. The rng is owned by the call.
type Assembler interface {
	Name() string
	Assemble(v VitalReading, r RiskScoreMap, lib *TemplateLibrary, rng *rand.Rand) []string
}

// DocumentDecoder turns an uploaded document into plain text
type DocumentDecoder interface {
	Decode(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetAdviceConfig() *AdviceConfig
	GetLibraryConfig() *LibraryConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
