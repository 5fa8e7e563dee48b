package service

import (
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/health-advisor-server/internal/domain"
)

func ruleLibrary() *domain.TemplateLibrary {
	lib := domain.NewTemplateLibrary("rules")
	lib.General["glucose"] = []domain.ThresholdRule{
		{Min: 0, Max: 100, Text: "Glucose is in range."},
		{Min: 100.01, Max: 1000, Text: "Glucose of {glucose} is high."},
	}
	lib.General["pulse"] = []domain.ThresholdRule{
		{Min: 60, Max: 100, Text: "Resting pulse looks normal."},
	}
	lib.Disease["Diabetes"] = []domain.ThresholdRule{
		{Min: 0, Max: 50, Text: "Diabetes risk is low."},
		{Min: 51, Max: 100, Text: "Diabetes risk is elevated."},
	}
	lib.Disease["Heart Disease"] = []domain.ThresholdRule{
		{Min: 0, Max: 100, Text: "Resting pulse looks normal."},
		{Min: 0, Max: 100, Text: "Heart risk is {Heart Disease}%."},
	}
	lib.OverallRules = []domain.ThresholdRule{
		{Min: 0, Max: 100, Text: "Overall risk is {Overall}%."},
	}
	return lib
}

func TestThresholdAssembler_Assemble(t *testing.T) {
	logger, _ := test.NewNullLogger()
	assembler := NewThresholdAssembler(logger)

	tests := []struct {
		name     string
		v        domain.VitalReading
		r        domain.RiskScoreMap
		expected []string
	}{
		{
			name:     "Empty input",
			v:        domain.NewVitalReading(),
			r:        domain.RiskScoreMap{},
			expected: []string{},
		},
		{
			name: "High glucose with scored diabetes",
			v:    reading("", map[domain.VitalKey]float64{domain.Glucose: 150}),
			r:    domain.RiskScoreMap{"Diabetes": 45},
			expected: []string{
				"Glucose of 150 is high.",
				"Diabetes risk is low.",
				"Overall risk is 45%.",
			},
		},
		{
			name: "Used text falls through to the next rule",
			v:    reading("", map[domain.VitalKey]float64{domain.Pulse: 72}),
			r:    domain.RiskScoreMap{"Heart Disease": 12, "Diabetes": 70},
			expected: []string{
				"Resting pulse looks normal.",
				"Heart risk is 12%.",
				"Diabetes risk is elevated.",
				"Overall risk is 41%.",
			},
		},
		{
			name:     "Value outside every range",
			v:        reading("", map[domain.VitalKey]float64{domain.Pulse: 130}),
			r:        domain.RiskScoreMap{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advice := assembler.Assemble(tt.v, tt.r, ruleLibrary(), rand.New(rand.NewSource(9)))
			assert.Equal(t, tt.expected, advice)
		})
	}
}

func TestThresholdAssembler_Name(t *testing.T) {
	logger, _ := test.NewNullLogger()
	assert.Equal(t, domain.StrategyThreshold, NewThresholdAssembler(logger).Name())
	assert.Equal(t, domain.StrategyProportional, NewProportionalAssembler(logger).Name())
}
