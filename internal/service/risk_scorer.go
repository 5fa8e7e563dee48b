package service

import (
	"github.com/sirupsen/logrus"

	"github.com/health-advisor-server/internal/domain"
)

// RiskRuleEngine implements domain.RiskScorer as a set of additive scoring rules.
// Each rule contributes points to one condition; a condition's raw total is
// rounded half up and clamped to [0,100].
type RiskRuleEngine struct {
	logger *logrus.Logger
	rules  []*RiskRule
}

// RiskRule represents a single additive scoring rule
type RiskRule struct {
	Code        string
	Condition   domain.Condition
	Description string
	// Evaluator returns the points the rule adds and whether it applied
	Evaluator func(v domain.VitalReading) (float64, bool)
}

// NewRiskRuleEngine creates a new risk rule engine
func NewRiskRuleEngine(logger *logrus.Logger) *RiskRuleEngine {
	engine := &RiskRuleEngine{logger: logger}
	engine.initializeRules()
	return engine
}

// Score returns the clamped condition scores plus the synthesized Overall
func (e *RiskRuleEngine) Score(v domain.VitalReading) domain.RiskScoreMap {
	return e.Evaluate(v).Scores
}

// Evaluate runs every rule against the reading and returns scores along with the
// rules that fired. Every condition is always present in the result.
func (e *RiskRuleEngine) Evaluate(v domain.VitalReading) *domain.RiskAssessment {
	raw := make(map[domain.Condition]float64, len(domain.Conditions()))
	contributions := make([]domain.RuleContribution, 0)

	for _, rule := range e.rules {
		points, applied := rule.Evaluator(v)
		if !applied {
			continue
		}
		raw[rule.Condition] += points
		contributions = append(contributions, domain.RuleContribution{
			Condition:   rule.Condition,
			Code:        rule.Code,
			Description: rule.Description,
			Points:      domain.RoundTo(points, 2),
		})
	}

	scores := make(domain.RiskScoreMap, len(domain.Conditions())+1)
	for _, c := range domain.Conditions() {
		scores[string(c)] = domain.ClampScore(domain.RoundHalfUp(raw[c]))
	}
	scores = scores.WithOverall()

	e.logger.WithFields(logrus.Fields{
		"vitals":        len(v.Values),
		"applied_rules": len(contributions),
		"heart_disease": scores[string(domain.HeartDisease)],
		"diabetes":      scores[string(domain.Diabetes)],
		"obesity":       scores[string(domain.Obesity)],
		"overall":       scores[domain.OverallKey],
	}).Debug("Completed risk evaluation")

	return &domain.RiskAssessment{Scores: scores, Contributions: contributions}
}

// Rules returns the registered rules in evaluation order
func (e *RiskRuleEngine) Rules() []*RiskRule {
	return e.rules
}

// excess returns how far the vital exceeds limit, if it is present and above it
func excess(v domain.VitalReading, key domain.VitalKey, limit float64) (float64, bool) {
	val, ok := v.Get(key)
	if !ok || val <= limit {
		return 0, false
	}
	return val - limit, true
}

func (e *RiskRuleEngine) initializeRules() {
	e.rules = []*RiskRule{
		{
			Code:        "HD_SYSTOLIC",
			Condition:   domain.HeartDisease,
			Description: "Systolic pressure above 120 mmHg adds 0.8 per mmHg",
			Evaluator: func(v domain.VitalReading) (float64, bool) {
				over, ok := excess(v, domain.Systolic, 120)
				return over * 0.8, ok
			},
		},
		{
			Code:        "HD_CHOLESTEROL",
			Condition:   domain.HeartDisease,
			Description: "Cholesterol above 200 mg/dL adds 0.5 per mg/dL for men, 0.4 otherwise",
			Evaluator: func(v domain.VitalReading) (float64, bool) {
				over, ok := excess(v, domain.Cholesterol, 200)
				if !ok {
					return 0, false
				}
				if v.IsMale() {
					return over * 0.5, true
				}
				return over * 0.4, true
			},
		},
		{
			Code:        "HD_CRP",
			Condition:   domain.HeartDisease,
			Description: "CRP above 10 mg/L adds 10",
			Evaluator: func(v domain.VitalReading) (float64, bool) {
				_, ok := excess(v, domain.CRP, 10)
				return 10, ok
			},
		},
		{
			Code:        "HD_PULSE",
			Condition:   domain.HeartDisease,
			Description: "Pulse below 60 or above 100 bpm adds 8",
			Evaluator: func(v domain.VitalReading) (float64, bool) {
				pulse, ok := v.Get(domain.Pulse)
				if !ok {
					return 0, false
				}
				return 8, pulse < 60 || pulse > 100
			},
		},
		{
			Code:        "DM_GLUCOSE",
			Condition:   domain.Diabetes,
			Description: "Glucose above 100 mg/dL adds 0.7 per mg/dL",
			Evaluator: func(v domain.VitalReading) (float64, bool) {
				over, ok := excess(v, domain.Glucose, 100)
				return over * 0.7, ok
			},
		},
		{
			Code:        "DM_AGE",
			Condition:   domain.Diabetes,
			Description: "Age above 45 adds 10",
			Evaluator: func(v domain.VitalReading) (float64, bool) {
				_, ok := excess(v, domain.Age, 45)
				return 10, ok
			},
		},
		{
			Code:        "OB_BMI",
			Condition:   domain.Obesity,
			Description: "BMI of 25 or more adds 3 per point above 24.9",
			Evaluator: func(v domain.VitalReading) (float64, bool) {
				bmi, ok := v.Get(domain.BMI)
				if !ok || bmi < 25 {
					return 0, false
				}
				return (bmi - 24.9) * 3, true
			},
		},
		{
			Code:        "OB_WAIST",
			Condition:   domain.Obesity,
			Description: "Waist above 102 cm for men or 88 cm otherwise adds 15",
			Evaluator: func(v domain.VitalReading) (float64, bool) {
				_, ok := excess(v, domain.Waist, WaistLimit(v))
				return 15, ok
			},
		},
	}
}

// WaistLimit returns the gender-specific waist circumference limit in cm
func WaistLimit(v domain.VitalReading) float64 {
	if v.IsMale() {
		return 102
	}
	return 88
}
