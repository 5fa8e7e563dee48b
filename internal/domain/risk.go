package domain

import (
	"fmt"
	"strings"
)

// Condition names a scored health condition
type Condition string

const (
	HeartDisease Condition = "Heart Disease"
	Diabetes     Condition = "Diabetes"
	Obesity      Condition = "Obesity"
)

// OverallKey is the synthesized mean of the condition scores. It is also a
// template subject and a placeholder name.
const OverallKey = "Overall"

// Conditions returns the scored conditions in reporting order
func Conditions() []Condition {
	return []Condition{HeartDisease, Diabetes, Obesity}
}

// Score bounds
const (
	MinRiskScore = 0
	MaxRiskScore = 100
	// PolarityCutoff separates favorable (<=) from unfavorable risk
	PolarityCutoff = 50
)

// RiskScoreMap maps a condition name (or Overall) to a percentage in [0,100]
type RiskScoreMap map[string]int

// ClampScore bounds a score to [MinRiskScore, MaxRiskScore]
func ClampScore(score int) int {
	if score > MaxRiskScore {
		return MaxRiskScore
	}
	if score < MinRiskScore {
		return MinRiskScore
	}
	return score
}

// Get returns the score for a condition and whether it is present
func (r RiskScoreMap) Get(c Condition) (int, bool) {
	score, ok := r[string(c)]
	return score, ok
}

// Clone returns a copy of the map
func (r RiskScoreMap) Clone() RiskScoreMap {
	out := make(RiskScoreMap, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// OverallScore returns the rounded mean of the condition scores present in the
// map. It returns false when no condition score is present, in which case no
// Overall value should be produced.
func (r RiskScoreMap) OverallScore() (int, bool) {
	sum, count := 0, 0
	for _, c := range Conditions() {
		if score, ok := r.Get(c); ok {
			sum += score
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return RoundHalfUp(float64(sum) / float64(count)), true
}

// WithOverall returns a copy carrying the computed Overall score. Any Overall
// value already present is replaced; it is never taken from input.
func (r RiskScoreMap) WithOverall() RiskScoreMap {
	out := r.Clone()
	delete(out, OverallKey)
	if overall, ok := r.OverallScore(); ok {
		out[OverallKey] = overall
	}
	return out
}

// Lookup resolves a placeholder name against the scores
func (r RiskScoreMap) Lookup(name string) (string, bool) {
	score, ok := r[name]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d", score), true
}

// RuleContribution records what one scoring rule added to a condition
type RuleContribution struct {
	Condition   Condition `json:"condition"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Points      float64   `json:"points"`
}

// RiskAssessment is the scorer's full output: clamped scores plus the rules that fired
type RiskAssessment struct {
	Scores        RiskScoreMap       `json:"riskScores"`
	Contributions []RuleContribution `json:"contributions"`
}

// Summary renders the one-line textual summary of a reading and its scores
func Summary(v VitalReading, r RiskScoreMap) string {
	parts := []string{}
	if v.Gender != "" {
		parts = append(parts, fmt.Sprintf("Gender: %s", v.Gender))
	}
	if age, ok := v.Get(Age); ok {
		parts = append(parts, fmt.Sprintf("Age: %s", FormatNumber(age)))
	}
	if bmi, ok := v.Get(BMI); ok {
		parts = append(parts, fmt.Sprintf("BMI: %s", FormatNumber(bmi)))
	}
	sys, hasSys := v.Get(Systolic)
	dia, hasDia := v.Get(Diastolic)
	if hasSys && hasDia {
		parts = append(parts, fmt.Sprintf("BP: %s/%s mmHg", FormatNumber(sys), FormatNumber(dia)))
	}

	labelled := []struct {
		key   VitalKey
		label string
		unit  string
	}{
		{Glucose, "Glucose", "mg/dL"},
		{Cholesterol, "Cholesterol", "mg/dL"},
		{Pulse, "Pulse", "bpm"},
		{Waist, "Waist", "cm"},
		{CRP, "CRP", "mg/L"},
		{Temperature, "Temp", "°C"},
		{Workout, "Workout", "min/day"},
	}
	for _, l := range labelled {
		if val, ok := v.Get(l.key); ok {
			parts = append(parts, fmt.Sprintf("%s: %s %s", l.label, FormatNumber(val), l.unit))
		}
	}

	for _, c := range Conditions() {
		if score, ok := r.Get(c); ok {
			parts = append(parts, fmt.Sprintf("%s risk: %d%%", c, score))
		}
	}
	if overall, ok := r[OverallKey]; ok {
		parts = append(parts, fmt.Sprintf("%s risk: %d%%", OverallKey, overall))
	}
	return strings.Join(parts, "; ")
}
