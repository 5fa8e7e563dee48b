package service

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/health-advisor-server/internal/domain"
)

// ThresholdAssembler implements domain.Assembler using the library's range rules.
// For each subject the first rule whose closed [min, max] range contains the
// value, and whose text has not been used in this call, supplies the sentence.
type ThresholdAssembler struct {
	logger *logrus.Logger
}

// NewThresholdAssembler creates a new rule-list assembler
func NewThresholdAssembler(logger *logrus.Logger) *ThresholdAssembler {
	return &ThresholdAssembler{logger: logger}
}

// Name identifies the strategy in configuration
func (a *ThresholdAssembler) Name() string {
	return domain.StrategyThreshold
}

// Assemble builds the narrative from general, disease and overall rules
func (a *ThresholdAssembler) Assemble(v domain.VitalReading, r domain.RiskScoreMap, lib *domain.TemplateLibrary, rng *rand.Rand) []string {
	used := make(usedTemplates)
	scores := r.WithOverall()

	vitals := make([]string, 0)
	for _, key := range domain.VitalKeys() {
		value, ok := v.Get(key)
		if !ok {
			continue
		}
		if text, found := firstMatch(lib.GeneralRules(key), value, used); found {
			vitals = append(vitals, ResolvePlaceholders(text, v, scores))
		}
	}
	sentences := paceVitals(vitals, rng)

	for _, c := range domain.Conditions() {
		risk, ok := scores.Get(c)
		if !ok {
			continue
		}
		if text, found := firstMatch(lib.DiseaseRules(c), float64(risk), used); found {
			sentences = append(sentences, ResolvePlaceholders(text, v, scores))
		}
	}

	if overall, ok := scores[domain.OverallKey]; ok && lib != nil {
		if text, found := firstMatch(lib.OverallRules, float64(overall), used); found {
			sentences = append(sentences, ResolvePlaceholders(text, v, scores))
		}
	}

	a.logger.WithFields(logrus.Fields{
		"strategy":        a.Name(),
		"vital_sentences": len(vitals),
		"total":           len(sentences),
	}).Debug("Assembled advice")

	return sentences
}

// firstMatch returns the first unused rule text whose range contains value and
// marks it used
func firstMatch(rules []domain.ThresholdRule, value float64, used usedTemplates) (string, bool) {
	for _, rule := range rules {
		if rule.Matches(value) && !used.has(rule.Text) {
			used.mark(rule.Text)
			return rule.Text, true
		}
	}
	return "", false
}
