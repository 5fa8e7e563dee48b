package service

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/health-advisor-server/internal/domain"
)

// Vital tier pacing: the tier is trimmed to a random size in [minVitalSentences, maxVitalSentences]
const (
	minVitalSentences = 4
	maxVitalSentences = 7
)

// healthyThresholds are the upper bounds of a favorable reading. hdl is the
// exception: it is favorable at or above its threshold.
var healthyThresholds = map[domain.VitalKey]float64{
	domain.Glucose:       100,
	domain.Cholesterol:   200,
	domain.LDL:           100,
	domain.HDL:           60,
	domain.Triglycerides: 150,
	domain.CRP:           3,
	domain.Systolic:      120,
	domain.Diastolic:     80,
}

// VitalPolarity classifies a vital value as favorable or unfavorable. Keys with
// no healthy threshold are always favorable.
func VitalPolarity(v domain.VitalReading, key domain.VitalKey, value float64) domain.Polarity {
	var favorable bool
	switch key {
	case domain.Waist:
		favorable = value <= WaistLimit(v)
	case domain.HDL:
		favorable = value >= healthyThresholds[domain.HDL]
	default:
		limit, ok := healthyThresholds[key]
		favorable = !ok || value <= limit
	}
	if favorable {
		return domain.Positive
	}
	return domain.Negative
}

// RiskPolarity classifies a risk percentage; PolarityCutoff and below is favorable
func RiskPolarity(risk int) domain.Polarity {
	if risk <= domain.PolarityCutoff {
		return domain.Positive
	}
	return domain.Negative
}

// ProportionalIndex maps a risk percentage linearly onto a bucket of length n.
// The favorable half spans 0..50 and the unfavorable half 50..100, so higher
// risk never selects an earlier template within the same half.
func ProportionalIndex(risk, n int) int {
	if n <= 0 {
		return -1
	}
	var ratio float64
	if RiskPolarity(risk) == domain.Positive {
		ratio = float64(risk) / 50
	} else {
		ratio = float64(risk-50) / 50
	}
	idx := int(math.Floor(ratio * float64(n)))
	if idx > n-1 {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// conditionsToNarrate returns the conditions that get a disease-tier sentence.
// With no condition scored at all the tier is empty; otherwise every condition
// is narrated and an absent score counts as 0.
func conditionsToNarrate(scores domain.RiskScoreMap) []domain.Condition {
	if _, ok := scores.OverallScore(); !ok {
		return nil
	}
	return domain.Conditions()
}

// paceVitals shuffles the produced vital sentences and keeps a random number of
// them between minVitalSentences and maxVitalSentences.
func paceVitals(sentences []string, rng *rand.Rand) []string {
	limit := minVitalSentences + rng.Intn(maxVitalSentences-minVitalSentences+1)
	if limit > len(sentences) {
		limit = len(sentences)
	}
	out := make([]string, 0, limit)
	for _, i := range rng.Perm(len(sentences))[:limit] {
		out = append(out, sentences[i])
	}
	return out
}

// ProportionalAssembler implements domain.Assembler using polarity buckets: a
// uniform pick per vital, a risk-proportional pick per condition and a uniform
// pick for the overall score.
type ProportionalAssembler struct {
	logger *logrus.Logger
}

// NewProportionalAssembler creates a new bucket-based assembler
func NewProportionalAssembler(logger *logrus.Logger) *ProportionalAssembler {
	return &ProportionalAssembler{logger: logger}
}

// Name identifies the strategy in configuration
func (a *ProportionalAssembler) Name() string {
	return domain.StrategyProportional
}

// Assemble builds the narrative: vital sentences, then one per condition, then
// the overall sentence. Missing subjects and empty buckets are skipped.
func (a *ProportionalAssembler) Assemble(v domain.VitalReading, r domain.RiskScoreMap, lib *domain.TemplateLibrary, rng *rand.Rand) []string {
	used := make(usedTemplates)
	scores := r.WithOverall()

	vitals := make([]string, 0)
	for _, key := range domain.VitalKeys() {
		value, ok := v.Get(key)
		if !ok || !lib.HasSubject(string(key)) {
			continue
		}
		polarity := VitalPolarity(v, key, value)
		candidates := used.unused(lib.Bucket(string(key), polarity))
		if len(candidates) == 0 {
			a.logger.WithFields(logrus.Fields{
				"subject":  key,
				"polarity": polarity,
			}).Debug("No template available for vital")
			continue
		}
		tpl := candidates[rng.Intn(len(candidates))]
		used.mark(tpl)
		vitals = append(vitals, ResolvePlaceholders(tpl, v, scores))
	}
	sentences := paceVitals(vitals, rng)

	for _, c := range conditionsToNarrate(scores) {
		risk, _ := scores.Get(c)
		polarity := RiskPolarity(risk)
		bucket := lib.Bucket(string(c), polarity)
		idx := ProportionalIndex(risk, len(bucket))
		if idx < 0 || used.has(bucket[idx]) {
			a.logger.WithFields(logrus.Fields{
				"subject":  c,
				"polarity": polarity,
			}).Debug("No template available for condition")
			continue
		}
		used.mark(bucket[idx])
		sentences = append(sentences, ResolvePlaceholders(bucket[idx], v, scores))
	}

	if overall, ok := scores[domain.OverallKey]; ok {
		candidates := used.unused(lib.Bucket(domain.OverallKey, RiskPolarity(overall)))
		if len(candidates) > 0 {
			tpl := candidates[rng.Intn(len(candidates))]
			used.mark(tpl)
			sentences = append(sentences, ResolvePlaceholders(tpl, v, scores))
		}
	}

	a.logger.WithFields(logrus.Fields{
		"strategy":        a.Name(),
		"vital_sentences": len(vitals),
		"total":           len(sentences),
	}).Debug("Assembled advice")

	return sentences
}
