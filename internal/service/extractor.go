package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/health-advisor-server/internal/domain"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// numberPattern is the trailing capture shared by every field pattern
const numberPattern = `[^0-9]*([0-9]+(?:\.[0-9]+)?)`

// fieldPattern pairs a vital key with the regexp that finds it
type fieldPattern struct {
	key     domain.VitalKey
	pattern *regexp.Regexp
}

// TextExtractor implements domain.FieldExtractor with one label pattern per vital key.
// Each pattern matches the label, skips any non-digit run and captures the first
// number that follows. The first match in the text wins.
type TextExtractor struct {
	logger   *logrus.Logger
	patterns []fieldPattern
	gender   *regexp.Regexp
}

// NewTextExtractor creates an extractor for the full vital vocabulary
func NewTextExtractor(logger *logrus.Logger) *TextExtractor {
	labels := []struct {
		key   domain.VitalKey
		label string
	}{
		{domain.Glucose, `glucose`},
		{domain.Cholesterol, `(?:total\s+)?cholesterol`},
		{domain.Triglycerides, `triglycerides`},
		{domain.HDL, `\bhdl`},
		{domain.LDL, `\bldl`},
		{domain.Systolic, `systolic`},
		{domain.Diastolic, `diastolic`},
		{domain.Pulse, `pulse`},
		{domain.BMI, `bmi`},
		{domain.CRP, `crp`},
		{domain.Waist, `waist`},
		{domain.Temperature, `temperature`},
		{domain.Workout, `workout`},
		{domain.Age, `\bage\b`},
		{domain.Height, `\bheight\b`},
		{domain.Weight, `\bweight\b`},
	}

	patterns := make([]fieldPattern, 0, len(labels))
	for _, l := range labels {
		patterns = append(patterns, fieldPattern{
			key:     l.key,
			pattern: regexp.MustCompile(`(?i)` + l.label + numberPattern),
		})
	}

	return &TextExtractor{
		logger:   logger,
		patterns: patterns,
		gender:   regexp.MustCompile(`(?i)\b(?:gender|sex)\W*(male|female)\b`),
	}
}

// Extract scans raw document text for known vital labels. Labels that are not
// found are left out of the reading; a miss is never an error.
func (e *TextExtractor) Extract(rawText string) domain.VitalReading {
	clean := strings.TrimSpace(whitespaceRun.ReplaceAllString(rawText, " "))
	reading := domain.NewVitalReading()
	if clean == "" {
		return reading
	}

	for _, fp := range e.patterns {
		m := fp.pattern.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		reading.Set(fp.key, value)
	}

	if m := e.gender.FindStringSubmatch(clean); m != nil {
		reading.Gender = domain.Gender(strings.ToLower(m[1]))
	}

	e.logger.WithFields(logrus.Fields{
		"text_length":      len(clean),
		"extracted_fields": len(reading.Values),
		"gender_found":     reading.Gender != "",
	}).Debug("Extracted vitals from text")

	return reading
}
