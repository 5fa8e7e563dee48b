package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/health-advisor-server/internal/domain"
)

// Format identifies a library document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the encoding from the source's extension. URLs are
// matched on their path; anything unrecognised is treated as JSON.
func DetectFormat(source string) Format {
	p := source
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes and validates a library document. The document is a flat
// object: every subject maps to a {positive, negative} bucket, except the
// reserved general, disease and overall keys which carry range rules.
func Parse(source string, data []byte, format Format) (*domain.TemplateLibrary, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, domain.NewLoadError(source, "decoding YAML", err)
		}
		data = converted
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, domain.NewLoadError(source, "document is not an object", nil)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, domain.NewLoadError(source, "decoding JSON", err)
	}

	lib := domain.NewTemplateLibrary(source)
	for subject, raw := range doc {
		var err error
		switch subject {
		case domain.LibraryGeneralKey:
			lib.General, err = parseRuleGroup(raw)
		case domain.LibraryDiseaseKey:
			lib.Disease, err = parseRuleGroup(raw)
		case domain.LibraryOverallKey:
			lib.OverallRules, err = parseRules(raw)
		default:
			err = parseSubject(lib, subject, raw)
		}
		if err != nil {
			return nil, domain.NewLoadError(source, fmt.Sprintf("subject %q", subject), err)
		}
	}
	return lib, nil
}

// parseSubject accepts either a polarity bucket or a bare rule list
func parseSubject(lib *domain.TemplateLibrary, subject string, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty value")
	}

	switch trimmed[0] {
	case '{':
		bucket, err := parseBucket(trimmed)
		if err != nil {
			return err
		}
		lib.Buckets[subject] = bucket
		return nil
	case '[':
		rules, err := parseRules(trimmed)
		if err != nil {
			return err
		}
		switch {
		case subject == domain.OverallKey:
			lib.OverallRules = append(lib.OverallRules, rules...)
		case isCondition(subject):
			lib.Disease[subject] = rules
		default:
			lib.General[subject] = rules
		}
		return nil
	default:
		return fmt.Errorf("not a bucket object or rule list")
	}
}

func parseBucket(raw json.RawMessage) (domain.Bucket, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Bucket{}, err
	}

	var bucket domain.Bucket
	for name, value := range fields {
		var templates []string
		if err := json.Unmarshal(value, &templates); err != nil {
			return domain.Bucket{}, fmt.Errorf("%s bucket must be a list of strings: %w", name, err)
		}
		switch domain.Polarity(name) {
		case domain.Positive:
			bucket.Positive = templates
		case domain.Negative:
			bucket.Negative = templates
		default:
			return domain.Bucket{}, fmt.Errorf("unknown bucket %q", name)
		}
	}
	return bucket, nil
}

func parseRuleGroup(raw json.RawMessage) (map[string][]domain.ThresholdRule, error) {
	var group map[string]json.RawMessage
	if err := json.Unmarshal(raw, &group); err != nil {
		return nil, fmt.Errorf("must map subjects to rule lists: %w", err)
	}
	out := make(map[string][]domain.ThresholdRule, len(group))
	for subject, value := range group {
		rules, err := parseRules(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", subject, err)
		}
		out[subject] = rules
	}
	return out, nil
}

func parseRules(raw json.RawMessage) ([]domain.ThresholdRule, error) {
	var rules []domain.ThresholdRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("must be a list of {min, max, text} rules: %w", err)
	}
	for i, rule := range rules {
		if rule.Min > rule.Max {
			return nil, fmt.Errorf("rule %d has min %v greater than max %v", i, rule.Min, rule.Max)
		}
		if strings.TrimSpace(rule.Text) == "" {
			return nil, fmt.Errorf("rule %d has empty text", i)
		}
	}
	return rules, nil
}

func isCondition(subject string) bool {
	for _, c := range domain.Conditions() {
		if string(c) == subject {
			return true
		}
	}
	return false
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share one
// validation path
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
