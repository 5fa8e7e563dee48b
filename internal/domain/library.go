package domain

// Polarity classifies a value as favorable or unfavorable
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// Reserved top-level keys of a library document that carry threshold rules
// instead of polarity buckets
const (
	LibraryGeneralKey = "general"
	LibraryDiseaseKey = "disease"
	LibraryOverallKey = "overall"
)

// Bucket holds the candidate templates for one subject
type Bucket struct {
	Positive []string `json:"positive" yaml:"positive"`
	Negative []string `json:"negative" yaml:"negative"`
}

// Templates returns the ordered templates for a polarity
func (b Bucket) Templates(p Polarity) []string {
	if p == Positive {
		return b.Positive
	}
	return b.Negative
}

// ThresholdRule selects Text when min <= value <= max
type ThresholdRule struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Text string  `json:"text" yaml:"text"`
}

// Matches reports whether value falls in the rule's closed range
func (r ThresholdRule) Matches(value float64) bool {
	return value >= r.Min && value <= r.Max
}

// TemplateLibrary is the parsed advice catalogue. Buckets are keyed by subject
// (a vital key, a condition name or Overall). General and Disease hold threshold
// rules per subject; OverallRules applies to the Overall score.
type TemplateLibrary struct {
	Source       string                     `json:"source,omitempty"`
	Buckets      map[string]Bucket          `json:"buckets"`
	General      map[string][]ThresholdRule `json:"general,omitempty"`
	Disease      map[string][]ThresholdRule `json:"disease,omitempty"`
	OverallRules []ThresholdRule            `json:"overall,omitempty"`
}

// NewTemplateLibrary creates an empty library
func NewTemplateLibrary(source string) *TemplateLibrary {
	return &TemplateLibrary{
		Source:  source,
		Buckets: make(map[string]Bucket),
		General: make(map[string][]ThresholdRule),
		Disease: make(map[string][]ThresholdRule),
	}
}

// Bucket returns the templates for subject and polarity. A missing subject
// yields an empty slice rather than an error.
func (l *TemplateLibrary) Bucket(subject string, p Polarity) []string {
	if l == nil {
		return nil
	}
	b, ok := l.Buckets[subject]
	if !ok {
		return nil
	}
	return b.Templates(p)
}

// HasSubject reports whether a polarity bucket exists for subject
func (l *TemplateLibrary) HasSubject(subject string) bool {
	if l == nil {
		return false
	}
	_, ok := l.Buckets[subject]
	return ok
}

// GeneralRules returns the threshold rules for a vital key
func (l *TemplateLibrary) GeneralRules(key VitalKey) []ThresholdRule {
	if l == nil {
		return nil
	}
	return l.General[string(key)]
}

// DiseaseRules returns the threshold rules for a condition
func (l *TemplateLibrary) DiseaseRules(c Condition) []ThresholdRule {
	if l == nil {
		return nil
	}
	return l.Disease[string(c)]
}

// SubjectCount is the number of distinct subjects across buckets and rules
func (l *TemplateLibrary) SubjectCount() int {
	if l == nil {
		return 0
	}
	seen := make(map[string]struct{})
	for k := range l.Buckets {
		seen[k] = struct{}{}
	}
	for k := range l.General {
		seen[k] = struct{}{}
	}
	for k := range l.Disease {
		seen[k] = struct{}{}
	}
	if len(l.OverallRules) > 0 {
		seen[LibraryOverallKey] = struct{}{}
	}
	return len(seen)
}
