package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-advisor-server/internal/domain"
)

const sampleJSON = `{
  "glucose": {
    "positive": ["Your glucose of {glucose} mg/dL is on target."],
    "negative": ["Glucose at {glucose} mg/dL is above range."]
  },
  "Heart Disease": {"positive": ["Low heart risk."], "negative": []},
  "Overall": {"positive": ["Overall {Overall}%."]},
  "general": {
    "pulse": [{"min": 60, "max": 100, "text": "Pulse is normal."}]
  },
  "disease": {
    "Diabetes": [{"min": 0, "max": 50, "text": "Diabetes risk is low."}]
  },
  "overall": [{"min": 0, "max": 100, "text": "Keep it up."}]
}`

const sampleYAML = `
glucose:
  positive:
    - "Your glucose of {glucose} mg/dL is on target."
  negative:
    - "Glucose at {glucose} mg/dL is above range."
Obesity:
  - min: 0
    max: 30
    text: "Weight risk is modest."
general:
  hdl:
    - {min: 60, max: 200, text: "HDL is protective."}
`

func TestParse_JSON(t *testing.T) {
	lib, err := Parse("advice.json", []byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"Your glucose of {glucose} mg/dL is on target."}, lib.Bucket("glucose", domain.Positive))
	assert.Equal(t, []string{"Low heart risk."}, lib.Bucket("Heart Disease", domain.Positive))
	assert.Empty(t, lib.Bucket("Heart Disease", domain.Negative))
	assert.Empty(t, lib.Bucket("Overall", domain.Negative))
	assert.Empty(t, lib.Bucket("ldl", domain.Positive), "missing subject is an empty bucket")

	require.Len(t, lib.GeneralRules(domain.Pulse), 1)
	assert.Equal(t, "Pulse is normal.", lib.GeneralRules(domain.Pulse)[0].Text)
	require.Len(t, lib.DiseaseRules(domain.Diabetes), 1)
	require.Len(t, lib.OverallRules, 1)
	assert.Equal(t, "advice.json", lib.Source)
	assert.Equal(t, 6, lib.SubjectCount())
}

func TestParse_YAML(t *testing.T) {
	lib, err := Parse("advice.yaml", []byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, []string{"Glucose at {glucose} mg/dL is above range."}, lib.Bucket("glucose", domain.Negative))
	require.Len(t, lib.DiseaseRules(domain.Obesity), 1, "bare rule list under a condition")
	assert.Equal(t, 30.0, lib.DiseaseRules(domain.Obesity)[0].Max)
	require.Len(t, lib.GeneralRules(domain.HDL), 1)
	assert.Equal(t, "HDL is protective.", lib.GeneralRules(domain.HDL)[0].Text)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
	}{
		{"Not JSON", `{"glucose": `, FormatJSON},
		{"Top level array", `[1, 2, 3]`, FormatJSON},
		{"Empty document", ``, FormatJSON},
		{"Subject is a string", `{"glucose": "eat less sugar"}`, FormatJSON},
		{"Subject is a number", `{"glucose": 5}`, FormatJSON},
		{"Bucket with non-string template", `{"glucose": {"positive": [1]}}`, FormatJSON},
		{"Unknown bucket name", `{"glucose": {"neutral": ["x"]}}`, FormatJSON},
		{"Rule with min above max", `{"overall": [{"min": 80, "max": 20, "text": "x"}]}`, FormatJSON},
		{"Rule with empty text", `{"general": {"pulse": [{"min": 0, "max": 10, "text": " "}]}}`, FormatJSON},
		{"General is not a map", `{"general": ["x"]}`, FormatJSON},
		{"Broken YAML", "glucose: [unclosed", FormatYAML},
		{"YAML scalar", "just words", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := Parse("bad", []byte(tt.doc), tt.format)
			assert.Nil(t, lib)
			require.Error(t, err)
			assert.True(t, domain.IsLoadError(err), "expected LoadError, got %T", err)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("data/advice.yaml"))
	assert.Equal(t, FormatYAML, DetectFormat("https://example.com/lib.YML?v=2"))
	assert.Equal(t, FormatJSON, DetectFormat("data/advice.json"))
	assert.Equal(t, FormatJSON, DetectFormat("https://example.com/advice"))
}

func TestParse_BundledLibrary(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "advice.json"))
	require.NoError(t, err)

	lib, err := Parse("advice.json", data, FormatJSON)
	require.NoError(t, err)

	for _, c := range domain.Conditions() {
		assert.NotEmpty(t, lib.Bucket(string(c), domain.Positive), c)
		assert.NotEmpty(t, lib.Bucket(string(c), domain.Negative), c)
		assert.NotEmpty(t, lib.DiseaseRules(c), c)
	}
	assert.NotEmpty(t, lib.Bucket(domain.OverallKey, domain.Positive))
	assert.NotEmpty(t, lib.GeneralRules(domain.Glucose))
	assert.NotEmpty(t, lib.OverallRules)
}
