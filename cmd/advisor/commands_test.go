package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliLibrary = `{
  "glucose": {"positive": ["Glucose {glucose} mg/dL is in range."], "negative": ["Glucose {glucose} mg/dL is above 100."]},
  "Diabetes": {"positive": ["Diabetes risk is {Diabetes}%."], "negative": ["Diabetes risk is elevated at {Diabetes}%."]},
  "Overall": {"positive": ["Overall risk {Overall}%."], "negative": ["Overall risk {Overall}% needs attention."]}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	report := writeFile(t, dir, "labs.txt", "Glucose: 112 mg/dL\nBlood pressure: Systolic 128 / Diastolic 84\n")

	out, err := run(t, "extract", report)
	require.NoError(t, err)

	var body struct {
		Vitals map[string]float64 `json:"vitals"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, 112.0, body.Vitals["glucose"])
	assert.Equal(t, 128.0, body.Vitals["systolic"])
	assert.Equal(t, 84.0, body.Vitals["diastolic"])
}

func TestExtractCommand_Unsupported(t *testing.T) {
	report := writeFile(t, t.TempDir(), "scan.pdf", "%PDF-1.7")

	_, err := run(t, "extract", report)
	assert.ErrorContains(t, err, "unsupported document type")
}

func TestScoreCommand(t *testing.T) {
	vitals := writeFile(t, t.TempDir(), "vitals.json", `{"height": 180, "weight": 97, "glucose": 150, "age": 50}`)

	out, err := run(t, "score", vitals)
	require.NoError(t, err)

	var body struct {
		RiskScores map[string]int `json:"riskScores"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, map[string]int{"Heart Disease": 0, "Diabetes": 45, "Obesity": 15, "Overall": 20}, body.RiskScores)
}

func TestScoreCommand_BadFile(t *testing.T) {
	vitals := writeFile(t, t.TempDir(), "vitals.json", `{"glucose": "lots"}`)

	_, err := run(t, "score", vitals)
	assert.Error(t, err)

	_, err = run(t, "score", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestAdviseCommand(t *testing.T) {
	dir := t.TempDir()
	library := writeFile(t, dir, "advice.json", cliLibrary)
	vitals := writeFile(t, dir, "vitals.json", `{"glucose": 150, "age": 50}`)

	out, err := run(t, "advise", vitals, "--library", library, "--seed", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "Glucose 150 mg/dL is above 100.")
	assert.Contains(t, out, "Diabetes risk is 45%.")
	assert.Contains(t, out, "Overall risk 15%.")

	again, err := run(t, "advise", vitals, "--library", library, "--seed", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again, "a fixed seed reproduces the narrative")
}

func TestAdviseCommand_JSONWithText(t *testing.T) {
	dir := t.TempDir()
	library := writeFile(t, dir, "advice.json", cliLibrary)
	vitals := writeFile(t, dir, "vitals.json", `{"age": 50}`)
	report := writeFile(t, dir, "labs.txt", "Fasting glucose 150 mg/dL")

	out, err := run(t, "advise", vitals, "--library", library, "--text", report, "--json", "--strategy", "proportional")
	require.NoError(t, err)

	var body struct {
		RiskScores map[string]int `json:"riskScores"`
		Strategy   string         `json:"strategy"`
		Advice     []string       `json:"advice"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, 45, body.RiskScores["Diabetes"])
	assert.Equal(t, "proportional", body.Strategy)
	assert.NotEmpty(t, body.Advice)
}

func TestAdviseCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	library := writeFile(t, dir, "advice.json", cliLibrary)
	vitals := writeFile(t, dir, "vitals.json", `{"glucose": 150}`)

	_, err := run(t, "advise", vitals, "--library", library, "--strategy", "random")
	assert.ErrorContains(t, err, "unknown advice strategy")

	_, err = run(t, "advise", vitals, "--library", filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "loading template library")

	_, err = run(t, "advise")
	assert.Error(t, err)
}

func TestSetupCommands(t *testing.T) {
	dir := t.TempDir()
	clientConfig := filepath.Join(dir, "claude_desktop_config.json")
	binary := writeFile(t, dir, "mcp-server", "#!/bin/sh\n")
	require.NoError(t, os.Chmod(binary, 0o755))

	out, err := run(t, "setup", "register", "--client-config", clientConfig, "--binary", binary)
	require.NoError(t, err)
	assert.Contains(t, out, "Registered health-advisor")

	out, err = run(t, "setup", "status", "--client-config", clientConfig)
	require.NoError(t, err)
	assert.Contains(t, out, "Registered: yes")

	_, err = run(t, "setup", "remove", "--client-config", clientConfig)
	require.NoError(t, err)

	out, err = run(t, "setup", "status", "--client-config", clientConfig)
	require.NoError(t, err)
	assert.Contains(t, out, "Registered: no")
}
