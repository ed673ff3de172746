package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/factchecker/claimcheck/internal/config"
	"github.com/factchecker/claimcheck/internal/models"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderResult(t *testing.T) {
	color.NoColor = true

	published := "2023-04-01T10:30:00"
	result := &models.CheckResult{
		Claim:      "The Eiffel Tower is in Paris",
		ClaimType:  models.ClaimTypeFactual,
		Verdict:    models.VerdictTrue,
		Confidence: 80,
		Synthesis:  "Verdict: True (confidence ~80%). See sources for details.",
		Verifications: []models.AssumptionVerification{
			{Assumption: "The Eiffel Tower is located in Paris", Label: models.LabelTrue, Rationale: "Heuristic: 5 keyword hits"},
		},
		Sources: []models.Source{
			{Domain: "paris.gov", URL: "https://paris.gov/eiffel", Title: "Eiffel Tower", Published: &published},
			{Domain: "example.com", URL: "https://example.com/a"},
		},
		Backend:    "heuristic",
		DurationMs: 1234,
		CreatedAt:  time.Now(),
	}

	var buf bytes.Buffer
	renderResult(&buf, result, true)
	out := buf.String()

	assert.Contains(t, out, "The Eiffel Tower is in Paris")
	assert.Contains(t, out, "Type: Factual")
	assert.Contains(t, out, "True (confidence ~80%)")
	assert.Contains(t, out, "1. [TRUE] The Eiffel Tower is located in Paris")
	assert.Contains(t, out, "Heuristic: 5 keyword hits")
	assert.Contains(t, out, "published 2023-04-01T10:30:00")
	assert.Contains(t, out, "- example.com\n    https://example.com/a")
	assert.Contains(t, out, "from history")
}

func TestRenderResult_NoSources(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	renderResult(&buf, &models.CheckResult{
		Claim:     "I think pizza is great",
		ClaimType: models.ClaimTypeOpinion,
		Verdict:   models.VerdictUncertain,
		Backend:   "heuristic",
	}, false)

	assert.Contains(t, buf.String(), "(none)")
	assert.NotContains(t, buf.String(), "from history")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claimcheck.yaml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "init", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), path)

	_, err := os.Stat(path)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)

	rootCmd.SetArgs([]string{"config", "init", path})
	assert.Error(t, rootCmd.Execute())
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "claimcheck "+Version+"\n", out.String())
}
