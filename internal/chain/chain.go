// Package chain drives the reasoning steps of a fact-check: an initial
// answer, assumption extraction, per-assumption judgement and synthesis.
//
// Every step uses the configured text-completion backend when there is one
// and falls back to a deterministic heuristic when there is none or when the
// backend call fails.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/factchecker/claimcheck/internal/config"
	"github.com/factchecker/claimcheck/internal/llm"
	"github.com/factchecker/claimcheck/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	maxRationaleRunes = 300

	fallbackRationale = "Needs corroboration from credible recent sources."

	extractSuffix = "\nOnly return verifiable factual statements as a JSON list. Do NOT include meta-statements."
)

// Judgement is the backend's (or fallback's) opinion on one assumption.
type Judgement struct {
	Label     models.Label `json:"label"`
	Rationale string       `json:"rationale"`
}

// VerificationDigest is a compact view of one verification passed to synthesis.
type VerificationDigest struct {
	Assumption string       `json:"assumption"`
	Label      models.Label `json:"label"`
}

// Digest is the input of the synthesis step.
type Digest struct {
	Claim         string               `json:"claim"`
	ClaimType     models.ClaimType     `json:"claim_type"`
	Verifications []VerificationDigest `json:"verifications"`
	Sources       []models.Source      `json:"sources"`
	Verdict       models.Verdict       `json:"verdict"`
	Confidence    int                  `json:"confidence"`
}

// Chain runs the reasoning steps against an optional backend.
type Chain struct {
	provider llm.Provider
	prompts  config.Prompts
}

// New creates a chain. A nil provider runs every step on its fallback.
func New(provider llm.Provider, prompts config.Prompts) *Chain {
	return &Chain{
		provider: provider,
		prompts:  config.DefaultPrompts().Merge(prompts),
	}
}

// HasBackend reports whether a text-completion backend is configured.
func (c *Chain) HasBackend() bool {
	return c.provider != nil
}

// BackendName returns the provider name, or "heuristic" in fallback mode.
func (c *Chain) BackendName() string {
	if c.provider == nil {
		return "heuristic"
	}
	return c.provider.Name()
}

// complete asks the backend and reports whether a completion was obtained.
func (c *Chain) complete(ctx context.Context, step, prompt string) (string, bool) {
	if c.provider == nil {
		return "", false
	}

	out, err := c.provider.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("step", step).Str("provider", c.provider.Name()).Msg("Completion failed, using fallback")
		return "", false
	}
	return strings.TrimSpace(out), true
}

// InitialResponse produces a first free-text answer to the claim.
func (c *Chain) InitialResponse(ctx context.Context, claim string) string {
	prompt := c.prompts.Get(config.PromptInitialResponse) + "\nClaim: " + claim
	if out, ok := c.complete(ctx, "initial_response", prompt); ok {
		return out
	}
	return fallbackInitial(claim)
}

// ExtractAssumptions returns at most six verifiable statements made in the initial response.
func (c *Chain) ExtractAssumptions(ctx context.Context, initial string) []string {
	prompt := c.prompts.Get(config.PromptExtractAssumptions) + "\nInitial: " + initial + extractSuffix
	if out, ok := c.complete(ctx, "extract_assumptions", prompt); ok {
		assumptions, err := parseAssumptionList(out)
		if err == nil {
			return assumptions
		}
		log.Debug().Err(err).Msg("Assumption list not parseable, using sentence filter")
	}
	return FilterFactualSentences(initial)
}

// VerifyAssumption judges a single assumption as TRUE, FALSE or UNCERTAIN.
func (c *Chain) VerifyAssumption(ctx context.Context, assumption string) Judgement {
	prompt := strings.ReplaceAll(c.prompts.Get(config.PromptVerifyAssumption), "{assumption}", assumption)
	if out, ok := c.complete(ctx, "verify_assumption", prompt); ok {
		return Judgement{
			Label:     labelFromCompletion(out),
			Rationale: truncateRunes(out, maxRationaleRunes),
		}
	}
	return Judgement{Label: models.LabelUncertain, Rationale: fallbackRationale}
}

// Synthesize writes the final natural-language summary of a check.
func (c *Chain) Synthesize(ctx context.Context, digest Digest) string {
	if c.provider != nil {
		inputs, err := marshalDigest(digest)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to encode synthesis inputs, using fallback")
		} else {
			prompt := c.prompts.Get(config.PromptSynthesize) + "\nInputs: " + inputs
			if out, ok := c.complete(ctx, "synthesize", prompt); ok {
				return out
			}
		}
	}
	return fmt.Sprintf("Verdict: %s (confidence ~%d%%). See sources for details.", digest.Verdict, digest.Confidence)
}

func fallbackInitial(claim string) string {
	return "Initial take: Based on general knowledge and without external confirmation, " +
		"There's a brief answer to the claim:\n" + claim + "\n"
}

// labelFromCompletion reads the label off the first line of a completion.
func labelFromCompletion(out string) models.Label {
	first := out
	if i := strings.IndexAny(out, "\r\n"); i >= 0 {
		first = out[:i]
	}
	first = strings.ToUpper(strings.TrimSpace(first))

	switch {
	case strings.Contains(first, "TRUE"):
		return models.LabelTrue
	case strings.Contains(first, "FALSE"):
		return models.LabelFalse
	default:
		return models.LabelUncertain
	}
}

// marshalDigest encodes the digest without escaping <, > and &.
func marshalDigest(d Digest) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
