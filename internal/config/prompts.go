package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Recognized prompt template names.
const (
	PromptInitialResponse    = "initial_response"
	PromptExtractAssumptions = "extract_assumptions"
	PromptVerifyAssumption   = "verify_assumption"
	PromptSynthesize         = "synthesize"
)

// Prompts maps a template name to its text. It is loaded once at startup
// and treated as read-only afterwards.
type Prompts map[string]string

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{
		PromptInitialResponse: `You are a careful fact-checking assistant.
Give a short, direct answer to the claim below in two to four plain factual sentences.
State the concrete facts (names, dates, places, numbers) your answer relies on.`,
		PromptExtractAssumptions: `List the atomic factual assumptions made in the answer below.
Each item must be a single, self-contained statement that can be checked against a web source.
Respond with a JSON array of strings and nothing else.`,
		PromptVerifyAssumption: `Decide whether the following statement is factually correct.
Statement: {assumption}
Answer with TRUE, FALSE or UNCERTAIN on the first line, then give a one or two sentence rationale.`,
		PromptSynthesize: `You are writing the final note of a fact-check.
Using the JSON inputs below (claim, per-assumption labels, sources, verdict and confidence),
write a concise summary of at most five sentences that states the verdict and cites the most relevant sources by domain.`,
	}
}

// LoadPrompts reads a YAML mapping of template name to template text.
func LoadPrompts(path string) (Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return p, nil
}

// Merge returns a copy of p with every non-empty template of other applied over it.
func (p Prompts) Merge(other Prompts) Prompts {
	out := make(Prompts, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

// Get returns the named template or an empty string.
func (p Prompts) Get(name string) string {
	return p[name]
}

// Validate checks that every recognized template is present.
func (p Prompts) Validate() error {
	for _, name := range []string{PromptInitialResponse, PromptExtractAssumptions, PromptVerifyAssumption, PromptSynthesize} {
		if strings.TrimSpace(p[name]) == "" {
			return fmt.Errorf("prompt template %q is empty", name)
		}
	}
	if !strings.Contains(p[PromptVerifyAssumption], "{assumption}") {
		return fmt.Errorf("prompt template %q must contain {assumption}", PromptVerifyAssumption)
	}
	return nil
}
