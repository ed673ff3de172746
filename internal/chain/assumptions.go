package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxAssumptions        = 6
	maxSentenceRunes      = 160
	minAssumptionRunes    = 6
	placeholderAssumption = "The claim contains verifiable factual components."
)

// metaPhrases mark sentences that talk about the answer instead of the world.
var metaPhrases = []string{
	"based on general knowledge",
	"without external confirmation",
	"there may be uncertainty",
	"we'll verify with credible sources",
	"initial take",
}

var (
	codeFence = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

	errNotAList = errors.New("completion is not a JSON list")
)

// parseAssumptionList strictly decodes a JSON array of statements, with or
// without a surrounding code fence. Items are rendered as text, trimmed and
// kept when longer than five characters; at most six are returned. Anything
// other than a JSON array is an error.
func parseAssumptionList(out string) ([]string, error) {
	out = strings.TrimSpace(out)
	if m := codeFence.FindStringSubmatch(out); len(m) > 1 {
		out = m[1]
	}

	dec := json.NewDecoder(strings.NewReader(out))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: trailing data")
	}

	items, ok := decoded.([]any)
	if !ok {
		return nil, errNotAList
	}

	assumptions := make([]string, 0, maxAssumptions)
	for _, item := range items {
		s := strings.TrimSpace(itemText(item))
		if utf8.RuneCountInString(s) < minAssumptionRunes {
			continue
		}
		assumptions = append(assumptions, s)
		if len(assumptions) == maxAssumptions {
			break
		}
	}
	return assumptions, nil
}

// itemText renders one decoded list item as text. Numbers keep their JSON
// spelling, so 12345678 stays "12345678".
func itemText(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "True"
		}
		return "False"
	case nil:
		return "None"
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// FilterFactualSentences splits text into sentences and drops meta
// statements. It never returns an empty slice for any input.
func FilterFactualSentences(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))

	var sentences []string
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if s == "" || isMeta(s) {
			continue
		}
		sentences = append(sentences, truncateRunes(s, maxSentenceRunes))
	}

	if len(sentences) == 0 {
		if _, after, found := strings.Cut(text, ":"); found {
			if after = strings.TrimSpace(after); after != "" {
				sentences = []string{truncateRunes(after, maxSentenceRunes)}
			}
		}
	}

	if len(sentences) == 0 {
		return []string{placeholderAssumption}
	}
	return sentences
}

func isMeta(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, p := range metaPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
