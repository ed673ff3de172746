package credibility

import (
	"regexp"
	"strings"

	"github.com/factchecker/claimcheck/internal/models"
)

var (
	opinionMarkers      = []string{"best", "should", "i think", "we believe", "opinion", "prefer"}
	unverifiableMarkers = []string{"cannot be known", "no one knows"}

	factualPattern = regexp.MustCompile(`\b\d{4}\b|capital of|population|launch|temperature|score|ceo|president`)
)

// confidenceByVerdict is a fixed lookup; it does not depend on the evidence.
var confidenceByVerdict = map[models.Verdict]int{
	models.VerdictTrue:      80,
	models.VerdictFalse:     80,
	models.VerdictMixed:     60,
	models.VerdictUncertain: 50,
}

const defaultConfidence = 60

// ClassifyClaim assigns a claim type from keyword markers.
// Opinion wins over Unverifiable, which wins over Factual; anything else is Mixed.
func ClassifyClaim(text string) models.ClaimType {
	t := strings.ToLower(strings.TrimSpace(text))

	if containsAny(t, opinionMarkers) {
		return models.ClaimTypeOpinion
	}
	if containsAny(t, unverifiableMarkers) {
		return models.ClaimTypeUnverifiable
	}
	if factualPattern.MatchString(t) {
		return models.ClaimTypeFactual
	}
	return models.ClaimTypeMixed
}

// PickVerdict aggregates per-assumption labels into a claim verdict.
func PickVerdict(labels []models.Label) models.Verdict {
	if len(labels) == 0 {
		return models.VerdictUncertain
	}
	if all(labels, models.LabelTrue) {
		return models.VerdictTrue
	}
	if all(labels, models.LabelFalse) {
		return models.VerdictFalse
	}
	return models.VerdictMixed
}

// Confidence returns the confidence percentage reported for a verdict.
func Confidence(verdict models.Verdict) int {
	if c, ok := confidenceByVerdict[verdict]; ok {
		return c
	}
	return defaultConfidence
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func all(labels []models.Label, want models.Label) bool {
	for _, l := range labels {
		if l != want {
			return false
		}
	}
	return true
}
