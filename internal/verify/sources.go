package verify

import (
	"fmt"
	"time"

	"github.com/factchecker/claimcheck/internal/models"
)

const (
	maxSources             = 4
	sourcesPerVerification = 2
	publishedLayout        = "2006-01-02T15:04:05"
)

// topSources takes up to two evidence pages from each verification in
// order. Collection stops after the verification that brings the total to
// four or more, and the result is capped at four.
func topSources(verifications []models.AssumptionVerification) []models.Source {
	sources := make([]models.Source, 0, maxSources)
	for _, v := range verifications {
		evidence := v.Evidence
		if len(evidence) > sourcesPerVerification {
			evidence = evidence[:sourcesPerVerification]
		}
		for _, e := range evidence {
			sources = append(sources, models.Source{
				Domain:    e.Domain,
				URL:       e.URL,
				Title:     e.Title,
				Published: formatPublished(e.Published),
			})
		}
		if len(sources) >= maxSources {
			break
		}
	}

	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	return sources
}

// formatPublished renders an ISO-8601 timestamp without zone, adding
// microseconds only when they are non-zero.
func formatPublished(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(publishedLayout)
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return &s
}
