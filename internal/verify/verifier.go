package verify

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/factchecker/claimcheck/internal/credibility"
	"github.com/factchecker/claimcheck/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	maxEvidencePages = 4
	minTermRunes     = 4
	minTermHits      = 3
)

// verifyAssumption gathers web evidence for one assumption and labels it.
func (c *Checker) verifyAssumption(ctx context.Context, assumption string) (models.AssumptionVerification, error) {
	hits, err := c.searcher.Search(ctx, assumption, c.maxResults)
	if err != nil {
		return models.AssumptionVerification{}, err
	}

	pages := c.fetchEvidence(ctx, hits)

	judgement := c.chain.VerifyAssumption(ctx, assumption)
	heuristic := heuristicLabel(assumption, pages)

	label := judgement.Label
	if label == models.LabelUncertain {
		label = heuristic
	}

	log.Debug().
		Str("assumption", assumption).
		Int("pages", len(pages)).
		Str("llm_label", string(judgement.Label)).
		Str("label", string(label)).
		Msg("Assumption verified")

	return models.AssumptionVerification{
		Assumption: assumption,
		Label:      label,
		LLMLabel:   judgement.Label,
		Rationale:  judgement.Rationale,
		Evidence:   pages,
	}, nil
}

// fetchEvidence fetches every hit that has a URL, scores the pages and
// keeps the most credible ones. Pages with equal scores stay in search order.
func (c *Checker) fetchEvidence(ctx context.Context, hits []models.SearchHit) []models.EvidencePage {
	var urls []string
	for _, h := range hits {
		if h.URL != "" {
			urls = append(urls, h.URL)
		}
	}

	pages := make([]models.EvidencePage, len(urls))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxParallel)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			page := c.fetcher.Fetch(ctx, rawURL)
			page.Score = credibility.Score(page.Domain, page.Published)
			pages[idx] = page
		}(i, u)
	}
	wg.Wait()

	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Score > pages[j].Score
	})
	if len(pages) > maxEvidencePages {
		pages = pages[:maxEvidencePages]
	}
	return pages
}

// heuristicLabel counts the distinct longer words of the assumption that
// appear in the evidence text. Three or more give TRUE; it never says FALSE.
func heuristicLabel(assumption string, pages []models.EvidencePage) models.Label {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	blob := strings.ToLower(strings.Join(texts, " "))

	seen := make(map[string]bool)
	hits := 0
	for _, term := range strings.Fields(strings.ToLower(assumption)) {
		if seen[term] || utf8.RuneCountInString(term) < minTermRunes {
			continue
		}
		seen[term] = true
		if strings.Contains(blob, term) {
			hits++
		}
	}

	if hits >= minTermHits {
		return models.LabelTrue
	}
	return models.LabelUncertain
}
