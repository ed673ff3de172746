package verify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/factchecker/claimcheck/internal/chain"
	"github.com/factchecker/claimcheck/internal/credibility"
	"github.com/factchecker/claimcheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	limits  []int
	hits    func(query string) ([]models.SearchHit, error)
}

func (f *fakeSearcher) Search(_ context.Context, query string, maxResults int) ([]models.SearchHit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, maxResults)
	f.mu.Unlock()
	hits, err := f.hits(query)
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, err
}

type fakeFetcher struct {
	pages map[string]models.EvidencePage
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) models.EvidencePage {
	if p, ok := f.pages[rawURL]; ok {
		p.URL = rawURL
		p.Domain = credibility.DomainFromURL(rawURL)
		return p
	}
	return models.EvidencePage{URL: rawURL, Domain: credibility.DomainFromURL(rawURL), Error: "unexpected status: 404 Not Found"}
}

type scriptedProvider struct {
	complete func(prompt string) (string, error)
}

func (p scriptedProvider) Complete(_ context.Context, prompt string) (string, error) {
	return p.complete(prompt)
}

func (p scriptedProvider) Name() string { return "scripted" }

func staticHits(urls ...string) func(string) ([]models.SearchHit, error) {
	return func(string) ([]models.SearchHit, error) {
		hits := make([]models.SearchHit, len(urls))
		for i, u := range urls {
			hits[i] = models.SearchHit{Title: u, URL: u}
		}
		return hits, nil
	}
}

func TestCheckClaim_FallbackEndToEnd(t *testing.T) {
	published := time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)
	searcher := &fakeSearcher{hits: staticHits("https://www.example.com/a", "https://data.gov/paris", "https://blog.example.xyz/b")}
	fetcher := &fakeFetcher{pages: map[string]models.EvidencePage{
		"https://www.example.com/a": {Title: "A", Text: "Paris is the capital of France."},
		"https://data.gov/paris":    {Title: "Gov", Text: "Based on general knowledge, the answer: Paris is the capital of France.", Published: &published},
	}}

	checker := NewChecker(chain.New(nil, nil), searcher, fetcher, Options{})
	result, err := checker.CheckClaim(context.Background(), "The capital of France is Paris.")
	require.NoError(t, err)

	assert.Equal(t, "heuristic", result.Backend)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, models.ClaimTypeFactual, result.ClaimType)
	assert.True(t, strings.HasPrefix(result.InitialResponse, "Initial take:"))
	require.Len(t, result.Assumptions, 1)
	assert.Contains(t, result.Assumptions[0], "The capital of France is Paris")
	assert.Equal(t, result.Assumptions, searcher.queries)
	assert.Equal(t, []int{6}, searcher.limits)

	require.Len(t, result.Verifications, 1)
	v := result.Verifications[0]
	assert.Equal(t, models.LabelUncertain, v.LLMLabel)
	assert.Equal(t, models.LabelTrue, v.Label)
	require.Len(t, v.Evidence, 3)
	assert.Equal(t, "data.gov", v.Evidence[0].Domain)
	assert.Equal(t, "https://blog.example.xyz/b", v.Evidence[2].URL)
	assert.NotEmpty(t, v.Evidence[2].Error)

	assert.Equal(t, models.VerdictTrue, result.Verdict)
	assert.Equal(t, 80, result.Confidence)
	assert.Equal(t, "Verdict: True (confidence ~80%). See sources for details.", result.Synthesis)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, "https://data.gov/paris", result.Sources[0].URL)
	require.NotNil(t, result.Sources[0].Published)
	assert.Equal(t, "2023-04-05T06:07:08", *result.Sources[0].Published)
	assert.Nil(t, result.Sources[1].Published)
}

func TestCheckClaim_FallbackProperties(t *testing.T) {
	claims := []string{
		"I think pineapple on pizza is the best.",
		"Aliens secretly built the pyramids.",
		"The Eiffel Tower was completed in 1889.",
		"Cats sleep a lot",
		"",
	}

	for _, claim := range claims {
		searcher := &fakeSearcher{hits: staticHits(
			"https://a.example.com/1", "https://b.example.org/2", "https://c.example.edu/3",
			"https://d.example.net/4", "https://e.example.gov/5", "https://f.example.io/6",
		)}
		checker := NewChecker(chain.New(nil, nil), searcher, &fakeFetcher{}, Options{MaxParallel: 2})

		result, err := checker.CheckClaim(context.Background(), claim)
		require.NoError(t, err, claim)

		assert.Contains(t, []models.Verdict{models.VerdictTrue, models.VerdictFalse, models.VerdictMixed, models.VerdictUncertain}, result.Verdict)
		assert.Contains(t, []int{50, 60, 80}, result.Confidence)
		assert.True(t, strings.HasPrefix(result.Synthesis, "Verdict:"), result.Synthesis)
		assert.LessOrEqual(t, len(result.Sources), 4)
		assert.NotEmpty(t, result.Assumptions)
		for _, v := range result.Verifications {
			assert.LessOrEqual(t, len(v.Evidence), 4)
		}
	}
}

func TestCheckClaim_WithBackendKeepsAssumptionOrder(t *testing.T) {
	provider := scriptedProvider{complete: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "\nClaim: "):
			return "Paris is the capital. The Seine crosses it. It has ten million people.", nil
		case strings.Contains(prompt, "\nInitial: "):
			return `["Paris is the capital of France", "The Seine flows through Paris", "Paris has ten million residents"]`, nil
		case strings.Contains(prompt, "\nInputs: "):
			return "Mostly right, the population figure is off.", nil
		case strings.Contains(prompt, "ten million"):
			return "FALSE\nAbout two million live in the city proper.", nil
		case strings.Contains(prompt, "Seine"):
			return "Unsure", nil
		default:
			return "TRUE\nWell documented.", nil
		}
	}}

	searcher := &fakeSearcher{hits: func(q string) ([]models.SearchHit, error) {
		if strings.Contains(q, "capital") {
			time.Sleep(30 * time.Millisecond)
		}
		return nil, nil
	}}

	checker := NewChecker(chain.New(provider, nil), searcher, &fakeFetcher{}, Options{MaxParallel: 3})
	result, err := checker.CheckClaim(context.Background(), "Paris, the capital of France, has 10 million people")
	require.NoError(t, err)

	assert.Equal(t, "scripted", result.Backend)
	require.Len(t, result.Verifications, 3)
	assert.Equal(t, "Paris is the capital of France", result.Verifications[0].Assumption)
	assert.Equal(t, models.LabelTrue, result.Verifications[0].Label)
	assert.Equal(t, models.LabelUncertain, result.Verifications[1].Label)
	assert.Equal(t, models.LabelFalse, result.Verifications[2].Label)
	assert.Equal(t, "FALSE\nAbout two million live in the city proper.", result.Verifications[2].Rationale)

	assert.Equal(t, models.VerdictMixed, result.Verdict)
	assert.Equal(t, 60, result.Confidence)
	assert.Equal(t, "Mostly right, the population figure is off.", result.Synthesis)
	assert.Empty(t, result.Sources)
}

func TestCheckClaim_HeuristicNeverOverridesConfidentLabel(t *testing.T) {
	const assumption = "The Great Wall of China is visible from space"
	evidence := map[string]models.EvidencePage{
		"https://nasa.gov/great-wall": {Title: "Great Wall", Text: "Is the Great Wall of China visible from space? Astronauts say no."},
	}

	tests := []struct {
		name    string
		verdict string
		want    models.Label
	}{
		{"backend false", "FALSE\nNot visible to the naked eye from orbit.", models.LabelFalse},
		{"backend true", "TRUE\nSeen in radar images.", models.LabelTrue},
		{"backend unsure", "Hard to say.", models.LabelTrue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := scriptedProvider{complete: func(prompt string) (string, error) {
				switch {
				case strings.Contains(prompt, "\nClaim: "):
					return "The wall can be seen from orbit.", nil
				case strings.Contains(prompt, "\nInitial: "):
					return `["` + assumption + `"]`, nil
				case strings.Contains(prompt, "\nInputs: "):
					return "Summary.", nil
				default:
					return tt.verdict, nil
				}
			}}
			searcher := &fakeSearcher{hits: staticHits("https://nasa.gov/great-wall")}
			fetcher := &fakeFetcher{pages: evidence}

			require.Equal(t, models.LabelTrue, heuristicLabel(assumption, []models.EvidencePage{evidence["https://nasa.gov/great-wall"]}))

			checker := NewChecker(chain.New(provider, nil), searcher, fetcher, Options{})
			result, err := checker.CheckClaim(context.Background(), "You can see the Great Wall of China from space")
			require.NoError(t, err)

			require.Len(t, result.Verifications, 1)
			v := result.Verifications[0]
			require.Len(t, v.Evidence, 1)
			assert.Equal(t, tt.want, v.Label)
		})
	}
}

func TestCheckClaim_SearchErrorPropagates(t *testing.T) {
	boom := errors.New("search backend down")
	searcher := &fakeSearcher{hits: func(string) ([]models.SearchHit, error) { return nil, boom }}

	checker := NewChecker(chain.New(nil, nil), searcher, &fakeFetcher{}, Options{})
	result, err := checker.CheckClaim(context.Background(), "Water boils at 100 degrees")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "verify assumption")
}

func TestCheckClaim_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	searcher := &fakeSearcher{hits: staticHits()}
	checker := NewChecker(chain.New(nil, nil), searcher, &fakeFetcher{}, Options{})

	_, err := checker.CheckClaim(ctx, "Water boils at 100 degrees")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchEvidence_RanksAndKeepsFour(t *testing.T) {
	searcher := &fakeSearcher{hits: staticHits()}
	checker := NewChecker(chain.New(nil, nil), searcher, &fakeFetcher{}, Options{MaxParallel: 2})

	hits := []models.SearchHit{
		{URL: "https://one.example.com/"},
		{URL: ""},
		{URL: "https://two.example.xyz/"},
		{URL: "https://three.example.gov/"},
		{URL: "https://four.example.com/"},
		{URL: "https://five.example.org/"},
		{URL: "https://six.example.com/"},
	}
	pages := checker.fetchEvidence(context.Background(), hits)

	require.Len(t, pages, 4)
	urls := make([]string, len(pages))
	for i, p := range pages {
		urls[i] = p.URL
	}
	assert.Equal(t, []string{
		"https://three.example.gov/",
		"https://five.example.org/",
		"https://one.example.com/",
		"https://four.example.com/",
	}, urls)
	assert.Equal(t, 0.84, pages[0].Score)
	assert.Equal(t, 0.6, pages[3].Score)
}

func TestHeuristicLabel(t *testing.T) {
	pages := []models.EvidencePage{
		{Text: "The Eiffel Tower was completed in 1889"},
		{Text: "It stands in PARIS, France."},
	}

	tests := []struct {
		name       string
		assumption string
		want       models.Label
	}{
		{"three distinct terms", "Eiffel tower completed in Paris", models.LabelTrue},
		{"repeated terms count once", "eiffel eiffel eiffel tower", models.LabelUncertain},
		{"short words ignored", "The was in it", models.LabelUncertain},
		{"substring match", "towers complete stands", models.LabelUncertain},
		{"substring match counts", "tower complete stand", models.LabelTrue},
		{"nothing matches", "Moon landing happened in 1969", models.LabelUncertain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, heuristicLabel(tt.assumption, pages))
		})
	}

	assert.Equal(t, models.LabelUncertain, heuristicLabel("Eiffel tower completed", nil))
}

func evidence(n int, prefix string) []models.EvidencePage {
	pages := make([]models.EvidencePage, n)
	for i := range pages {
		pages[i] = models.EvidencePage{URL: prefix + string(rune('a'+i)), Domain: "example.com"}
	}
	return pages
}

func TestTopSources(t *testing.T) {
	t.Run("stops after the verification reaching four", func(t *testing.T) {
		got := topSources([]models.AssumptionVerification{
			{Evidence: evidence(3, "v1-")},
			{Evidence: evidence(4, "v2-")},
			{Evidence: evidence(2, "v3-")},
		})
		require.Len(t, got, 4)
		assert.Equal(t, "v1-a", got[0].URL)
		assert.Equal(t, "v1-b", got[1].URL)
		assert.Equal(t, "v2-a", got[2].URL)
		assert.Equal(t, "v2-b", got[3].URL)
	})

	t.Run("caps an overshoot at four", func(t *testing.T) {
		got := topSources([]models.AssumptionVerification{
			{Evidence: evidence(1, "v1-")},
			{Evidence: evidence(2, "v2-")},
			{Evidence: evidence(2, "v3-")},
			{Evidence: evidence(2, "v4-")},
		})
		require.Len(t, got, 4)
		assert.Equal(t, "v3-a", got[3].URL)
	})

	t.Run("fewer than four", func(t *testing.T) {
		got := topSources([]models.AssumptionVerification{
			{Evidence: nil},
			{Evidence: evidence(1, "v2-")},
		})
		require.Len(t, got, 1)
		assert.Equal(t, "example.com", got[0].Domain)
	})

	t.Run("none", func(t *testing.T) {
		assert.Empty(t, topSources(nil))
	})
}

func TestFormatPublished(t *testing.T) {
	assert.Nil(t, formatPublished(nil))

	whole := time.Date(2024, 2, 29, 23, 5, 9, 0, time.UTC)
	assert.Equal(t, "2024-02-29T23:05:09", *formatPublished(&whole))

	micro := time.Date(2024, 2, 29, 23, 5, 9, 120000000, time.UTC)
	assert.Equal(t, "2024-02-29T23:05:09.120000", *formatPublished(&micro))

	nanoOnly := time.Date(2024, 2, 29, 23, 5, 9, 999, time.UTC)
	assert.Equal(t, "2024-02-29T23:05:09", *formatPublished(&nanoOnly))
}
