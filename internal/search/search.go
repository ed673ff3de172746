// Package search finds candidate evidence pages for an assumption.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/factchecker/claimcheck/internal/config"
	"github.com/factchecker/claimcheck/internal/models"
	"github.com/rs/zerolog/log"
)

// Searcher returns web search hits for a query.
type Searcher interface {
	// Search returns at most maxResults hits, best first.
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchHit, error)
}

// Engine is a single named search backend.
type Engine interface {
	Searcher

	// Name returns the engine name.
	Name() string
}

const defaultMaxResults = 6

// MultiSearcher queries several engines concurrently and merges their hits
// in engine order.
type MultiSearcher struct {
	engines    []Engine
	maxResults int // used when a caller passes no limit
}

// NewMultiSearcher creates a searcher over the given engines.
func NewMultiSearcher(engines ...Engine) *MultiSearcher {
	return &MultiSearcher{engines: engines, maxResults: defaultMaxResults}
}

// NewFromConfig builds the engines listed in the search configuration.
func NewFromConfig(cfg config.SearchConfig, httpCfg config.HTTPConfig) (*MultiSearcher, error) {
	timeout := httpCfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	engines := make([]Engine, 0, len(cfg.Engines))
	for _, name := range cfg.Engines {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "duckduckgo", "ddg":
			engines = append(engines, NewDuckDuckGo(cfg.Region, cfg.SafeSearch, timeout))
		case "wikipedia":
			engines = append(engines, NewWikipedia(languageFromRegion(cfg.Region), httpCfg.UserAgent, timeout))
		case "pubmed":
			engines = append(engines, NewPubMed(httpCfg.UserAgent, timeout))
		default:
			return nil, fmt.Errorf("unsupported search engine: %s", name)
		}
	}
	if len(engines) == 0 {
		return nil, errors.New("no search engines configured")
	}

	m := NewMultiSearcher(engines...)
	if cfg.MaxResults > 0 {
		m.maxResults = cfg.MaxResults
	}
	return m, nil
}

// MaxResults is the limit applied when Search is called without one.
func (m *MultiSearcher) MaxResults() int {
	return m.maxResults
}

// Engines returns the names of the configured engines.
func (m *MultiSearcher) Engines() []string {
	names := make([]string, len(m.engines))
	for i, e := range m.engines {
		names[i] = e.Name()
	}
	return names
}

type engineResult struct {
	hits []models.SearchHit
	err  error
}

// Search asks every engine for maxResults hits, then concatenates them in
// engine order, dropping duplicate URLs. It fails only when every engine
// fails.
func (m *MultiSearcher) Search(ctx context.Context, query string, maxResults int) ([]models.SearchHit, error) {
	if len(m.engines) == 0 {
		return nil, errors.New("no search engines configured")
	}
	if maxResults <= 0 {
		maxResults = m.maxResults
	}

	results := make([]engineResult, len(m.engines))
	var wg sync.WaitGroup
	for i, engine := range m.engines {
		wg.Add(1)
		go func(i int, e Engine) {
			defer wg.Done()
			hits, err := e.Search(ctx, query, maxResults)
			if err != nil {
				err = fmt.Errorf("%s: %w", e.Name(), err)
			}
			results[i] = engineResult{hits: hits, err: err}
		}(i, engine)
	}
	wg.Wait()

	var (
		hits []models.SearchHit
		errs []error
		seen = make(map[string]bool)
	)
	for _, r := range results {
		if r.err != nil {
			log.Warn().Err(r.err).Str("query", query).Msg("Search engine failed")
			errs = append(errs, r.err)
			continue
		}
		for _, h := range r.hits {
			if h.URL == "" || seen[h.URL] {
				continue
			}
			seen[h.URL] = true
			hits = append(hits, h)
		}
	}

	if len(errs) == len(m.engines) {
		return nil, errors.Join(errs...)
	}
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	log.Debug().Str("query", query).Int("hits", len(hits)).Msg("Search completed")
	return hits, nil
}

// languageFromRegion maps a DuckDuckGo region code such as "in-en" to its
// language part.
func languageFromRegion(region string) string {
	if _, lang, ok := strings.Cut(region, "-"); ok && lang != "" {
		return strings.ToLower(lang)
	}
	return "en"
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
