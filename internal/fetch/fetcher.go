// Package fetch downloads and parses evidence pages.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/factchecker/claimcheck/internal/config"
	"github.com/factchecker/claimcheck/internal/credibility"
	"github.com/factchecker/claimcheck/internal/models"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
)

const (
	maxTextRunes = 2000
	maxRedirects = 5
)

// ErrDisallowed is recorded on pages that robots.txt forbids fetching.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Fetcher downloads a URL and turns it into an evidence page.
type Fetcher interface {
	// Fetch never fails: retrieval problems are reported in the page's Error field.
	Fetch(ctx context.Context, rawURL string) models.EvidencePage
}

// HTTPFetcher fetches pages over HTTP with caching, per-domain rate
// limiting and optional robots.txt compliance.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	cache      *gocache.Cache
	limiter    *Limiter
	robots     *RobotsChecker
}

// NewHTTPFetcher creates a fetcher from the HTTP configuration.
func NewHTTPFetcher(cfg config.HTTPConfig) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	f := &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
	}

	if cfg.CacheTTL > 0 {
		f.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	if cfg.RequestsPerSecond > 0 {
		f.limiter = NewLimiter(cfg.RequestsPerSecond, 1)
	}
	if cfg.RespectRobots {
		f.robots = NewRobotsChecker(cfg.UserAgent, timeout)
	}
	return f
}

// Fetch downloads rawURL and extracts its title, paragraph text and
// publish date. Successful pages are cached by URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) models.EvidencePage {
	if f.cache != nil {
		if cached, ok := f.cache.Get(rawURL); ok {
			return cached.(models.EvidencePage)
		}
	}

	page, err := f.fetch(ctx, rawURL)
	if err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("Fetch failed")
		return models.EvidencePage{
			URL:    rawURL,
			Domain: credibility.DomainFromURL(rawURL),
			Error:  err.Error(),
		}
	}

	if f.cache != nil {
		f.cache.SetDefault(rawURL, page)
	}
	return page
}

func (f *HTTPFetcher) fetch(ctx context.Context, rawURL string) (models.EvidencePage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.EvidencePage{}, fmt.Errorf("create request: %w", err)
	}

	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		return models.EvidencePage{}, ErrDisallowed
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return models.EvidencePage{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return models.EvidencePage{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.EvidencePage{}, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return models.EvidencePage{}, fmt.Errorf("decode body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return models.EvidencePage{}, fmt.Errorf("parse html: %w", err)
	}

	page := extractPage(doc)
	page.URL = rawURL
	page.Domain = credibility.DomainFromURL(rawURL)
	return page, nil
}

// extractPage reads the title, the joined text of every paragraph and the
// publish date from a parsed document.
func extractPage(doc *goquery.Document) models.EvidencePage {
	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		paragraphs = append(paragraphs, strings.Join(strings.Fields(s.Text()), " "))
	})

	page := models.EvidencePage{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  truncateRunes(strings.Join(paragraphs, " "), maxTextRunes),
	}

	content, ok := doc.Find(`meta[property="article:published_time"]`).First().Attr("content")
	if !ok {
		content, ok = doc.Find(`meta[name="date"]`).First().Attr("content")
	}
	if ok {
		if t, err := ParsePublished(content); err == nil {
			page.Published = &t
		}
	}
	return page
}

// dateLayouts are the ISO-8601 shapes accepted for publish dates. Fractional
// seconds are accepted after the seconds field by time.Parse.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParsePublished parses an ISO-8601 date and drops its zone, keeping the
// wall clock as written.
func ParsePublished(value string) (time.Time, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), "Z", "+00:00")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return credibility.Naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
