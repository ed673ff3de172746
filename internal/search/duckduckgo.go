package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/factchecker/claimcheck/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	duckDuckGoHTMLURL = "https://html.duckduckgo.com/html/"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// DuckDuckGo scrapes the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	httpClient *http.Client
	baseURL    string
	region     string
	safeSearch string
}

// NewDuckDuckGo creates a DuckDuckGo engine for a region such as "in-en"
// and a safe-search level of strict, moderate or off.
func NewDuckDuckGo(region, safeSearch string, timeout time.Duration) *DuckDuckGo {
	return &DuckDuckGo{
		httpClient: newHTTPClient(timeout),
		baseURL:    duckDuckGoHTMLURL,
		region:     region,
		safeSearch: safeSearch,
	}
}

// Name returns the engine name.
func (c *DuckDuckGo) Name() string {
	return "duckduckgo"
}

// Search returns organic results in page order, skipping ads.
func (c *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]models.SearchHit, error) {
	params := url.Values{}
	params.Set("q", query)
	if c.region != "" {
		params.Set("kl", c.region)
	}
	if kp := safeSearchParam(c.safeSearch); kp != "" {
		params.Set("kp", kp)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var hits []models.SearchHit
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(hits) >= maxResults {
			return false
		}
		if s.HasClass("result--ad") {
			return true
		}

		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := decodeRedirectURL(href)
		if target == "" || strings.Contains(target, "duckduckgo.com/") {
			return true
		}

		hits = append(hits, models.SearchHit{
			Title:   strings.TrimSpace(link.Text()),
			URL:     target,
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
		return true
	})

	log.Debug().Str("query", query).Int("count", len(hits)).Msg("DuckDuckGo: Search completed")
	return hits, nil
}

// decodeRedirectURL extracts the target from a DuckDuckGo redirect link
// ("//duckduckgo.com/l/?uddg=..."). Other links are returned unchanged.
func decodeRedirectURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "uddg=") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return raw
}

func safeSearchParam(level string) string {
	switch strings.ToLower(level) {
	case "strict":
		return "1"
	case "moderate":
		return "-1"
	case "off":
		return "-2"
	default:
		return ""
	}
}
