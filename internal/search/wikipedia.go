package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/factchecker/claimcheck/internal/models"
	"github.com/rs/zerolog/log"
)

// Wikipedia searches one language edition through the MediaWiki API.
type Wikipedia struct {
	httpClient *http.Client
	apiURL     string
	lang       string
	userAgent  string
}

// NewWikipedia creates a Wikipedia engine for the given language code.
func NewWikipedia(lang, userAgent string, timeout time.Duration) *Wikipedia {
	if lang == "" {
		lang = "en"
	}
	return &Wikipedia{
		httpClient: newHTTPClient(timeout),
		apiURL:     fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang),
		lang:       lang,
		userAgent:  userAgent,
	}
}

// Name returns the engine name.
func (c *Wikipedia) Name() string {
	return "wikipedia"
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// Search returns article hits ranked by the MediaWiki search backend.
func (c *Wikipedia) Search(ctx context.Context, query string, maxResults int) ([]models.SearchHit, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(maxResults))
	params.Set("srprop", "snippet")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Wikipedia search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Wikipedia returned status %d", resp.StatusCode)
	}

	var data wikiSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]models.SearchHit, 0, len(data.Query.Search))
	for _, r := range data.Query.Search {
		if len(hits) >= maxResults {
			break
		}
		hits = append(hits, models.SearchHit{
			Title:   r.Title,
			URL:     fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", c.lang, url.PathEscape(strings.ReplaceAll(r.Title, " ", "_"))),
			Snippet: stripMarkup(r.Snippet),
		})
	}

	log.Debug().Str("lang", c.lang).Int("count", len(hits)).Msg("Wikipedia: Search completed")
	return hits, nil
}

// stripMarkup returns the text content of an HTML fragment such as the
// search-match highlighting in MediaWiki snippets.
func stripMarkup(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
