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

	"github.com/factchecker/claimcheck/internal/models"
)

const pubMedEUtilsURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMed searches biomedical literature through the NCBI E-utilities.
type PubMed struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewPubMed creates a PubMed engine.
func NewPubMed(userAgent string, timeout time.Duration) *PubMed {
	return &PubMed{
		httpClient: newHTTPClient(timeout),
		baseURL:    pubMedEUtilsURL,
		userAgent:  userAgent,
	}
}

// Name returns the engine name.
func (c *PubMed) Name() string {
	return "pubmed"
}

type pubmedSearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummary struct {
	Title   string `json:"title"`
	PubDate string `json:"pubdate"`
	Source  string `json:"source"`
}

type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// Search returns article hits in PubMed relevance order.
func (c *PubMed) Search(ctx context.Context, query string, maxResults int) ([]models.SearchHit, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("retmode", "json")

	var ids pubmedSearchResponse
	if err := c.getJSON(ctx, "/esearch.fcgi?"+params.Encode(), &ids); err != nil {
		return nil, fmt.Errorf("PubMed search failed: %w", err)
	}
	if len(ids.ESearchResult.IDList) == 0 {
		return nil, nil
	}

	params = url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids.ESearchResult.IDList, ","))
	params.Set("retmode", "json")

	var summaries pubmedSummaryResponse
	if err := c.getJSON(ctx, "/esummary.fcgi?"+params.Encode(), &summaries); err != nil {
		return nil, fmt.Errorf("PubMed summary failed: %w", err)
	}

	var hits []models.SearchHit
	for _, pmid := range ids.ESearchResult.IDList {
		if len(hits) >= maxResults {
			break
		}
		raw, ok := summaries.Result[pmid]
		if !ok {
			continue
		}
		// "uids" sits next to the articles in the same object.
		var article pubmedSummary
		if err := json.Unmarshal(raw, &article); err != nil || article.Title == "" {
			continue
		}

		snippet := article.Title
		if article.Source != "" {
			snippet += fmt.Sprintf(" (Published in %s, %s)", article.Source, article.PubDate)
		}
		hits = append(hits, models.SearchHit{
			Title:   article.Title,
			URL:     fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", pmid),
			Snippet: snippet,
		})
	}

	return hits, nil
}

func (c *PubMed) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
