package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/factchecker/claimcheck/internal/config"
	"github.com/factchecker/claimcheck/internal/credibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.HTTPConfig {
	return config.HTTPConfig{
		Timeout:      2 * time.Second,
		UserAgent:    "AI-FactCheckerBot/1.0",
		MaxBodyBytes: 1 << 20,
		CacheTTL:     time.Minute,
	}
}

const articleHTML = `<html><head>
<title>  Eiffel Tower facts </title>
<meta property="article:published_time" content="2024-03-05T10:20:30Z">
</head><body>
<p>The Eiffel   Tower is
 330 metres tall.</p>
<div>not a paragraph</div>
<p>It opened in <b>1889</b>.</p>
</body></html>`

func TestFetch_ParsesPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AI-FactCheckerBot/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, articleHTML)
	}))
	defer server.Close()

	page := NewHTTPFetcher(testConfig()).Fetch(context.Background(), server.URL+"/eiffel")

	assert.Empty(t, page.Error)
	assert.Equal(t, server.URL+"/eiffel", page.URL)
	assert.Equal(t, credibility.DomainFromURL(server.URL), page.Domain)
	assert.Equal(t, "Eiffel Tower facts", page.Title)
	assert.Equal(t, "The Eiffel Tower is 330 metres tall. It opened in 1889.", page.Text)
	require.NotNil(t, page.Published)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), *page.Published)
}

func TestFetch_MetaDateFallbackAndBadDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dated":
			_, _ = fmt.Fprint(w, `<html><head><meta name="date" content="2023-11-02"></head><body><p>x</p></body></html>`)
		case "/bad":
			_, _ = fmt.Fprint(w, `<html><head><meta property="article:published_time" content="last tuesday"></head><body><p>x</p></body></html>`)
		}
	}))
	defer server.Close()

	f := NewHTTPFetcher(testConfig())

	dated := f.Fetch(context.Background(), server.URL+"/dated")
	require.NotNil(t, dated.Published)
	assert.Equal(t, time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC), *dated.Published)

	bad := f.Fetch(context.Background(), server.URL+"/bad")
	assert.Empty(t, bad.Error)
	assert.Nil(t, bad.Published)
}

func TestFetch_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := NewHTTPFetcher(testConfig())

	for _, u := range []string{server.URL + "/missing", "::not a url", "ftp://example.com/file"} {
		page := f.Fetch(context.Background(), u)
		assert.NotEmpty(t, page.Error, u)
		assert.Equal(t, u, page.URL)
		assert.Empty(t, page.Title)
		assert.Empty(t, page.Text)
		assert.Nil(t, page.Published)
	}
}

func TestFetch_TruncatesText(t *testing.T) {
	long := strings.Repeat("ü", 3000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", long)
	}))
	defer server.Close()

	page := NewHTTPFetcher(testConfig()).Fetch(context.Background(), server.URL)
	assert.Equal(t, maxTextRunes, len([]rune(page.Text)))
}

func TestFetch_DecodesCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<html><head><title>Caf\xe9</title></head><body><p>cr\xe8me</p></body></html>"))
	}))
	defer server.Close()

	page := NewHTTPFetcher(testConfig()).Fetch(context.Background(), server.URL)
	assert.Equal(t, "Café", page.Title)
	assert.Equal(t, "crème", page.Text)
}

func TestFetch_Idempotent(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, articleHTML)
	}))
	defer server.Close()

	cached := NewHTTPFetcher(testConfig())
	first := cached.Fetch(context.Background(), server.URL)
	second := cached.Fetch(context.Background(), server.URL)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())

	cfg := testConfig()
	cfg.CacheTTL = 0
	uncached := NewHTTPFetcher(cfg)
	assert.Equal(t, first, uncached.Fetch(context.Background(), server.URL))
	assert.Equal(t, first, uncached.Fetch(context.Background(), server.URL))
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetch_FailuresAreNotCached(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, articleHTML)
	}))
	defer server.Close()

	f := NewHTTPFetcher(testConfig())
	assert.NotEmpty(t, f.Fetch(context.Background(), server.URL).Error)
	assert.Empty(t, f.Fetch(context.Background(), server.URL).Error)
}

func TestFetch_RespectsRobots(t *testing.T) {
	var privateHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = fmt.Fprint(w, "User-agent: AI-FactCheckerBot\nDisallow: /private\n")
		case "/private/page":
			privateHits.Add(1)
			_, _ = fmt.Fprint(w, articleHTML)
		default:
			_, _ = fmt.Fprint(w, articleHTML)
		}
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.RespectRobots = true
	f := NewHTTPFetcher(cfg)

	blocked := f.Fetch(context.Background(), server.URL+"/private/page")
	assert.Equal(t, ErrDisallowed.Error(), blocked.Error)
	assert.Equal(t, int32(0), privateHits.Load())

	open := f.Fetch(context.Background(), server.URL+"/public")
	assert.Empty(t, open.Error)
	assert.Equal(t, "Eiffel Tower facts", open.Title)
}

func TestRobotsChecker_MissingFileAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	r := NewRobotsChecker("AI-FactCheckerBot/1.0", time.Second)
	assert.True(t, r.Allowed(context.Background(), server.URL+"/anything"))
	assert.True(t, r.Allowed(context.Background(), "http://127.0.0.1:1/unreachable"))
}

func TestProductToken(t *testing.T) {
	assert.Equal(t, "AI-FactCheckerBot", productToken("AI-FactCheckerBot/1.0"))
	assert.Equal(t, "Mozilla", productToken("Mozilla/5.0 (X11)"))
	assert.Equal(t, "", productToken(""))
}

func TestParsePublished(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-05T10:20:30Z", time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{"2024-03-05T10:20:30+05:30", time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{"2024-03-05T10:20:30.123456-04:00", time.Date(2024, 3, 5, 10, 20, 30, 123456000, time.UTC)},
		{"2024-03-05T10:20:30", time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{"2024-03-05 10:20", time.Date(2024, 3, 5, 10, 20, 0, 0, time.UTC)},
		{" 2024-03-05 ", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParsePublished(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "yesterday", "05/03/2024", "2024-13-40"} {
		_, err := ParsePublished(bad)
		assert.Error(t, err, bad)
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(1, 1)
	require.NoError(t, l.Wait(context.Background(), "https://example.com/a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx, "https://example.com/b"))

	// Other hosts have their own budget.
	assert.NoError(t, l.Wait(context.Background(), "https://example.org/a"))
}
