package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sales-intel/internal/search"
)

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("short"))
	assert.True(t, ShouldUseBrowser("   \n  "))
	assert.False(t, ShouldUseBrowser(strings.Repeat("content ", 100)))
}

func TestExtractMainText_SelectorsAndNoise(t *testing.T) {
	html := `<html><head><title>Acme - About</title></head><body>
		<nav>Home About Contact</nav>
		<main><p>Acme builds industrial anvils.</p></main>
		<footer>Copyright Acme</footer>
		<script>var x = 1;</script>
	</body></html>`

	title, text, err := extractMainText(html, defaultTextSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Acme - About", title)
	assert.Contains(t, text, "industrial anvils")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "var x")
}

func TestExtractMainText_BodyFallback(t *testing.T) {
	html := `<html><body><div><p>Plain body content.</p></div></body></html>`
	_, text, err := extractMainText(html, defaultTextSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Plain body content.")
}

func TestCleanWhitespace(t *testing.T) {
	in := "  one  \n\n\n   two\n\t\nthree  "
	assert.Equal(t, "one\ntwo\nthree", cleanWhitespace(in))
}

func TestDirectScraper_Scrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Acme</title></head><body><main>` +
			strings.Repeat("<p>Acme builds industrial anvils for coyotes.</p>", 30) +
			`</main></body></html>`))
	}))
	defer srv.Close()

	s := NewDirectScraper(false)
	page, err := s.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, page.URL)
	assert.Contains(t, page.Markdown, "industrial anvils")
}

func TestDirectScraper_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewDirectScraper(false)
	_, err := s.Scrape(context.Background(), srv.URL)
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Message, "403")
}

func TestDirectScraper_InvalidURL(t *testing.T) {
	s := NewDirectScraper(false)
	_, err := s.Scrape(context.Background(), "not a url")
	require.Error(t, err)
}

func TestFirecrawlScraper_Scrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"# Acme\nAnvils.","metadata":{"title":"Acme"}}}`))
	}))
	defer srv.Close()

	s := NewFirecrawlScraper("fc-test")
	s.baseURL = srv.URL

	page, err := s.Scrape(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "Acme", page.Title)
	assert.Contains(t, page.Markdown, "Anvils")
}

func TestFirecrawlScraper_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error":"blocked"}`))
	}))
	defer srv.Close()

	s := NewFirecrawlScraper("fc-test")
	s.baseURL = srv.URL

	_, err := s.Scrape(context.Background(), "https://acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestFirecrawlScraper_MissingKey(t *testing.T) {
	s := NewFirecrawlScraper("")
	_, err := s.Scrape(context.Background(), "https://acme.com")
	require.Error(t, err)
}

func TestCollectCandidates(t *testing.T) {
	found := &search.CompanyResults{
		CompanyName:     "Acme",
		OfficialWebsite: "https://acme.com",
		NewsArticles: []search.Result{
			{URL: "https://news.example.org/acme-raises"},
			{URL: "https://acme.com"}, // duplicate of official site
			{URL: "https://press.example.org/acme"},
		},
		CaseStudies: []search.Result{
			{URL: "https://example.org/case-study/acme"},
		},
	}

	got := collectCandidates(found, 10)
	require.Len(t, got, 4)
	assert.Equal(t, candidate{url: "https://acme.com", contentType: "official_website"}, got[0])
	assert.Equal(t, "news_article", got[1].contentType)
	assert.Equal(t, "case_study", got[2].contentType)

	// Cap applies after the official site
	got = collectCandidates(found, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "official_website", got[0].contentType)
}

func TestCompanyData_SuccessCount(t *testing.T) {
	// The official website is one of the content pages, so it counts once.
	d := &CompanyData{
		OfficialWebsite: "Acme makes anvils.",
		Content: []PageContent{
			{ContentType: "official_website", Markdown: "Acme makes anvils.", Success: true},
			{Success: false, Error: "timeout"},
			{Success: true},
		},
	}
	assert.Equal(t, 2, d.SuccessCount())
}
