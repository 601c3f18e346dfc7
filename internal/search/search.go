// Package search provides the web search collaborators used to discover
// company URLs before scraping. Two providers are supported: Google Custom
// Search and Perplexity.
package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Provider selects a search backend
type Provider string

// Supported search providers
const (
	ProviderGoogle     Provider = "google"
	ProviderPerplexity Provider = "perplexity"
)

// Result is one search hit
type Result struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Searcher performs a single keyword search
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Error represents a search provider failure
type Error struct {
	Provider Provider
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("search error (%s): %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("search error (%s): %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Config holds provider credentials
type Config struct {
	GoogleAPIKey     string
	GoogleCSEID      string
	PerplexityAPIKey string
}

// New creates a Searcher for the given provider
func New(ctx context.Context, provider Provider, cfg Config) (Searcher, error) {
	switch provider {
	case ProviderPerplexity:
		return NewPerplexitySearcher(cfg.PerplexityAPIKey), nil
	case ProviderGoogle, "":
		return NewGoogleSearcher(ctx, cfg.GoogleAPIKey, cfg.GoogleCSEID)
	default:
		return nil, fmt.Errorf("unknown search provider %q", provider)
	}
}

// CompanyResults groups search hits for one company by content category
type CompanyResults struct {
	CompanyName     string   `json:"company_name"`
	OfficialWebsite string   `json:"official_website,omitempty"`
	NewsArticles    []Result `json:"news_articles"`
	CaseStudies     []Result `json:"case_studies"`
}

// Options configures a company search
type Options struct {
	IncludeNews        bool
	IncludeCaseStudies bool
	MaxPerCategory     int
}

// DefaultOptions returns the default company search options
func DefaultOptions() Options {
	return Options{IncludeNews: true, IncludeCaseStudies: true, MaxPerCategory: 5}
}

// Service runs categorized searches for a company using one Searcher
type Service struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewService creates a company search service
func NewService(searcher Searcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{searcher: searcher, logger: logger}
}

// SearchCompany searches for the company's official site, news and case studies.
// Individual keyword failures are logged and skipped; the result is empty only
// when every search fails.
func (s *Service) SearchCompany(ctx context.Context, companyName string, opts Options) (*CompanyResults, error) {
	if opts.MaxPerCategory <= 0 {
		opts.MaxPerCategory = 5
	}

	results := &CompanyResults{
		CompanyName:  companyName,
		NewsArticles: []Result{},
		CaseStudies:  []Result{},
	}

	name := strings.ToLower(companyName)

	official := s.keywordSearch(ctx, []string{name, name + " official website"}, opts.MaxPerCategory)
	results.OfficialWebsite = identifyOfficialWebsite(companyName, official)

	if opts.IncludeNews {
		results.NewsArticles = s.keywordSearch(ctx,
			[]string{name + " news", name + " latest news", name + " press release"},
			opts.MaxPerCategory)
	}
	if opts.IncludeCaseStudies {
		results.CaseStudies = s.keywordSearch(ctx,
			[]string{name + " case study", name + " customer success story", name + " use case"},
			opts.MaxPerCategory)
	}

	if results.OfficialWebsite == "" && len(results.NewsArticles) == 0 && len(results.CaseStudies) == 0 {
		return nil, &Error{Message: fmt.Sprintf("no search results for %s", companyName)}
	}
	return results, nil
}

// keywordSearch runs each keyword and merges deduplicated, filtered results
func (s *Service) keywordSearch(ctx context.Context, keywords []string, maxResults int) []Result {
	var merged []Result
	seen := make(map[string]bool)

	for _, keyword := range keywords {
		hits, err := s.searcher.Search(ctx, keyword, 10)
		if err != nil {
			s.logger.Warn("keyword search failed", zap.String("keyword", keyword), zap.Error(err))
			continue
		}
		for _, hit := range hits {
			if hit.URL == "" || seen[hit.URL] || !isValidURL(hit.URL) {
				continue
			}
			seen[hit.URL] = true
			hit.Type = classifyResult(hit)
			merged = append(merged, hit)
			if len(merged) >= maxResults {
				return merged
			}
		}
	}
	return merged
}

// classifyResult labels a hit as case_study, news, potential_official or other
func classifyResult(hit Result) string {
	title := strings.ToLower(hit.Title)
	url := strings.ToLower(hit.URL)
	switch {
	case strings.Contains(title, "case study") || strings.Contains(url, "case-study"):
		return "case_study"
	case strings.Contains(url, "news") || strings.Contains(url, "press") || strings.Contains(url, "blog"):
		return "news"
	case strings.Contains(url, ".com/") || strings.Contains(url, ".io/") || strings.Contains(url, ".ai/"):
		return "potential_official"
	default:
		return "other"
	}
}

// Social profiles and aggregators are never useful scrape targets
var excludedURLPatterns = []string{
	"facebook.com", "twitter.com", "linkedin.com/company",
	"youtube.com", "reddit.com", "instagram.com",
}

func isValidURL(url string) bool {
	lower := strings.ToLower(url)
	for _, pattern := range excludedURLPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return true
}

var domainRe = regexp.MustCompile(`https?://(?:www\.)?([^/]+)`)

// identifyOfficialWebsite picks the company's own site from official-site hits
func identifyOfficialWebsite(companyName string, hits []Result) string {
	if len(hits) == 0 {
		return ""
	}
	slug := strings.NewReplacer(" ", "", ",", "").Replace(strings.ToLower(companyName))

	for _, hit := range hits {
		if hit.Type == "potential_official" {
			return hit.URL
		}
	}
	for _, hit := range hits {
		if m := domainRe.FindStringSubmatch(strings.ToLower(hit.URL)); m != nil && strings.Contains(m[1], slug) {
			return hit.URL
		}
	}
	return hits[0].URL
}
