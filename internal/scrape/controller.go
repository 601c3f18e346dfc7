package scrape

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/sales-intel/internal/search"
	"github.com/jonathan/sales-intel/internal/store"
)

// MaxConcurrentScrapes bounds how many pages are fetched in parallel.
const MaxConcurrentScrapes = 3

// DefaultMaxURLs is the default cap on pages scraped per company.
const DefaultMaxURLs = 10

// Controller discovers a company's URLs through search and scrapes them
// into a persisted CompanyData artifact.
type Controller struct {
	searcher *search.Service
	scraper  Scraper
	store    store.Store
	logger   *zap.Logger
	maxURLs  int
}

// NewController creates a scrape controller. maxURLs <= 0 uses the default cap.
func NewController(searcher *search.Service, scraper Scraper, st store.Store, logger *zap.Logger, maxURLs int) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxURLs <= 0 {
		maxURLs = DefaultMaxURLs
	}
	return &Controller{
		searcher: searcher,
		scraper:  scraper,
		store:    st,
		logger:   logger,
		maxURLs:  maxURLs,
	}
}

// candidate pairs a URL with its content category before scraping
type candidate struct {
	url         string
	contentType string
}

// ScrapeCompany searches for the company, scrapes the discovered pages and
// persists the result as the company's scraped-data artifact. The official
// website is scraped first; news and case studies fill the remaining slots.
func (c *Controller) ScrapeCompany(ctx context.Context, companyName string) (*CompanyData, string, error) {
	found, err := c.searcher.SearchCompany(ctx, companyName, search.DefaultOptions())
	if err != nil {
		return nil, "", err
	}

	candidates := collectCandidates(found, c.maxURLs)
	c.logger.Info("scraping company pages",
		zap.String("company", companyName),
		zap.Int("urls", len(candidates)))

	data := &CompanyData{
		CompanyName: companyName,
		Content:     make([]PageContent, len(candidates)),
		ScrapedAt:   time.Now().UTC(),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentScrapes)

	for i, cand := range candidates {
		g.Go(func() error {
			content := PageContent{URL: cand.url, ContentType: cand.contentType}
			page, serr := c.scraper.Scrape(gctx, cand.url)
			if serr != nil {
				c.logger.Warn("page scrape failed", zap.String("url", cand.url), zap.Error(serr))
				content.Error = serr.Error()
			} else {
				content.Title = page.Title
				content.Markdown = page.Markdown
				content.Success = true
			}

			mu.Lock()
			data.Content[i] = content
			if content.Success && cand.contentType == "official_website" {
				data.OfficialWebsite = content.Markdown
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	if data.SuccessCount() == 0 {
		return data, "", &Error{URL: found.OfficialWebsite, Message: "no pages could be scraped"}
	}

	ref, err := c.store.Save(ctx, companyName, store.KindScraped, data, store.Meta{})
	if err != nil {
		return nil, "", err
	}

	c.logger.Info("scraped data saved",
		zap.String("company", companyName),
		zap.Int("pages", data.SuccessCount()),
		zap.String("ref", ref))

	return data, ref, nil
}

// collectCandidates orders the discovered URLs: official site first, then
// news and case studies interleaved by search rank, deduplicated, capped at max.
func collectCandidates(found *search.CompanyResults, max int) []candidate {
	seen := make(map[string]bool)
	var out []candidate

	add := func(url, contentType string) {
		if url == "" || seen[url] || len(out) >= max {
			return
		}
		seen[url] = true
		out = append(out, candidate{url: url, contentType: contentType})
	}

	add(found.OfficialWebsite, "official_website")
	for i := 0; i < len(found.NewsArticles) || i < len(found.CaseStudies); i++ {
		if i < len(found.NewsArticles) {
			add(found.NewsArticles[i].URL, "news_article")
		}
		if i < len(found.CaseStudies) {
			add(found.CaseStudies[i].URL, "case_study")
		}
	}

	return out
}
