// Package scrape provides the scraping collaborators that turn company URLs
// into text content. The primary backend is the Firecrawl API; a direct HTTP
// scraper (readability extraction with a goquery fallback, plus optional
// headless-browser rendering for SPA pages) serves as the local alternative.
package scrape

import (
	"context"
	"fmt"
	"time"
)

// Page is the text content extracted from one URL
type Page struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Markdown string `json:"markdown"`
}

// Scraper fetches one URL and extracts its text content
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Page, error)
}

// Error represents a scraping failure for one URL
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scrape error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("scrape error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// PageContent is one scraped page within a company's stored scraped data
type PageContent struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Title       string `json:"title,omitempty"`
	Markdown    string `json:"markdown,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// CompanyData is the scraped-data artifact persisted per company.
// OfficialWebsite holds the text of the company's own site; Content holds
// the remaining scraped pages in search-priority order.
type CompanyData struct {
	CompanyName     string        `json:"company_name"`
	OfficialWebsite string        `json:"official_website,omitempty"`
	Content         []PageContent `json:"scraped_content"`
	ScrapedAt       time.Time     `json:"scraped_at"`
}

// SuccessCount returns the number of successfully scraped pages
func (d *CompanyData) SuccessCount() int {
	n := 0
	for _, item := range d.Content {
		if item.Success {
			n++
		}
	}
	return n
}
