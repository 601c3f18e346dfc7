// Package sources assembles the company context fed to every generation
// stage. Web scraped content is mandatory and loaded from the artifact store
// (with a live scrape fallback); CRM summaries and PDF documents are optional
// and joined under labeled sections, trimmed to the character budget.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/sales-intel/internal/crm"
	"github.com/jonathan/sales-intel/internal/pdfx"
	"github.com/jonathan/sales-intel/internal/scrape"
	"github.com/jonathan/sales-intel/internal/store"
)

// DefaultMaxChars is the default context character budget.
const DefaultMaxChars = 15000

// MinMaxChars is the smallest usable budget. Below it the fixed section
// headers and truncation markers alone can exceed the requested size.
const MinMaxChars = 500

// truncationMarker is appended wherever a section was cut to fit the budget.
const truncationMarker = "\n[...truncated]"

// Section labels, in priority order. When the assembled context exceeds the
// budget, sections are trimmed from the bottom of this list upward; web
// content is always trimmed last.
const (
	LabelWeb = "WEB SCRAPED CONTENT"
	LabelCRM = "CRM CUSTOMER DATA"
	LabelPDF = "PDF DOCUMENTS"
)

// ErrNoWebData indicates no scraped data exists and none could be produced.
var ErrNoWebData = errors.New("sources: no web data available")

// Section is one labeled block of the assembled context
type Section struct {
	Label     string `json:"label"`
	Text      string `json:"-"`
	Chars     int    `json:"chars"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Context is the assembled per-request company context. It is built fresh
// for each stage invocation and never persisted.
type Context struct {
	CompanyName string    `json:"company_name"`
	Text        string    `json:"-"`
	Sections    []Section `json:"sections"`
	TotalChars  int       `json:"total_chars"`
}

// Options configures context assembly
type Options struct {
	MaxChars   int
	IncludeCRM bool
	IncludePDF bool
}

// DefaultOptions returns the standard assembly options.
func DefaultOptions() Options {
	return Options{MaxChars: DefaultMaxChars, IncludeCRM: true, IncludePDF: true}
}

// Aggregator builds company contexts from the stored and on-disk sources.
// The scrape controller is optional; without it a missing scraped artifact
// is a hard ErrNoWebData.
type Aggregator struct {
	store   store.Store
	scraper *scrape.Controller
	crm     *crm.Loader
	pdfs    *pdfx.Loader
	logger  *zap.Logger
}

// NewAggregator creates a context aggregator.
func NewAggregator(st store.Store, scraper *scrape.Controller, crmLoader *crm.Loader, pdfLoader *pdfx.Loader, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: st, scraper: scraper, crm: crmLoader, pdfs: pdfLoader, logger: logger}
}

// Prepare assembles the context for one company within opts.MaxChars.
func (a *Aggregator) Prepare(ctx context.Context, companyName string, opts Options) (*Context, error) {
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.MaxChars < MinMaxChars {
		opts.MaxChars = MinMaxChars
	}

	web, err := a.loadWeb(ctx, companyName)
	if err != nil {
		return nil, err
	}

	sections := []Section{{Label: LabelWeb, Text: web}}

	if opts.IncludeCRM && a.crm != nil {
		summary, err := a.crm.Summary()
		switch {
		case errors.Is(err, crm.ErrNoData):
			a.logger.Info("CRM source unavailable, skipping", zap.String("company", companyName))
		case err != nil:
			return nil, err
		default:
			sections = append(sections, Section{Label: LabelCRM, Text: summary})
		}
	}

	if opts.IncludePDF && a.pdfs != nil {
		docs, err := a.pdfs.LoadAll()
		if err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			a.logger.Info("PDF source unavailable, skipping", zap.String("company", companyName))
		} else {
			sections = append(sections, Section{Label: LabelPDF, Text: renderDocs(docs)})
		}
	}

	assembled := assemble(companyName, sections, opts.MaxChars)

	a.logger.Info("context prepared",
		zap.String("company", companyName),
		zap.Int("sections", len(assembled.Sections)),
		zap.Int("chars", assembled.TotalChars))

	return assembled, nil
}

// loadWeb returns the web content text for a company, preferring the stored
// scraped artifact and falling back to a live scrape when a controller is set.
func (a *Aggregator) loadWeb(ctx context.Context, companyName string) (string, error) {
	var data scrape.CompanyData

	artifact, err := store.LoadLatest(ctx, a.store, companyName, store.KindScraped)
	switch {
	case err == nil:
		if derr := artifact.DecodePayload(&data); derr != nil {
			return "", derr
		}
	case errors.Is(err, store.ErrNotFound):
		if a.scraper == nil {
			return "", ErrNoWebData
		}
		a.logger.Info("no cached data found, starting scrape", zap.String("company", companyName))
		scraped, _, serr := a.scraper.ScrapeCompany(ctx, companyName)
		if serr != nil {
			return "", fmt.Errorf("%w: %v", ErrNoWebData, serr)
		}
		data = *scraped
	default:
		return "", err
	}

	text := renderWeb(&data)
	if strings.TrimSpace(text) == "" {
		return "", ErrNoWebData
	}
	return text, nil
}

// renderWeb joins scraped pages, official website first.
func renderWeb(data *scrape.CompanyData) string {
	var parts []string
	if data.OfficialWebsite != "" {
		parts = append(parts, "OFFICIAL WEBSITE:\n"+data.OfficialWebsite)
	}
	for _, item := range data.Content {
		if !item.Success || item.Markdown == "" {
			continue
		}
		if item.ContentType == "official_website" && data.OfficialWebsite != "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- %s ---\nURL: %s\n\n%s",
			strings.ToUpper(item.ContentType), item.URL, item.Markdown))
	}
	return strings.Join(parts, "\n\n")
}

// renderDocs joins extracted PDF documents with filename headers.
func renderDocs(docs []*pdfx.Document) string {
	var parts []string
	for _, doc := range docs {
		parts = append(parts, fmt.Sprintf("--- %s (%d pages) ---\n%s",
			doc.Filename, doc.PageCount, doc.Text))
	}
	return strings.Join(parts, "\n\n")
}
