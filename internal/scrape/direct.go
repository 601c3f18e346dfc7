package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; SalesIntelAgent/1.0)"

// DirectScraper fetches pages over plain HTTP and extracts readable text.
// Pages that render through JavaScript fall back to a headless browser
// when one is enabled.
type DirectScraper struct {
	timeout    time.Duration
	userAgent  string
	useBrowser bool
}

// NewDirectScraper creates a scraper with default settings.
func NewDirectScraper(useBrowser bool) *DirectScraper {
	return &DirectScraper{
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		useBrowser: useBrowser,
	}
}

// Scrape retrieves a URL and returns its main content as text.
func (d *DirectScraper) Scrape(ctx context.Context, urlStr string) (*Page, error) {
	html, err := d.fetchHTML(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	title, text := extractReadable(urlStr, html)

	if ShouldUseBrowser(text) && d.useBrowser {
		rendered, berr := WithBrowser(ctx, urlStr, d.timeout)
		if berr == nil {
			if btitle, btext := extractReadable(urlStr, rendered); len(btext) > len(text) {
				title, text = btitle, btext
			}
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil, &Error{URL: urlStr, Message: "no readable content extracted"}
	}

	return &Page{URL: urlStr, Title: title, Markdown: text}, nil
}

// fetchHTML retrieves raw HTML content from a URL.
func (d *DirectScraper) fetchHTML(ctx context.Context, urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := &http.Client{Timeout: d.timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	return string(body), nil
}

// extractReadable tries readability first, then falls back to selector
// based extraction for pages readability cannot parse.
func extractReadable(urlStr, html string) (title, text string) {
	parsedURL, _ := url.Parse(urlStr)
	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.Title, cleanWhitespace(article.TextContent)
	}

	title, text, err = extractMainText(html, defaultTextSelectors())
	if err != nil {
		return "", ""
	}
	return title, text
}

// extractMainText parses HTML and returns the page title and main body text.
// It removes noise elements, then finds content using contentSelectors.
// If no content selectors match, it falls back to the body element.
func extractMainText(html string, contentSelectors []string) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	// Remove common unwanted elements (nav, footer, scripts, ads, etc.)
	doc.Find("nav, footer, header, script, style, noscript, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup").Remove()

	// Try to find main content using provided selectors
	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}

	// Fallback to body if no selector matched
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return title, cleanWhitespace(mainContent.Text()), nil
}

// defaultTextSelectors returns standard selectors for general web content.
func defaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// cleanWhitespace normalizes whitespace in text.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
