package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	firecrawlBaseURL = "https://api.firecrawl.dev/v1"
	firecrawlTimeout = 60 * time.Second
)

// FirecrawlScraper scrapes URLs through the Firecrawl API
type FirecrawlScraper struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewFirecrawlScraper creates a Firecrawl client
func NewFirecrawlScraper(apiKey string) *FirecrawlScraper {
	return &FirecrawlScraper{
		apiKey:  apiKey,
		baseURL: firecrawlBaseURL,
		client:  &http.Client{Timeout: firecrawlTimeout},
	}
}

type firecrawlRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type firecrawlResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title string `json:"title"`
		} `json:"metadata"`
	} `json:"data"`
	Error string `json:"error"`
}

// Scrape fetches one URL as markdown through Firecrawl
func (f *FirecrawlScraper) Scrape(ctx context.Context, url string) (*Page, error) {
	if f.apiKey == "" {
		return nil, &Error{URL: url, Message: "FIRECRAWL_API_KEY is not set"}
	}

	body, err := json.Marshal(firecrawlRequest{URL: url, Formats: []string{"markdown"}})
	if err != nil {
		return nil, &Error{URL: url, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{URL: url, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &Error{URL: url, Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(text))}
	}

	var parsed firecrawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{URL: url, Message: "failed to decode response", Cause: err}
	}
	if !parsed.Success {
		return nil, &Error{URL: url, Message: "firecrawl reported failure: " + parsed.Error}
	}
	if parsed.Data.Markdown == "" {
		return nil, &Error{URL: url, Message: "empty markdown in response"}
	}

	return &Page{
		URL:      url,
		Title:    parsed.Data.Metadata.Title,
		Markdown: parsed.Data.Markdown,
	}, nil
}
