package search

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
	perplexityBaseURL = "https://api.perplexity.ai"
	perplexityTimeout = 30 * time.Second
)

// PerplexitySearcher queries the Perplexity /search endpoint
type PerplexitySearcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPerplexitySearcher creates a Perplexity search client
func NewPerplexitySearcher(apiKey string) *PerplexitySearcher {
	return &PerplexitySearcher{
		apiKey:  apiKey,
		baseURL: perplexityBaseURL,
		client:  &http.Client{Timeout: perplexityTimeout},
	}
}

type perplexityRequest struct {
	Query            string `json:"query"`
	MaxResults       int    `json:"max_results"`
	MaxTokensPerPage int    `json:"max_tokens_per_page,omitempty"`
}

type perplexityResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"results"`
}

// Search runs one keyword query against Perplexity
func (p *PerplexitySearcher) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if p.apiKey == "" {
		return nil, &Error{Provider: ProviderPerplexity, Message: "PERPLEXITY_API_KEY is not set"}
	}
	if maxResults <= 0 || maxResults > 20 {
		maxResults = 10
	}

	body, err := json.Marshal(perplexityRequest{
		Query:            query,
		MaxResults:       maxResults,
		MaxTokensPerPage: 1024,
	})
	if err != nil {
		return nil, &Error{Provider: ProviderPerplexity, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Provider: ProviderPerplexity, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: ProviderPerplexity, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &Error{
			Provider: ProviderPerplexity,
			Message:  fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(text)),
		}
	}

	var parsed perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{Provider: ProviderPerplexity, Message: "failed to decode response", Cause: err}
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, Result{
			URL:         r.URL,
			Title:       r.Title,
			Snippet:     r.Snippet,
			PublishedAt: r.Date,
		})
	}
	return results, nil
}
