package search

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// GoogleSearcher queries the Google Custom Search JSON API
type GoogleSearcher struct {
	svc   *customsearch.Service
	cseID string
}

// NewGoogleSearcher creates a Custom Search client
func NewGoogleSearcher(ctx context.Context, apiKey, cseID string) (*GoogleSearcher, error) {
	if apiKey == "" || cseID == "" {
		return nil, &Error{Provider: ProviderGoogle, Message: "GOOGLE_CSE_KEY and GOOGLE_CSE_ID are required"}
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &Error{Provider: ProviderGoogle, Message: "failed to create service", Cause: err}
	}
	return &GoogleSearcher{svc: svc, cseID: cseID}, nil
}

// Search runs one keyword query and returns up to maxResults hits
func (g *GoogleSearcher) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10
	}

	resp, err := g.svc.Cse.List().
		Q(query).
		Cx(g.cseID).
		Num(int64(maxResults)).
		Hl("en").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &Error{Provider: ProviderGoogle, Message: fmt.Sprintf("query %q failed", query), Cause: err}
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}
