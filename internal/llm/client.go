package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Usage holds token counts reported by the provider for one call
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record into this one
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Result is the outcome of one LLM completion call
type Result struct {
	Text  string
	Model string
	Usage Usage
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateJSON generates JSON content from a system message and prompt
	GenerateJSON(ctx context.Context, system, prompt string, tier ModelTier) (*Result, error)
	// GenerateJSONWithSearch generates JSON content with live web-search grounding enabled.
	// Used by product discovery, which benefits from live search rather than pre-scraped context.
	GenerateJSONWithSearch(ctx context.Context, system, prompt string, tier ModelTier) (*Result, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// ProviderError represents a failure reported by the LLM provider
// (quota, timeout, malformed request).
type ProviderError struct {
	Model   string
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm provider error (%s): %s: %v", e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("llm provider error (%s): %s", e.Model, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// GenerateJSON generates JSON content using the specified model tier
func (c *GeminiClient) GenerateJSON(ctx context.Context, system, prompt string, tier ModelTier) (*Result, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return nil, &ProviderError{Message: fmt.Sprintf("no model configured for tier %s", tier)}
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1) // Low temperature for consistent output
	model.ResponseMIMEType = "application/json"
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &ProviderError{Model: modelName, Message: "failed to generate content", Cause: err}
	}

	return buildResult(resp, modelName)
}

// GenerateJSONWithSearch generates JSON content with Google Search grounding.
// The response MIME type cannot be constrained when search tools are active,
// so the JSON is cleaned out of the raw text instead.
func (c *GeminiClient) GenerateJSONWithSearch(ctx context.Context, system, prompt string, tier ModelTier) (*Result, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return nil, &ProviderError{Message: fmt.Sprintf("no model configured for tier %s", tier)}
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1)
	model.Tools = []*genai.Tool{
		{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}},
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &ProviderError{Model: modelName, Message: "failed to generate grounded content", Cause: err}
	}

	return buildResult(resp, modelName)
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// buildResult extracts text and usage metadata from a Gemini response
func buildResult(resp *genai.GenerateContentResponse, modelName string) (*Result, error) {
	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, &ProviderError{Model: modelName, Message: "empty response", Cause: err}
	}

	result := &Result{
		Text:  CleanJSONBlock(text),
		Model: modelName,
	}
	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
