// Package config provides configuration loading and validation for the CLI
// and server. Values come from an optional JSON file, environment variables,
// and CLI flags, in increasing order of precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults, environment
// variables, or must be provided via CLI flags.
type Config struct {
	// Paths
	DataDir      string `json:"data_dir,omitempty"`      // Root directory for persisted artifacts
	CRMDir       string `json:"crm_dir,omitempty"`       // Directory holding CRM CSV exports
	DocumentsDir string `json:"documents_dir,omitempty"` // Directory holding PDF documents

	// Credentials
	APIKey           string `json:"api_key,omitempty"`            // Gemini API key
	GoogleCSEKey     string `json:"google_cse_key,omitempty"`     // Google Custom Search API key
	GoogleCSEID      string `json:"google_cse_id,omitempty"`      // Google Custom Search engine ID
	PerplexityAPIKey string `json:"perplexity_api_key,omitempty"` // Perplexity API key
	FirecrawlAPIKey  string `json:"firecrawl_api_key,omitempty"`  // Firecrawl API key
	DatabaseURL      string `json:"database_url,omitempty"`       // PostgreSQL connection URL (optional; file store when empty)

	// Behavior
	SearchProvider string `json:"search_provider,omitempty"` // "google" (default) or "perplexity"
	Scraper        string `json:"scraper,omitempty"`         // "direct" (default) or "firecrawl"
	UseBrowser     bool   `json:"use_browser,omitempty"`     // Use headless browser fallback for SPA sites
	MaxScrapeURLs  int    `json:"max_scrape_urls,omitempty"` // Maximum URLs scraped per company
	Verbose        bool   `json:"verbose,omitempty"`         // Print detailed stage information
	Port           int    `json:"port,omitempty"`            // HTTP server port
}

// Environment variable names recognized by ApplyEnv.
const (
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvGoogleCSEKey  = "GOOGLE_CSE_KEY"
	EnvGoogleCSEID   = "GOOGLE_CSE_ID"
	EnvPerplexityKey = "PERPLEXITY_API_KEY"
	EnvFirecrawlKey  = "FIRECRAWL_API_KEY"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvDataDir       = "DATA_DIR"
)

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv fills empty credential and path fields from environment variables.
// Explicit config file or flag values win over the environment.
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv(EnvGeminiKey)
	}
	if c.GoogleCSEKey == "" {
		c.GoogleCSEKey = os.Getenv(EnvGoogleCSEKey)
	}
	if c.GoogleCSEID == "" {
		c.GoogleCSEID = os.Getenv(EnvGoogleCSEID)
	}
	if c.PerplexityAPIKey == "" {
		c.PerplexityAPIKey = os.Getenv(EnvPerplexityKey)
	}
	if c.FirecrawlAPIKey == "" {
		c.FirecrawlAPIKey = os.Getenv(EnvFirecrawlKey)
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv(EnvDatabaseURL)
	}
	if c.DataDir == "" {
		c.DataDir = os.Getenv(EnvDataDir)
	}
}

// ApplyDefaults fills remaining empty fields with built-in defaults.
// CRM and documents directories default to subdirectories of the data dir.
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.CRMDir == "" {
		c.CRMDir = filepath.Join(c.DataDir, "crm")
	}
	if c.DocumentsDir == "" {
		c.DocumentsDir = filepath.Join(c.DataDir, "documents")
	}
	if c.SearchProvider == "" {
		c.SearchProvider = "google"
	}
	if c.Scraper == "" {
		c.Scraper = "direct"
	}
	if c.MaxScrapeURLs == 0 {
		c.MaxScrapeURLs = 10
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required credentials since those depend on
// which subcommand runs (export and list need no API keys at all).
func (c *Config) Validate() error {
	switch c.SearchProvider {
	case "", "google", "perplexity":
	default:
		return fmt.Errorf("config error: unknown search_provider %q (expected google or perplexity)", c.SearchProvider)
	}

	switch c.Scraper {
	case "", "direct", "firecrawl":
	default:
		return fmt.Errorf("config error: unknown scraper %q (expected direct or firecrawl)", c.Scraper)
	}

	if c.Scraper == "firecrawl" && c.FirecrawlAPIKey == "" {
		return fmt.Errorf("config error: scraper firecrawl requires firecrawl_api_key or %s", EnvFirecrawlKey)
	}

	if c.MaxScrapeURLs < 0 {
		return fmt.Errorf("config error: 'max_scrape_urls' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.CRMDir == "" {
		result.CRMDir = defaults.CRMDir
	}
	if result.DocumentsDir == "" {
		result.DocumentsDir = defaults.DocumentsDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.GoogleCSEKey == "" {
		result.GoogleCSEKey = defaults.GoogleCSEKey
	}
	if result.GoogleCSEID == "" {
		result.GoogleCSEID = defaults.GoogleCSEID
	}
	if result.PerplexityAPIKey == "" {
		result.PerplexityAPIKey = defaults.PerplexityAPIKey
	}
	if result.FirecrawlAPIKey == "" {
		result.FirecrawlAPIKey = defaults.FirecrawlAPIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SearchProvider == "" {
		result.SearchProvider = defaults.SearchProvider
	}
	if result.Scraper == "" {
		result.Scraper = defaults.Scraper
	}

	if result.MaxScrapeURLs == 0 {
		result.MaxScrapeURLs = defaults.MaxScrapeURLs
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
