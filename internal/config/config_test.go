package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"data_dir": "/tmp/sales-intel",
		"search_provider": "perplexity",
		"scraper": "direct",
		"max_scrape_urls": 5,
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/tmp/sales-intel", cfg.DataDir)
	assert.Equal(t, "perplexity", cfg.SearchProvider)
	assert.Equal(t, "direct", cfg.Scraper)
	assert.Equal(t, 5, cfg.MaxScrapeURLs)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestApplyEnv_FillsEmptyFields(t *testing.T) {
	t.Setenv(EnvGeminiKey, "gemini-key")
	t.Setenv(EnvGoogleCSEID, "cse-id")
	t.Setenv(EnvDataDir, "/env/data")

	cfg := &Config{APIKey: "explicit-key"}
	cfg.ApplyEnv()

	// Explicit value wins over environment
	assert.Equal(t, "explicit-key", cfg.APIKey)
	assert.Equal(t, "cse-id", cfg.GoogleCSEID)
	assert.Equal(t, "/env/data", cfg.DataDir)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, filepath.Join("data", "crm"), cfg.CRMDir)
	assert.Equal(t, filepath.Join("data", "documents"), cfg.DocumentsDir)
	assert.Equal(t, "google", cfg.SearchProvider)
	assert.Equal(t, "direct", cfg.Scraper)
	assert.Equal(t, 10, cfg.MaxScrapeURLs)
	assert.Equal(t, 8080, cfg.Port)
}

func TestApplyDefaults_SubdirsFollowDataDir(t *testing.T) {
	cfg := &Config{DataDir: "/srv/intel"}
	cfg.ApplyDefaults()

	assert.Equal(t, filepath.Join("/srv/intel", "crm"), cfg.CRMDir)
	assert.Equal(t, filepath.Join("/srv/intel", "documents"), cfg.DocumentsDir)
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := &Config{SearchProvider: "bing"}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search_provider")
}

func TestValidate_UnknownScraper(t *testing.T) {
	cfg := &Config{Scraper: "playwright"}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scraper")
}

func TestValidate_FirecrawlNeedsKey(t *testing.T) {
	cfg := &Config{Scraper: "firecrawl"}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "firecrawl_api_key")

	cfg.FirecrawlAPIKey = "fc-key"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_NumericRanges(t *testing.T) {
	assert.Error(t, (&Config{MaxScrapeURLs: -1}).Validate())
	assert.Error(t, (&Config{Port: 70000}).Validate())
	assert.NoError(t, (&Config{}).Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{DataDir: "/explicit", Port: 9090}
	merged := cfg.MergeWithDefaults(Config{
		DataDir:        "/default",
		APIKey:         "default-key",
		SearchProvider: "google",
		Port:           8080,
	})

	assert.Equal(t, "/explicit", merged.DataDir)
	assert.Equal(t, "default-key", merged.APIKey)
	assert.Equal(t, "google", merged.SearchProvider)
	assert.Equal(t, 9090, merged.Port)
}
