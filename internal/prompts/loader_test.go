package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_AllStagePromptsPresent(t *testing.T) {
	for _, file := range []string{"products.json", "personas.json", "mappings.json", "outreach.json"} {
		for _, key := range []string{"system", "generate"} {
			prompt, err := Get(file, key)
			require.NoError(t, err, "%s/%s", file, key)
			assert.NotEmpty(t, prompt, "%s/%s", file, key)
		}
	}
}

func TestGet_FusedVariants(t *testing.T) {
	for _, key := range []string{"system-fused", "three-stage", "two-stage", "baseline"} {
		prompt, err := Get("fused.json", key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, prompt, key)
	}
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("products.json", "nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGet_UnknownFile(t *testing.T) {
	_, err := Get("missing.json", "system")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	result := Format("Research {{.CompanyName}} using {{.Context}}.", map[string]string{
		"CompanyName": "Acme",
		"Context":     "scraped data",
	})
	assert.Equal(t, "Research Acme using scraped data.", result)
}

func TestFormat_UnknownPlaceholderLeftIntact(t *testing.T) {
	result := Format("Hello {{.Name}}", map[string]string{"Other": "x"})
	assert.Equal(t, "Hello {{.Name}}", result)
}

func TestSchemaRetryPromptHasErrorsPlaceholder(t *testing.T) {
	prompt := MustGet("common.json", "schema-retry")
	assert.True(t, strings.Contains(prompt, "{{.Errors}}"))
}
