package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock_JSONFence(t *testing.T) {
	input := "```json\n{\"key\": \"value\"}\n```"
	assert.Equal(t, `{"key": "value"}`, CleanJSONBlock(input))
}

func TestCleanJSONBlock_GenericFence(t *testing.T) {
	input := "```\n{\"key\": \"value\"}\n```"
	assert.Equal(t, `{"key": "value"}`, CleanJSONBlock(input))
}

func TestCleanJSONBlock_NoFence(t *testing.T) {
	input := `  {"key": "value"}  `
	assert.Equal(t, `{"key": "value"}`, CleanJSONBlock(input))
}

func TestExtractJSONObject_ProseAroundObject(t *testing.T) {
	input := `Based on my research, here is the catalog:

{"products": [{"product_name": "Acme Forecast"}]}

Let me know if you need more detail.`
	assert.Equal(t, `{"products": [{"product_name": "Acme Forecast"}]}`, ExtractJSONObject(input))
}

func TestExtractJSONObject_NestedBraces(t *testing.T) {
	input := `prefix {"a": {"b": "}"}, "c": 1} suffix`
	assert.Equal(t, `{"a": {"b": "}"}, "c": 1}`, ExtractJSONObject(input))
}

func TestExtractJSONObject_EscapedQuote(t *testing.T) {
	input := `{"a": "quote \" and brace }"}`
	assert.Equal(t, input, ExtractJSONObject(input))
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	assert.Equal(t, "no json here", ExtractJSONObject("no json here"))
}

func TestUsage_Add(t *testing.T) {
	u := Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	u.Add(Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})
	assert.Equal(t, Usage{PromptTokens: 11, CompletionTokens: 7, TotalTokens: 18}, u)
}

func TestConfig_GetModel(t *testing.T) {
	cfg := DefaultGeminiConfig()
	assert.Equal(t, "gemini-2.5-pro", cfg.GetModel(TierAdvanced))
	assert.Equal(t, "gemini-2.5-flash", cfg.GetModel(TierStandard))

	override := cfg.WithModel(TierAdvanced, "gemini-next")
	assert.Equal(t, "gemini-next", override.GetModel(TierAdvanced))
	// the original config is unchanged
	assert.Equal(t, "gemini-2.5-pro", cfg.GetModel(TierAdvanced))
}
