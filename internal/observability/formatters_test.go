package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/sales-intel/internal/generators"
	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/types"
)

func TestPrintProducts(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProducts(&types.ProductCatalog{Products: []types.Product{
		{ProductName: "Acme Forecast", Description: "Pipeline forecasting platform."},
	}})
	output := buf.String()

	assert.Contains(t, output, "PRODUCT CATALOG")
	assert.Contains(t, output, "Acme Forecast")
}

func TestPrintPersonas(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPersonas(&types.PersonaSet{Personas: []types.Persona{
		{PersonaName: "Enterprise Sales Leadership", Tier: types.Tier1, JobTitles: []string{"CRO", "VP Sales"}},
	}})
	output := buf.String()

	assert.Contains(t, output, "CUSTOMER PERSONAS")
	assert.Contains(t, output, "Enterprise Sales Leadership")
	assert.Contains(t, output, "tier_1")
	assert.Contains(t, output, "CRO")
}

func TestPrintStageStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStageStats(&generators.Stats{
		Stage:      "personas",
		State:      generators.StatePersisted,
		Model:      "gemini-2.5-flash",
		Usage:      llm.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
		DurationMS: 1234,
		Retried:    true,
		AutoLoaded: []string{"products:acme/products/0001"},
	})
	output := buf.String()

	assert.Contains(t, output, "STAGE: PERSONAS")
	assert.Contains(t, output, "gemini-2.5-flash")
	assert.Contains(t, output, "1234 ms")
	assert.Contains(t, output, "schema correction")
	assert.Contains(t, output, "products:acme/products/0001")
}

func TestPrintNilPayloadsAreSilent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProducts(nil)
	p.PrintPersonas(nil)
	p.PrintMappings(nil)
	p.PrintSequences(nil)
	p.PrintStageStats(nil)

	assert.Empty(t, buf.String())
}
