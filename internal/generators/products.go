package generators

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/schemas"
	"github.com/jonathan/sales-intel/internal/store"
	"github.com/jonathan/sales-intel/internal/types"
)

// GenerateProducts discovers the seller's product catalog through a
// web-search-grounded LLM call. Unlike the other stages it does not consume
// aggregated context: product discovery benefits from live search over
// pre-scraped content.
func (g *Generator) GenerateProducts(ctx context.Context, companyName string) (*types.ProductCatalog, *Stats, error) {
	if companyName == "" {
		return nil, nil, &RequestError{Field: "company_name", Message: "must not be empty"}
	}

	st := &Stats{Stage: "products", State: StatePending}
	spec := stageSpec{name: "products", tier: llm.TierAdvanced, search: true}

	system := mustPrompt("products.json", "system")
	prompt := formatPrompt("products.json", "generate", map[string]string{
		"CompanyName": companyName,
	})

	var catalog types.ProductCatalog
	parse := func(text string) error {
		catalog = types.ProductCatalog{}
		cleaned := llm.ExtractJSONObject(text)
		if err := schemas.Validate("products", cleaned); err != nil {
			return err
		}
		return json.Unmarshal([]byte(cleaned), &catalog)
	}

	if err := g.execute(ctx, st, spec, system, prompt, parse); err != nil {
		return nil, st, err
	}

	g.logger.Info("products generated",
		zap.String("company", companyName),
		zap.Int("count", len(catalog.Products)))

	if _, err := g.persist(ctx, st, companyName, store.KindProducts, &catalog); err != nil {
		return nil, st, err
	}
	return &catalog, st, nil
}
