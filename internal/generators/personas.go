package generators

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/schemas"
	"github.com/jonathan/sales-intel/internal/sources"
	"github.com/jonathan/sales-intel/internal/store"
	"github.com/jonathan/sales-intel/internal/types"
)

// DefaultGenerateCount is the persona count used when the request leaves it unset.
const DefaultGenerateCount = 3

// GeneratePersonas produces generateCount buyer personas from the aggregated
// company context. The product catalog is a soft dependency: when present it
// anchors the personas to what the seller actually sells.
func (g *Generator) GeneratePersonas(ctx context.Context, cctx *sources.Context, products *types.ProductCatalog, generateCount int) (*types.PersonaSet, *Stats, error) {
	if generateCount == 0 {
		generateCount = DefaultGenerateCount
	}
	if generateCount < 1 {
		return nil, nil, &RequestError{Field: "generate_count", Message: "must be at least 1"}
	}

	st := &Stats{Stage: "personas", State: StatePending, ContextChars: cctx.TotalChars}
	spec := stageSpec{name: "personas", tier: llm.TierStandard}

	if products == nil {
		g.logger.Warn("no product catalog available, generating personas without it",
			zap.String("company", cctx.CompanyName))
	}

	system := mustPrompt("personas.json", "system")
	prompt := formatPrompt("personas.json", "generate", map[string]string{
		"CompanyName":     cctx.CompanyName,
		"Context":         cctx.Text,
		"GenerateCount":   strconv.Itoa(generateCount),
		"ProductsSection": productsSection(products),
	})

	var set types.PersonaSet
	parse := func(text string) error {
		cleaned := llm.CleanJSONBlock(text)
		if err := schemas.Validate("personas", cleaned); err != nil {
			return err
		}
		set = types.PersonaSet{}
		if err := json.Unmarshal([]byte(cleaned), &set); err != nil {
			return err
		}
		if len(set.Personas) == 0 {
			return fmt.Errorf("response contains no personas")
		}
		return nil
	}

	if err := g.execute(ctx, st, spec, system, prompt, parse); err != nil {
		return nil, st, err
	}

	g.normalizePersonas(&set)

	if _, err := g.persist(ctx, st, cctx.CompanyName, store.KindPersonas, &set); err != nil {
		return nil, st, err
	}
	return &set, st, nil
}

// normalizePersonas assigns synthetic ids, backfills names, coerces unknown
// tiers to tier_3 and rebuilds the tier classification.
func (g *Generator) normalizePersonas(set *types.PersonaSet) {
	for i := range set.Personas {
		p := &set.Personas[i]
		p.ID = uuid.NewString()
		if p.PersonaName == "" {
			p.PersonaName = fmt.Sprintf("Persona %d", i+1)
		}
		if !p.Tier.Valid() {
			g.logger.Warn("unknown persona tier, defaulting to tier_3",
				zap.String("persona", p.PersonaName), zap.String("tier", string(p.Tier)))
			p.Tier = types.Tier3
		}
	}
	set.Classify()
}
