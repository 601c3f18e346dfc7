package generators

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/schemas"
	"github.com/jonathan/sales-intel/internal/sources"
	"github.com/jonathan/sales-intel/internal/store"
	"github.com/jonathan/sales-intel/internal/types"
)

// Expected mapping counts per persona; violations are logged, not rejected.
const (
	minMappingsPerPersona = 3
	maxMappingsPerPersona = 10
)

// GenerateMappings produces pain-point/value-proposition mappings for each
// persona. Personas are a hard dependency: without them the stage fails
// before any LLM call. Products is soft and only enriches the prompt.
func (g *Generator) GenerateMappings(ctx context.Context, cctx *sources.Context, products *types.ProductCatalog, personas *types.PersonaSet) (*types.MappingSet, *Stats, error) {
	if personas == nil || len(personas.Personas) == 0 {
		return nil, nil, &MissingDependencyError{Stage: "mappings", Dependency: "personas"}
	}
	if products == nil {
		g.logger.Warn("no product catalog available, generating mappings without it",
			zap.String("company", cctx.CompanyName))
	}

	st := &Stats{Stage: "mappings", State: StatePending, ContextChars: cctx.TotalChars}
	spec := stageSpec{name: "mappings", tier: llm.TierStandard}

	system := mustPrompt("mappings.json", "system")
	prompt := formatPrompt("mappings.json", "generate", map[string]string{
		"CompanyName":     cctx.CompanyName,
		"Context":         cctx.Text,
		"PersonaCount":    strconv.Itoa(len(personas.Personas)),
		"PersonasSection": personasSection(personas),
		"ProductsSection": productsSection(products),
	})

	var set types.MappingSet
	parse := func(text string) error {
		cleaned := llm.CleanJSONBlock(text)
		if err := schemas.Validate("mappings", cleaned); err != nil {
			return err
		}
		set = types.MappingSet{}
		if err := json.Unmarshal([]byte(cleaned), &set); err != nil {
			return err
		}
		if len(set.PersonasWithMappings) == 0 {
			return fmt.Errorf("response contains no persona mappings")
		}
		return nil
	}

	if err := g.execute(ctx, st, spec, system, prompt, parse); err != nil {
		return nil, st, err
	}

	set.AttachPersonaIDs(personas)
	g.checkMappings(&set)

	if _, err := g.persist(ctx, st, cctx.CompanyName, store.KindMappings, &set); err != nil {
		return nil, st, err
	}
	return &set, st, nil
}

// checkMappings logs soft-limit violations: mapping counts outside the
// expected band and over-length pain points or value propositions.
func (g *Generator) checkMappings(set *types.MappingSet) {
	for _, group := range set.PersonasWithMappings {
		if n := len(group.Mappings); n < minMappingsPerPersona || n > maxMappingsPerPersona {
			g.logger.Warn("mapping count outside expected band",
				zap.String("persona", group.PersonaName), zap.Int("count", n))
		}
		for _, m := range group.Mappings {
			if len(m.PainPoint) > types.MaxMappingTextLen {
				g.logger.Warn("pain point exceeds length limit",
					zap.String("persona", group.PersonaName), zap.Int("len", len(m.PainPoint)))
			}
			if len(m.ValueProposition) > types.MaxMappingTextLen {
				g.logger.Warn("value proposition exceeds length limit",
					zap.String("persona", group.PersonaName), zap.Int("len", len(m.ValueProposition)))
			}
		}
	}
}
