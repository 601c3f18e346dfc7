package generators

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/schemas"
	"github.com/jonathan/sales-intel/internal/sources"
	"github.com/jonathan/sales-intel/internal/store"
	"github.com/jonathan/sales-intel/internal/types"
)

// noCRMSection is used when no CRM data exists for the two-stage variant.
const noCRMSection = "No CRM data available."

// FusedResult bundles the payloads produced by one fused generation call.
// Nil fields were not part of the variant's output.
type FusedResult struct {
	Products  *types.ProductCatalog
	Personas  *types.PersonaSet
	Mappings  *types.MappingSet
	Sequences *types.SequenceSet
}

// fusedResponse is the raw shape shared by the fused prompt variants
type fusedResponse struct {
	Products             []types.Product             `json:"products"`
	Personas             []types.Persona             `json:"personas"`
	TierClassification   types.TierClassification    `json:"tier_classification"`
	PersonasWithMappings []types.PersonaWithMappings `json:"personas_with_mappings"`
	Sequences            []types.OutreachSequence    `json:"sequences"`
}

// validateComponent re-marshals one component payload and checks it against
// its per-kind schema, so fused responses honor the same contracts as the
// individual stages.
func validateComponent(schema string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return schemas.Validate(schema, string(raw))
}

// GenerateThreeStage fuses mapping and outreach generation into one LLM call.
// Personas are a hard dependency, products soft.
func (g *Generator) GenerateThreeStage(ctx context.Context, cctx *sources.Context, products *types.ProductCatalog, personas *types.PersonaSet) (*FusedResult, *Stats, error) {
	if personas == nil || len(personas.Personas) == 0 {
		return nil, nil, &MissingDependencyError{Stage: "three_stage", Dependency: "personas"}
	}

	st := &Stats{Stage: "three_stage", State: StatePending, ContextChars: cctx.TotalChars}
	spec := stageSpec{name: "three_stage", tier: llm.TierAdvanced}

	system := mustPrompt("fused.json", "system-fused")
	prompt := formatPrompt("fused.json", "three-stage", map[string]string{
		"CompanyName":     cctx.CompanyName,
		"Context":         cctx.Text,
		"PersonasSection": personasSection(personas),
		"ProductsSection": productsSection(products),
	})

	var resp fusedResponse
	parse := func(text string) error {
		resp = fusedResponse{}
		if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &resp); err != nil {
			return err
		}
		if len(resp.PersonasWithMappings) == 0 || len(resp.Sequences) == 0 {
			return fmt.Errorf("response missing personas_with_mappings or sequences")
		}
		if err := validateComponent("mappings", &types.MappingSet{PersonasWithMappings: resp.PersonasWithMappings}); err != nil {
			return err
		}
		return validateComponent("sequences", &types.SequenceSet{Sequences: resp.Sequences})
	}

	if err := g.execute(ctx, st, spec, system, prompt, parse); err != nil {
		return nil, st, err
	}

	mappings := &types.MappingSet{PersonasWithMappings: resp.PersonasWithMappings}
	sequences := &types.SequenceSet{Sequences: resp.Sequences}

	mappings.AttachPersonaIDs(personas)
	g.checkMappings(mappings)
	g.normalizeSequences(sequences, personas)

	if _, err := g.persist(ctx, st, cctx.CompanyName, store.KindMappings, mappings); err != nil {
		return nil, st, err
	}
	if _, err := g.persist(ctx, st, cctx.CompanyName, store.KindSequences, sequences); err != nil {
		return nil, st, err
	}

	return &FusedResult{Mappings: mappings, Sequences: sequences}, st, nil
}

// GenerateTwoStage fuses persona, mapping and outreach generation into one
// LLM call, fed by the product catalog and the raw CRM summary.
func (g *Generator) GenerateTwoStage(ctx context.Context, cctx *sources.Context, products *types.ProductCatalog, crmSummary string, generateCount int) (*FusedResult, *Stats, error) {
	if generateCount == 0 {
		generateCount = DefaultGenerateCount
	}
	if generateCount < 1 {
		return nil, nil, &RequestError{Field: "generate_count", Message: "must be at least 1"}
	}
	if crmSummary == "" {
		crmSummary = noCRMSection
	}

	st := &Stats{Stage: "two_stage", State: StatePending, ContextChars: cctx.TotalChars}
	spec := stageSpec{name: "two_stage", tier: llm.TierAdvanced}

	system := mustPrompt("fused.json", "system-fused")
	prompt := formatPrompt("fused.json", "two-stage", map[string]string{
		"CompanyName":     cctx.CompanyName,
		"Context":         cctx.Text,
		"GenerateCount":   strconv.Itoa(generateCount),
		"ProductsSection": productsSection(products),
		"CRMSection":      crmSummary,
	})

	var resp fusedResponse
	parse := func(text string) error {
		resp = fusedResponse{}
		if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &resp); err != nil {
			return err
		}
		if len(resp.Personas) == 0 || len(resp.PersonasWithMappings) == 0 || len(resp.Sequences) == 0 {
			return fmt.Errorf("response missing personas, personas_with_mappings or sequences")
		}
		if err := validateComponent("personas", &types.PersonaSet{Personas: resp.Personas, TierClassification: resp.TierClassification}); err != nil {
			return err
		}
		if err := validateComponent("mappings", &types.MappingSet{PersonasWithMappings: resp.PersonasWithMappings}); err != nil {
			return err
		}
		return validateComponent("sequences", &types.SequenceSet{Sequences: resp.Sequences})
	}

	if err := g.execute(ctx, st, spec, system, prompt, parse); err != nil {
		return nil, st, err
	}

	personas := &types.PersonaSet{Personas: resp.Personas, TierClassification: resp.TierClassification}
	mappings := &types.MappingSet{PersonasWithMappings: resp.PersonasWithMappings}
	sequences := &types.SequenceSet{Sequences: resp.Sequences}

	g.normalizePersonas(personas)
	mappings.AttachPersonaIDs(personas)
	g.checkMappings(mappings)
	g.normalizeSequences(sequences, personas)

	for _, step := range []struct {
		kind    store.Kind
		payload any
	}{
		{store.KindPersonas, personas},
		{store.KindMappings, mappings},
		{store.KindSequences, sequences},
	} {
		if _, err := g.persist(ctx, st, cctx.CompanyName, step.kind, step.payload); err != nil {
			return nil, st, err
		}
	}

	return &FusedResult{Personas: personas, Mappings: mappings, Sequences: sequences}, st, nil
}

// GenerateBaseline produces all four payloads in a single LLM call. This is
// the quality-comparison path, not the recommended production path.
func (g *Generator) GenerateBaseline(ctx context.Context, cctx *sources.Context, generateCount int) (*FusedResult, *Stats, error) {
	if generateCount == 0 {
		generateCount = DefaultGenerateCount
	}
	if generateCount < 1 {
		return nil, nil, &RequestError{Field: "generate_count", Message: "must be at least 1"}
	}

	st := &Stats{Stage: "baseline", State: StatePending, ContextChars: cctx.TotalChars}
	spec := stageSpec{name: "baseline", tier: llm.TierAdvanced}

	system := mustPrompt("fused.json", "system-fused")
	prompt := formatPrompt("fused.json", "baseline", map[string]string{
		"CompanyName":   cctx.CompanyName,
		"Context":       cctx.Text,
		"GenerateCount": strconv.Itoa(generateCount),
	})

	var resp fusedResponse
	parse := func(text string) error {
		resp = fusedResponse{}
		if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &resp); err != nil {
			return err
		}
		if len(resp.Products) == 0 || len(resp.Personas) == 0 ||
			len(resp.PersonasWithMappings) == 0 || len(resp.Sequences) == 0 {
			return fmt.Errorf("response missing one of products, personas, personas_with_mappings, sequences")
		}
		if err := validateComponent("products", &types.ProductCatalog{Products: resp.Products}); err != nil {
			return err
		}
		if err := validateComponent("personas", &types.PersonaSet{Personas: resp.Personas, TierClassification: resp.TierClassification}); err != nil {
			return err
		}
		if err := validateComponent("mappings", &types.MappingSet{PersonasWithMappings: resp.PersonasWithMappings}); err != nil {
			return err
		}
		return validateComponent("sequences", &types.SequenceSet{Sequences: resp.Sequences})
	}

	if err := g.execute(ctx, st, spec, system, prompt, parse); err != nil {
		return nil, st, err
	}

	products := &types.ProductCatalog{Products: resp.Products}
	personas := &types.PersonaSet{Personas: resp.Personas, TierClassification: resp.TierClassification}
	mappings := &types.MappingSet{PersonasWithMappings: resp.PersonasWithMappings}
	sequences := &types.SequenceSet{Sequences: resp.Sequences}

	g.normalizePersonas(personas)
	mappings.AttachPersonaIDs(personas)
	g.checkMappings(mappings)
	g.normalizeSequences(sequences, personas)

	for _, step := range []struct {
		kind    store.Kind
		payload any
	}{
		{store.KindProducts, products},
		{store.KindPersonas, personas},
		{store.KindMappings, mappings},
		{store.KindSequences, sequences},
	} {
		if _, err := g.persist(ctx, st, cctx.CompanyName, step.kind, step.payload); err != nil {
			return nil, st, err
		}
	}

	return &FusedResult{Products: products, Personas: personas, Mappings: mappings, Sequences: sequences}, st, nil
}
