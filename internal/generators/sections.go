package generators

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/sales-intel/internal/types"
)

// noProductsSection is used when the products dependency is absent (soft).
const noProductsSection = "No product catalog available."

// productsSection renders the product catalog for prompt inclusion.
func productsSection(catalog *types.ProductCatalog) string {
	if catalog == nil || len(catalog.Products) == 0 {
		return noProductsSection
	}
	var b strings.Builder
	for _, p := range catalog.Products {
		fmt.Fprintf(&b, "- %s: %s\n", p.ProductName, p.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// personasSection renders the persona set as JSON for prompt inclusion.
// The synthetic ids are stripped; the LLM re-associates by persona_name.
func personasSection(set *types.PersonaSet) string {
	trimmed := make([]types.Persona, len(set.Personas))
	copy(trimmed, set.Personas)
	for i := range trimmed {
		trimmed[i].ID = ""
	}
	raw, err := json.MarshalIndent(trimmed, "", "  ")
	if err != nil {
		return ""
	}
	return string(raw)
}

// personasWithMappingsSection renders each persona's tier plan and mappings
// for the outreach prompt.
func personasWithMappingsSection(mappings *types.MappingSet, personas *types.PersonaSet) string {
	var b strings.Builder
	for _, group := range mappings.PersonasWithMappings {
		tier := types.Tier3
		if personas != nil {
			if p := personas.ByName(group.PersonaName); p != nil {
				tier = p.Tier
			}
		}
		plan := types.PlanForTier(tier)

		fmt.Fprintf(&b, "PERSONA: %s (tier: %s, touches: %d-%d, duration: %d-%d days)\n",
			group.PersonaName, tier, plan.MinTouches, plan.MaxTouches, plan.MinDays, plan.MaxDays)
		for _, m := range group.Mappings {
			fmt.Fprintf(&b, "  - pain: %s\n    value: %s\n", m.PainPoint, m.ValueProposition)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
