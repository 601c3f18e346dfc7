package generators

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/schemas"
	"github.com/jonathan/sales-intel/internal/store"
	"github.com/jonathan/sales-intel/internal/types"
)

// GenerateOutreach produces one multi-touch sequence per persona mapping
// group. Mappings are a hard dependency and must be supplied directly, since
// they are request-scoped; the persona set is optional and only contributes
// tiers and synthetic ids.
func (g *Generator) GenerateOutreach(ctx context.Context, companyName string, mappings *types.MappingSet, personas *types.PersonaSet) (*types.SequenceSet, *Stats, error) {
	if mappings == nil || len(mappings.PersonasWithMappings) == 0 {
		return nil, nil, &MissingDependencyError{Stage: "sequences", Dependency: "mappings"}
	}

	st := &Stats{Stage: "sequences", State: StatePending}
	spec := stageSpec{name: "sequences", tier: llm.TierStandard}

	system := mustPrompt("outreach.json", "system")
	prompt := formatPrompt("outreach.json", "generate", map[string]string{
		"SequenceCount":   strconv.Itoa(len(mappings.PersonasWithMappings)),
		"PersonasSection": personasWithMappingsSection(mappings, personas),
	})

	var set types.SequenceSet
	parse := func(text string) error {
		cleaned := llm.CleanJSONBlock(text)
		if err := schemas.Validate("sequences", cleaned); err != nil {
			return err
		}
		set = types.SequenceSet{}
		if err := json.Unmarshal([]byte(cleaned), &set); err != nil {
			return err
		}
		if len(set.Sequences) == 0 {
			return fmt.Errorf("response contains no sequences")
		}
		return nil
	}

	if err := g.execute(ctx, st, spec, system, prompt, parse); err != nil {
		return nil, st, err
	}

	g.normalizeSequences(&set, personas)

	if _, err := g.persist(ctx, st, companyName, store.KindSequences, &set); err != nil {
		return nil, st, err
	}
	return &set, st, nil
}

// normalizeSequences recomputes derived fields, checks the structural
// invariants and the tier bands, and attaches synthetic persona ids.
func (g *Generator) normalizeSequences(set *types.SequenceSet, personas *types.PersonaSet) {
	for i := range set.Sequences {
		seq := &set.Sequences[i]
		seq.Normalize()

		if err := seq.Validate(); err != nil {
			g.logger.Warn("sequence violates structural invariants", zap.Error(err))
		}

		tier := types.Tier3
		if personas != nil {
			if p := personas.ByName(seq.PersonaName); p != nil {
				seq.PersonaID = p.ID
				tier = p.Tier
			}
		}

		plan := types.PlanForTier(tier)
		if seq.TotalTouches < plan.MinTouches || seq.TotalTouches > plan.MaxTouches {
			g.logger.Warn("sequence touch count outside tier band",
				zap.String("persona", seq.PersonaName),
				zap.String("tier", string(tier)),
				zap.Int("touches", seq.TotalTouches))
		}
		if seq.DurationDays < plan.MinDays || seq.DurationDays > plan.MaxDays {
			g.logger.Warn("sequence duration outside tier band",
				zap.String("persona", seq.PersonaName),
				zap.String("tier", string(tier)),
				zap.Int("duration_days", seq.DurationDays))
		}
	}
}
