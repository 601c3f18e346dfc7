package types

// MaxMappingTextLen is the soft limit on pain point and value proposition length.
// Longer entries are kept but logged as warnings.
const MaxMappingTextLen = 300

// PainPointMapping pairs one persona pain point with a product-integrated value proposition
type PainPointMapping struct {
	PainPoint        string `json:"pain_point"`
	ValueProposition string `json:"value_proposition"`
}

// PersonaWithMappings groups a persona with its pain-point/value-proposition mappings.
// PersonaID carries the synthetic persona identifier when the upstream persona set is
// known; PersonaName is the match key the LLM emits.
type PersonaWithMappings struct {
	PersonaID   string             `json:"persona_id,omitempty"`
	PersonaName string             `json:"persona_name"`
	Mappings    []PainPointMapping `json:"mappings"`
}

// MappingSet is the structured payload produced by the mapping generation stage
type MappingSet struct {
	PersonasWithMappings []PersonaWithMappings `json:"personas_with_mappings"`
}

// TotalMappings returns the number of mappings across all personas
func (s *MappingSet) TotalMappings() int {
	total := 0
	for _, p := range s.PersonasWithMappings {
		total += len(p.Mappings)
	}
	return total
}

// AttachPersonaIDs fills PersonaID on each group by matching persona names
// against the given persona set. Groups whose name has no match are left as-is.
func (s *MappingSet) AttachPersonaIDs(personas *PersonaSet) {
	if personas == nil {
		return
	}
	for i := range s.PersonasWithMappings {
		if p := personas.ByName(s.PersonasWithMappings[i].PersonaName); p != nil {
			s.PersonasWithMappings[i].PersonaID = p.ID
		}
	}
}
