package types

// Tier classifies a buyer persona by proximity to budget decisions
type Tier string

// Tier constants, tier_1 being the highest priority
const (
	// Tier1 is C-level executives with direct budget control
	Tier1 Tier = "tier_1"
	// Tier2 is VPs and directors who influence decisions
	Tier2 Tier = "tier_2"
	// Tier3 is managers and individual contributors
	Tier3 Tier = "tier_3"
)

// Valid reports whether the tier is one of the three known values
func (t Tier) Valid() bool {
	switch t {
	case Tier1, Tier2, Tier3:
		return true
	}
	return false
}

// Persona represents a buyer company archetype (market segment), not an individual person.
// ID is a synthetic identifier assigned at creation; downstream stages carry it so that
// renaming a persona does not break the mapping/outreach linkage. PersonaName remains the
// human-readable key used inside LLM prompts.
type Persona struct {
	ID                string   `json:"id"`
	PersonaName       string   `json:"persona_name"`
	Tier              Tier     `json:"tier"`
	JobTitles         []string `json:"job_titles"`
	ExcludedJobTitles []string `json:"excluded_job_titles,omitempty"`
	Industry          string   `json:"industry,omitempty"`
	CompanySizeRange  string   `json:"company_size_range,omitempty"`
	CompanyType       string   `json:"company_type,omitempty"`
	Location          string   `json:"location,omitempty"`
	Description       string   `json:"description,omitempty"`
}

// TierClassification groups persona names by tier
type TierClassification struct {
	Tier1 []string `json:"tier_1"`
	Tier2 []string `json:"tier_2"`
	Tier3 []string `json:"tier_3"`
}

// PersonaSet is the structured payload produced by the persona generation stage
type PersonaSet struct {
	Personas           []Persona          `json:"personas"`
	TierClassification TierClassification `json:"tier_classification"`
}

// ByName returns the persona with the given name, or nil if absent
func (s *PersonaSet) ByName(name string) *Persona {
	for i := range s.Personas {
		if s.Personas[i].PersonaName == name {
			return &s.Personas[i]
		}
	}
	return nil
}

// Classify rebuilds the tier classification from the persona list
func (s *PersonaSet) Classify() {
	s.TierClassification = TierClassification{
		Tier1: []string{},
		Tier2: []string{},
		Tier3: []string{},
	}
	for _, p := range s.Personas {
		switch p.Tier {
		case Tier1:
			s.TierClassification.Tier1 = append(s.TierClassification.Tier1, p.PersonaName)
		case Tier2:
			s.TierClassification.Tier2 = append(s.TierClassification.Tier2, p.PersonaName)
		default:
			s.TierClassification.Tier3 = append(s.TierClassification.Tier3, p.PersonaName)
		}
	}
}
