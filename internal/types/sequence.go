package types

import "fmt"

// TouchType is the channel used for one outreach action
type TouchType string

// Touch channel constants
const (
	TouchEmail    TouchType = "email"
	TouchLinkedIn TouchType = "linkedin"
	TouchPhone    TouchType = "phone"
	TouchVideo    TouchType = "video"
)

// Valid reports whether the touch type is a known channel
func (t TouchType) Valid() bool {
	switch t {
	case TouchEmail, TouchLinkedIn, TouchPhone, TouchVideo:
		return true
	}
	return false
}

// SequenceTouch is one outreach action within a sequence. TimingDays is
// cumulative: absolute days from sequence start, 0 for the first touch.
type SequenceTouch struct {
	SortOrder         int       `json:"sort_order"`
	TouchType         TouchType `json:"touch_type"`
	TimingDays        int       `json:"timing_days"`
	Objective         string    `json:"objective"`
	SubjectLine       string    `json:"subject_line,omitempty"`
	ContentSuggestion string    `json:"content_suggestion"`
	Hints             string    `json:"hints,omitempty"`
}

// OutreachSequence is a multi-touch cadence scoped to one persona
type OutreachSequence struct {
	Name         string          `json:"name"`
	PersonaID    string          `json:"persona_id,omitempty"`
	PersonaName  string          `json:"persona_name"`
	Objective    string          `json:"objective"`
	TotalTouches int             `json:"total_touches"`
	DurationDays int             `json:"duration_days"`
	Touches      []SequenceTouch `json:"touches"`
}

// SequenceSet is the structured payload produced by the outreach generation stage
type SequenceSet struct {
	Sequences []OutreachSequence `json:"sequences"`
}

// TierPlan describes the touch count and duration band mandated for a tier
type TierPlan struct {
	MinTouches int
	MaxTouches int
	MinDays    int
	MaxDays    int
}

// PlanForTier returns the outreach plan for a persona tier:
// tier_1 gets 5-6 touches over 14-21 days, tier_2 gets 5 over 12-14,
// tier_3 gets exactly 4 touches over 10 days.
func PlanForTier(tier Tier) TierPlan {
	switch tier {
	case Tier1:
		return TierPlan{MinTouches: 5, MaxTouches: 6, MinDays: 14, MaxDays: 21}
	case Tier2:
		return TierPlan{MinTouches: 5, MaxTouches: 5, MinDays: 12, MaxDays: 14}
	default:
		return TierPlan{MinTouches: 4, MaxTouches: 4, MinDays: 10, MaxDays: 10}
	}
}

// Normalize derives TotalTouches and DurationDays from the touch list and
// clears subject lines on channels that have none (phone, video).
// DurationDays is the last touch's cumulative timing, not a sum of intervals.
func (s *OutreachSequence) Normalize() {
	s.TotalTouches = len(s.Touches)
	for i := range s.Touches {
		if s.Touches[i].TouchType == TouchPhone || s.Touches[i].TouchType == TouchVideo {
			s.Touches[i].SubjectLine = ""
		}
	}
	if len(s.Touches) > 0 {
		s.DurationDays = s.Touches[len(s.Touches)-1].TimingDays
	} else {
		s.DurationDays = 0
	}
}

// Validate checks structural invariants: sequential 1-based sort order,
// known channels, first touch at day zero, and strictly increasing timing.
func (s *OutreachSequence) Validate() error {
	if len(s.Touches) == 0 {
		return fmt.Errorf("sequence %q has no touches", s.Name)
	}
	prev := -1
	for i, touch := range s.Touches {
		if touch.SortOrder != i+1 {
			return fmt.Errorf("sequence %q touch %d: sort_order must be %d, got %d", s.Name, i, i+1, touch.SortOrder)
		}
		if !touch.TouchType.Valid() {
			return fmt.Errorf("sequence %q touch %d: unknown touch_type %q", s.Name, i+1, touch.TouchType)
		}
		if i == 0 && touch.TimingDays != 0 {
			return fmt.Errorf("sequence %q: first touch must have timing_days 0, got %d", s.Name, touch.TimingDays)
		}
		if touch.TimingDays <= prev {
			return fmt.Errorf("sequence %q touch %d: timing_days must increase (%d after %d)", s.Name, i+1, touch.TimingDays, prev)
		}
		prev = touch.TimingDays
	}
	return nil
}
