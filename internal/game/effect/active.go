package effect

// Active tracks one applied effect on a character, with its remaining duration.
type Active struct {
	Effect    Effect
	Remaining int // abstract time units left; PermanentDuration = never expires
}

// ActiveSet tracks all effects currently applied to one character.
// It is not safe for concurrent use; the caller must serialise access.
type ActiveSet struct {
	effects []Active
}

// NewActiveSet creates an ActiveSet pre-populated with the given active effects.
func NewActiveSet(active ...Active) *ActiveSet {
	s := &ActiveSet{}
	s.effects = append(s.effects, active...)
	return s
}

// Apply adds an effect to the set with its full duration remaining.
//
// Precondition: e has passed Validate.
func (s *ActiveSet) Apply(e Effect) {
	s.effects = append(s.effects, Active{Effect: e, Remaining: e.Duration})
}

// Tick decrements every timed effect by one unit and drops expired entries.
// Permanent effects are not affected.
//
// Postcondition: returns the effects that expired on this tick.
func (s *ActiveSet) Tick() []Effect {
	var expired []Effect
	kept := s.effects[:0]
	for _, a := range s.effects {
		if a.Remaining == PermanentDuration {
			kept = append(kept, a)
			continue
		}
		a.Remaining--
		if a.Remaining <= 0 {
			expired = append(expired, a.Effect)
			continue
		}
		kept = append(kept, a)
	}
	s.effects = kept
	return expired
}

// AttributeModifier returns the net delta the active effects apply to the
// named attribute, combining attribute_delta and all_attributes_delta entries.
func (s *ActiveSet) AttributeModifier(attribute string) int {
	total := 0
	for _, a := range s.effects {
		switch a.Effect.Kind {
		case KindAttributeDelta:
			if a.Effect.Attribute == attribute {
				total += a.Effect.Delta
			}
		case KindAllAttributesDelta:
			total += a.Effect.Delta
		}
	}
	return total
}

// HasState reports whether a special_state effect with the given name is active.
func (s *ActiveSet) HasState(state string) bool {
	for _, a := range s.effects {
		if a.Effect.Kind == KindSpecialState && a.Effect.State == state {
			return true
		}
	}
	return false
}

// Titles returns all granted titles, in application order.
func (s *ActiveSet) Titles() []string {
	var titles []string
	for _, a := range s.effects {
		if a.Effect.Kind == KindTitleGrant {
			titles = append(titles, a.Effect.Title)
		}
	}
	return titles
}

// All returns a snapshot of the active effects.
func (s *ActiveSet) All() []Active {
	out := make([]Active, len(s.effects))
	copy(out, s.effects)
	return out
}
