// Package effect defines the typed status effects a quest outcome can place on
// a character. Effects are a closed tagged union rather than free-form
// key-value bags so every payload is checked at catalog load time.
package effect

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the effect union.
type Kind string

const (
	// KindAttributeDelta adjusts a single ability score.
	KindAttributeDelta Kind = "attribute_delta"
	// KindAllAttributesDelta adjusts all six ability scores by the same amount.
	KindAllAttributesDelta Kind = "all_attributes_delta"
	// KindSpecialState sets a named boolean state on the character (e.g. "cursed").
	KindSpecialState Kind = "special_state"
	// KindTitleGrant awards a permanent display title.
	KindTitleGrant Kind = "title_grant"
)

// PermanentDuration marks an effect that never expires.
const PermanentDuration = -1

// Effect is one status effect with a duration in abstract time units.
// Duration == PermanentDuration means the effect never expires; otherwise the
// duration must be >= 1.
type Effect struct {
	Kind     Kind   `yaml:"kind" json:"kind"`
	Duration int    `yaml:"duration" json:"duration"`
	Attribute string `yaml:"attribute,omitempty" json:"attribute,omitempty"` // attribute_delta only
	Delta    int    `yaml:"delta,omitempty" json:"delta,omitempty"`          // *_delta kinds only
	State    string `yaml:"state,omitempty" json:"state,omitempty"`          // special_state only
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`          // title_grant only
}

// validAttributes is the closed set of ability score names.
var validAttributes = map[string]bool{
	"strength": true, "dexterity": true, "constitution": true,
	"intelligence": true, "wisdom": true, "charisma": true,
}

// Validate checks the effect's payload against its kind.
//
// Postcondition: returns nil iff the effect is well-formed for its Kind and
// Duration is PermanentDuration or >= 1.
func (e Effect) Validate() error {
	if e.Duration != PermanentDuration && e.Duration < 1 {
		return fmt.Errorf("effect: duration must be %d (permanent) or >= 1, got %d", PermanentDuration, e.Duration)
	}
	switch e.Kind {
	case KindAttributeDelta:
		if !validAttributes[e.Attribute] {
			return fmt.Errorf("effect: attribute_delta has unknown attribute %q", e.Attribute)
		}
		if e.Delta == 0 {
			return fmt.Errorf("effect: attribute_delta must have a non-zero delta")
		}
	case KindAllAttributesDelta:
		if e.Delta == 0 {
			return fmt.Errorf("effect: all_attributes_delta must have a non-zero delta")
		}
	case KindSpecialState:
		if e.State == "" {
			return fmt.Errorf("effect: special_state must name a state")
		}
	case KindTitleGrant:
		if e.Title == "" {
			return fmt.Errorf("effect: title_grant must name a title")
		}
		if e.Duration != PermanentDuration {
			return fmt.Errorf("effect: titles are permanent; duration must be %d", PermanentDuration)
		}
	default:
		return fmt.Errorf("effect: unknown kind %q", e.Kind)
	}
	return nil
}

// String renders the effect for logs and player-facing history.
func (e Effect) String() string {
	switch e.Kind {
	case KindAttributeDelta:
		return fmt.Sprintf("%+d %s (%s)", e.Delta, e.Attribute, durationString(e.Duration))
	case KindAllAttributesDelta:
		return fmt.Sprintf("%+d all attributes (%s)", e.Delta, durationString(e.Duration))
	case KindSpecialState:
		return fmt.Sprintf("state %q (%s)", e.State, durationString(e.Duration))
	case KindTitleGrant:
		return fmt.Sprintf("title %q", e.Title)
	default:
		return string(e.Kind)
	}
}

func durationString(d int) string {
	if d == PermanentDuration {
		return "permanent"
	}
	return fmt.Sprintf("%d turns", d)
}

// ParseSet unmarshals a YAML effect list and validates every entry.
//
// Postcondition: every returned effect has passed Validate.
func ParseSet(raw []byte) ([]Effect, error) {
	var effects []Effect
	if err := yaml.Unmarshal(raw, &effects); err != nil {
		return nil, fmt.Errorf("effect: parsing effect set: %w", err)
	}
	for i, e := range effects {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("effect: entry %d: %w", i, err)
		}
	}
	return effects, nil
}
