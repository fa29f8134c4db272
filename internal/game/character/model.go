// Package character defines the character domain model and the pure leveling
// and damage state machines the reward applier drives.
package character

import (
	"errors"
	"time"
)

// ErrNotFound is returned by character stores when a lookup yields no results.
var ErrNotFound = errors.New("character not found")

// Attribute names the six ability scores.
type Attribute string

const (
	Strength     Attribute = "strength"
	Dexterity    Attribute = "dexterity"
	Constitution Attribute = "constitution"
	Intelligence Attribute = "intelligence"
	Wisdom       Attribute = "wisdom"
	Charisma     Attribute = "charisma"
)

// Attributes lists all six ability scores in canonical order.
var Attributes = []Attribute{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

// Valid reports whether a is one of the six ability scores.
func (a Attribute) Valid() bool {
	switch a {
	case Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma:
		return true
	}
	return false
}

// AbilityScores holds the six ability score values for a character.
type AbilityScores struct {
	Strength     int
	Dexterity    int
	Constitution int
	Intelligence int
	Wisdom       int
	Charisma     int
}

// Score returns the value of the named attribute.
//
// Precondition: attr.Valid().
func (a AbilityScores) Score(attr Attribute) int {
	switch attr {
	case Strength:
		return a.Strength
	case Dexterity:
		return a.Dexterity
	case Constitution:
		return a.Constitution
	case Intelligence:
		return a.Intelligence
	case Wisdom:
		return a.Wisdom
	case Charisma:
		return a.Charisma
	}
	panic("character: Score called with invalid attribute " + string(attr))
}

// Modifier returns the roll modifier for a score: (score - 10) / 2.
func Modifier(score int) int {
	// Go integer division truncates toward zero; low scores need a floor
	// division so 9 maps to -1, not 0.
	d := score - 10
	if d < 0 {
		return -((-d + 1) / 2)
	}
	return d / 2
}

// Character represents a player character's persistent state.
//
// ID is set by the persistence layer; a zero value indicates an unsaved character.
// Invariants: CurrentHP in [0, MaxHP]; Level in [1, MaxLevel]; CurrentHP == 0
// implies Alive == false.
type Character struct {
	ID     int64
	ChatID int64

	Name  string
	Class string // class ID
	Race  string // race ID

	Level         int
	Experience    int
	Gold          int
	AbilityPoints int

	Abilities AbilityScores
	MaxHP     int
	CurrentHP int
	Alive     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RollModifier returns the character's modifier for rolls governed by attr.
//
// Precondition: attr.Valid().
func (c *Character) RollModifier(attr Attribute) int {
	return Modifier(c.Abilities.Score(attr))
}
