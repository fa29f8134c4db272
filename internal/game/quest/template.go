// Package quest defines the quest catalog: templates, difficulty tiers,
// outcome tables, and the roll-to-tier resolver.
package quest

import (
	"fmt"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/dice"
	"github.com/fablebot/fablebot/internal/game/effect"
)

// Difficulty orders quest templates from easiest to hardest. Each difficulty
// carries a level range and the loot weight profile (see the loot package).
type Difficulty string

const (
	Novice        Difficulty = "novice"
	Adept         Difficulty = "adept"
	Veteran       Difficulty = "veteran"
	Elite         Difficulty = "elite"
	LegendaryTier Difficulty = "legendary"
)

// Difficulties lists all difficulty tiers in ascending order.
var Difficulties = []Difficulty{Novice, Adept, Veteran, Elite, LegendaryTier}

// levelRanges maps each difficulty to its intended character level band.
var levelRanges = map[Difficulty][2]int{
	Novice:        {1, 4},
	Adept:         {3, 8},
	Veteran:       {7, 14},
	Elite:         {12, 18},
	LegendaryTier: {16, 20},
}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	_, ok := levelRanges[d]
	return ok
}

// LevelRange returns the inclusive level band for the difficulty.
//
// Precondition: d.Valid().
func (d Difficulty) LevelRange() (min, max int) {
	r, ok := levelRanges[d]
	if !ok {
		panic("quest: LevelRange called with invalid difficulty " + string(d))
	}
	return r[0], r[1]
}

// LoseAllGold is the gold multiplier sentinel meaning "lose all current gold"
// rather than a literal negative product.
const LoseAllGold = -1.0

// OutcomeTier is one row of a quest's outcome table, bound to a roll range.
type OutcomeTier struct {
	Range          RollRange       `yaml:"range"`
	Text           string          `yaml:"text"`
	Success        bool            `yaml:"success"`
	XPMultiplier   float64         `yaml:"xp_multiplier"`
	GoldMultiplier float64         `yaml:"gold_multiplier"`
	Damage         string          `yaml:"damage,omitempty"`  // dice notation, empty = no damage
	Effects        []effect.Effect `yaml:"effects,omitempty"` // applied with the tier
}

// Template is an immutable quest catalog entry.
type Template struct {
	ID          string              `yaml:"id"`
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	Difficulty  Difficulty          `yaml:"difficulty"`
	Attribute   character.Attribute `yaml:"attribute"` // governing attribute
	BaseXP      int                 `yaml:"base_xp"`
	BaseGold    int                 `yaml:"base_gold"`
	MinLevel    int                 `yaml:"min_level"`
	Hook        string              `yaml:"hook,omitempty"` // Lua hook function name, optional
	Tiers       []OutcomeTier       `yaml:"tiers"`
}

// MaxPlausibleModifier bounds the attribute modifier the coverage invariant
// accounts for: tiers should jointly cover totals 1 through 20+this.
const MaxPlausibleModifier = 5

// Validate checks the template's invariants, including full outcome coverage
// of every total in [1, 20]. Gaps above 20 are tolerated (the resolver's
// fallback handles them) but gaps inside the natural range are authoring
// defects rejected at load time.
//
// Postcondition: returns nil iff the template is well-formed.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("quest: template must have an id")
	}
	if t.Title == "" {
		return fmt.Errorf("quest %q: title must not be empty", t.ID)
	}
	if !t.Difficulty.Valid() {
		return fmt.Errorf("quest %q: unknown difficulty %q", t.ID, t.Difficulty)
	}
	if !t.Attribute.Valid() {
		return fmt.Errorf("quest %q: unknown attribute %q", t.ID, t.Attribute)
	}
	if t.BaseXP < 0 || t.BaseGold < 0 {
		return fmt.Errorf("quest %q: base rewards must be >= 0", t.ID)
	}
	if t.MinLevel < 1 || t.MinLevel > character.MaxLevel {
		return fmt.Errorf("quest %q: min_level must be in [1, %d], got %d", t.ID, character.MaxLevel, t.MinLevel)
	}
	if len(t.Tiers) == 0 {
		return fmt.Errorf("quest %q: outcome table must not be empty", t.ID)
	}

	for i, tier := range t.Tiers {
		if tier.Range.Raw == "" {
			return fmt.Errorf("quest %q: tier %d has no range", t.ID, i)
		}
		if tier.Text == "" {
			return fmt.Errorf("quest %q: tier %q has no result text", t.ID, tier.Range.Raw)
		}
		if tier.GoldMultiplier < 0 && tier.GoldMultiplier != LoseAllGold {
			return fmt.Errorf("quest %q: tier %q gold multiplier must be >= 0 or the lose-all sentinel %v",
				t.ID, tier.Range.Raw, LoseAllGold)
		}
		if tier.XPMultiplier < 0 {
			return fmt.Errorf("quest %q: tier %q xp multiplier must be >= 0", t.ID, tier.Range.Raw)
		}
		if tier.Damage != "" {
			if err := validDamageFormula(tier.Damage); err != nil {
				return fmt.Errorf("quest %q: tier %q: %w", t.ID, tier.Range.Raw, err)
			}
		}
		for j, e := range tier.Effects {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("quest %q: tier %q effect %d: %w", t.ID, tier.Range.Raw, j, err)
			}
		}
	}

	for total := 1; total <= 20; total++ {
		if !t.covers(total) {
			return fmt.Errorf("quest %q: outcome table has a gap at total %d", t.ID, total)
		}
	}
	return nil
}

// validDamageFormula checks a damage formula parses as dice notation.
func validDamageFormula(formula string) error {
	if _, err := dice.Parse(formula); err != nil {
		return fmt.Errorf("bad damage formula: %w", err)
	}
	return nil
}

// covers reports whether any tier matches the given total under the normal
// (non-critical) matching rules.
func (t *Template) covers(total int) bool {
	for _, tier := range t.Tiers {
		if tier.Range.Contains(total) {
			return true
		}
	}
	return false
}
