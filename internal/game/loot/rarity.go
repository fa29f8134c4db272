// Package loot generates quest rewards: a weighted rarity draw followed by
// either a catalog item pick or full procedural item synthesis.
package loot

import (
	"github.com/fablebot/fablebot/internal/game/dice"
	"github.com/fablebot/fablebot/internal/game/quest"
)

// Rarity orders item rarities from most to least common. The draw subtracts
// weights in exactly this enumeration order.
type Rarity string

const (
	Common    Rarity = "common"
	Uncommon  Rarity = "uncommon"
	Rare      Rarity = "rare"
	Epic      Rarity = "epic"
	Legendary Rarity = "legendary"
)

// Rarities lists all rarities in fixed enumeration order.
var Rarities = []Rarity{Common, Uncommon, Rare, Epic, Legendary}

// rarityIndex maps each rarity to its position in the enumeration order.
var rarityIndex = map[Rarity]int{Common: 0, Uncommon: 1, Rare: 2, Epic: 3, Legendary: 4}

// Valid reports whether r is a known rarity.
func (r Rarity) Valid() bool {
	_, ok := rarityIndex[r]
	return ok
}

// Index returns the rarity's position in the enumeration order (common = 0).
//
// Precondition: r.Valid().
func (r Rarity) Index() int {
	return rarityIndex[r]
}

// WeightTable maps rarities to draw weights. A well-formed table sums to 100;
// the draw degrades gracefully when it does not.
type WeightTable map[Rarity]int

// Total returns the sum of all weights.
func (w WeightTable) Total() int {
	total := 0
	for _, r := range Rarities {
		total += w[r]
	}
	return total
}

// Draw selects a rarity: a uniform r in [0, Total()) has weights subtracted in
// fixed enumeration order until it goes negative; the rarity at that point is
// selected. An empty or zero-weight table degrades to Common.
//
// Precondition: src must be non-nil.
func (w WeightTable) Draw(src dice.Source) Rarity {
	total := w.Total()
	if total <= 0 {
		return Common
	}
	roll := src.Intn(total)
	for _, r := range Rarities {
		roll -= w[r]
		if roll < 0 {
			return r
		}
	}
	// Unreachable when weights are consistent with Total; kept for the
	// graceful-degradation contract.
	return Rarities[len(Rarities)-1]
}

// DifficultyProfile bundles the loot knobs for one quest difficulty.
type DifficultyProfile struct {
	Weights         WeightTable
	ItemChance      int // percent chance any item drops at all
	SynthesisChance int // percent chance a drop is synthesized, not catalog
	GoldMin         int // loot gold range, on top of the tier's quest gold
	GoldMax         int
}

// profiles is the fixed per-difficulty loot table. Weights sum to 100 with
// legendary at 0; the legendary column only opens via the unlock flag.
var profiles = map[quest.Difficulty]DifficultyProfile{
	quest.Novice: {
		Weights:         WeightTable{Common: 70, Uncommon: 25, Rare: 5, Epic: 0, Legendary: 0},
		ItemChance:      35,
		SynthesisChance: 25,
		GoldMin:         5,
		GoldMax:         20,
	},
	quest.Adept: {
		Weights:         WeightTable{Common: 55, Uncommon: 30, Rare: 12, Epic: 3, Legendary: 0},
		ItemChance:      45,
		SynthesisChance: 30,
		GoldMin:         10,
		GoldMax:         40,
	},
	quest.Veteran: {
		Weights:         WeightTable{Common: 40, Uncommon: 35, Rare: 18, Epic: 7, Legendary: 0},
		ItemChance:      55,
		SynthesisChance: 35,
		GoldMin:         25,
		GoldMax:         80,
	},
	quest.Elite: {
		Weights:         WeightTable{Common: 25, Uncommon: 35, Rare: 25, Epic: 15, Legendary: 0},
		ItemChance:      65,
		SynthesisChance: 40,
		GoldMin:         50,
		GoldMax:         150,
	},
	quest.LegendaryTier: {
		Weights:         WeightTable{Common: 15, Uncommon: 30, Rare: 30, Epic: 25, Legendary: 0},
		ItemChance:      80,
		SynthesisChance: 50,
		GoldMin:         100,
		GoldMax:         300,
	},
}

// legendaryUnlockedWeights overrides the weight tables when the legendary
// column is explicitly unlocked. Each still sums to 100.
var legendaryUnlockedWeights = map[quest.Difficulty]WeightTable{
	quest.Novice:        {Common: 69, Uncommon: 25, Rare: 5, Epic: 0, Legendary: 1},
	quest.Adept:         {Common: 54, Uncommon: 30, Rare: 12, Epic: 3, Legendary: 1},
	quest.Veteran:       {Common: 38, Uncommon: 35, Rare: 18, Epic: 7, Legendary: 2},
	quest.Elite:         {Common: 22, Uncommon: 34, Rare: 25, Epic: 15, Legendary: 4},
	quest.LegendaryTier: {Common: 10, Uncommon: 27, Rare: 30, Epic: 25, Legendary: 8},
}

// critBonusWeights is the richer table used for the natural-20 bonus draw:
// no common or uncommon, biased toward the top rarities.
var critBonusWeights = WeightTable{Common: 0, Uncommon: 0, Rare: 50, Epic: 35, Legendary: 15}

// Profile returns the loot profile for a difficulty, with the legendary
// column opened when unlocked. Unknown difficulties fall back to Novice.
func Profile(d quest.Difficulty, legendaryUnlocked bool) DifficultyProfile {
	p, ok := profiles[d]
	if !ok {
		p = profiles[quest.Novice]
	}
	if legendaryUnlocked {
		if w, ok := legendaryUnlockedWeights[d]; ok {
			p.Weights = w
		}
	}
	return p
}

// CritBonusWeights returns the natural-20 bonus draw table.
func CritBonusWeights() WeightTable {
	return critBonusWeights
}
