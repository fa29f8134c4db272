package loot

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/dice"
)

// enchantChance is the percent chance a synthesized item of each rarity
// carries an enchantment, rising from 10% at common to 100% at legendary.
var enchantChance = map[Rarity]int{
	Common:    10,
	Uncommon:  30,
	Rare:      55,
	Epic:      80,
	Legendary: 100,
}

// statBonusByRarity is the fixed primary stat bonus per rarity tier.
var statBonusByRarity = map[Rarity]int{
	Common:    1,
	Uncommon:  2,
	Rare:      3,
	Epic:      5,
	Legendary: 8,
}

// baseValueByRarity is the currency value base per rarity, before level scaling.
var baseValueByRarity = map[Rarity]int{
	Common:    10,
	Uncommon:  25,
	Rare:      75,
	Epic:      200,
	Legendary: 500,
}

// requiredLevelOffset shifts the item's level requirement relative to the
// target character's level.
var requiredLevelOffset = map[Rarity]int{
	Common:    -1,
	Uncommon:  0,
	Rare:      0,
	Epic:      1,
	Legendary: 2,
}

// Synthesize composes a brand-new item of the given rarity for a character of
// the given level: a uniformly chosen base type from a uniformly chosen
// category, a rarity-scoped material and prefix, an optional enchantment with
// rarity-scaled probability, derived stat bonuses, derived requirements, and
// a level-scaled value.
//
// Precondition: parts has passed Validate; rarity.Valid(); level >= 1; src non-nil.
// Postcondition: the returned item passes Validate, is flagged Synthesized,
// and carries a fresh InstanceID.
func Synthesize(parts *Parts, rarity Rarity, level int, src dice.Source) *Item {
	category := Categories[src.Intn(len(Categories))]

	chassis := parts.baseTypesFor(category, rarity)
	base := chassis[src.Intn(len(chassis))]

	materials := parts.Materials[rarity]
	material := materials[src.Intn(len(materials))]

	prefixes := parts.Prefixes[rarity]
	prefix := prefixes[src.Intn(len(prefixes))]

	name := fmt.Sprintf("%s %s %s", prefix, material, base.Name)

	bonuses := map[string]int{}
	bonusAttr := character.Attributes[src.Intn(len(character.Attributes))]
	bonuses[string(bonusAttr)] = statBonusByRarity[rarity]

	if src.Intn(100) < enchantChance[rarity] {
		if enchants := parts.enchantmentsFor(category, rarity); len(enchants) > 0 {
			e := enchants[src.Intn(len(enchants))]
			name = fmt.Sprintf("%s of %s", name, e.Name)
			for stat, bonus := range e.Bonuses {
				bonuses[stat] += bonus
			}
		}
	}

	reqLevel := level + requiredLevelOffset[rarity]
	if reqLevel < 1 {
		reqLevel = 1
	}
	if reqLevel > character.MaxLevel {
		reqLevel = character.MaxLevel
	}

	value := int(float64(baseValueByRarity[rarity]) * (1 + float64(level)*0.1))

	return &Item{
		InstanceID:        uuid.New().String(),
		Name:              name,
		Description:       fmt.Sprintf("A %s %s, quest-won.", rarity, base.Name),
		Rarity:            rarity,
		Category:          category,
		Bonuses:           bonuses,
		RequiredLevel:     reqLevel,
		RequiredAttribute: bonusAttr,
		RequiredScore:     8 + 2*rarity.Index(),
		Value:             value,
		Synthesized:       true,
	}
}
