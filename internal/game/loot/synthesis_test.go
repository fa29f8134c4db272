package loot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/dice"
	"github.com/fablebot/fablebot/internal/game/loot"
)

func TestDefaultParts_Valid(t *testing.T) {
	require.NoError(t, loot.DefaultParts().Validate())
}

func TestParts_Validate_CatchesEmptyTables(t *testing.T) {
	p := loot.DefaultParts()
	p.Materials[loot.Epic] = nil
	assert.Error(t, p.Validate())

	p = loot.DefaultParts()
	p.BaseTypes[loot.Consumable] = nil
	assert.Error(t, p.Validate())
}

// Every category needs at least one chassis with no rarity gate; otherwise a
// low-rarity synthesis has nothing to draw from.
func TestParts_Validate_RejectsFullyGatedCategory(t *testing.T) {
	p := loot.DefaultParts()
	p.BaseTypes[loot.Weapon] = []loot.BaseType{
		{Name: "Greatsword", MinRarity: loot.Rare},
		{Name: "Runeblade", MinRarity: loot.Epic},
	}
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weapon")
}

// TestSynthesize_Composition scripts the source to pin the full composition:
// category, chassis, material, prefix, enchantment, and the derived fields.
func TestSynthesize_Composition(t *testing.T) {
	parts := loot.DefaultParts()
	// Draws, in order: category, base type, material, prefix, bonus
	// attribute, enchant chance roll, enchantment pick.
	src := &seqSource{vals: []int{0, 0, 0, 0, 0, 0, 0}}

	item := loot.Synthesize(parts, loot.Common, 3, src)
	require.NoError(t, item.Validate())

	assert.Equal(t, loot.Weapon, item.Category)
	assert.Equal(t, "Sturdy Iron Sword of Smiting", item.Name)
	assert.True(t, item.Synthesized)
	assert.NotEmpty(t, item.InstanceID)
	// Primary +1 strength from rarity, +1 strength from Smiting.
	assert.Equal(t, 2, item.Bonuses["strength"])
	assert.Equal(t, character.Strength, item.RequiredAttribute)
	assert.Equal(t, 2, item.RequiredLevel, "common offsets the level requirement by -1")
	assert.Equal(t, 8, item.RequiredScore)
	// 10 base value * (1 + 3*0.1)
	assert.Equal(t, 13, item.Value)
}

// TestSynthesize_NoEnchantment verifies the chance gate: a roll at or above
// the rarity's enchant chance yields an unenchanted item.
func TestSynthesize_NoEnchantment(t *testing.T) {
	parts := loot.DefaultParts()
	// Sixth draw (enchant chance) is 50 >= 10% for common.
	src := &seqSource{vals: []int{0, 0, 0, 0, 0, 50}}

	item := loot.Synthesize(parts, loot.Common, 1, src)
	assert.Equal(t, "Sturdy Iron Sword", item.Name)
	assert.Len(t, item.Bonuses, 1, "only the rarity stat bonus")
}

// TestSynthesize_LegendaryAlwaysEnchanted: enchant chance reaches 100% at
// legendary, so every legendary synthesis carries an enchantment.
func TestSynthesize_LegendaryAlwaysEnchanted(t *testing.T) {
	parts := loot.DefaultParts()
	src := dice.NewCryptoSource()
	for i := 0; i < 50; i++ {
		item := loot.Synthesize(parts, loot.Legendary, 18, src)
		assert.Contains(t, item.Name, " of ", "legendary items are always enchanted: %s", item.Name)
		assert.GreaterOrEqual(t, len(item.Bonuses), 1)
	}
}

// TestSynthesize_Property: any rarity/level combination yields a valid,
// rarity-consistent item.
func TestSynthesize_Property(t *testing.T) {
	parts := loot.DefaultParts()
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		rarity := loot.Rarities[rapid.IntRange(0, len(loot.Rarities)-1).Draw(rt, "rarity")]
		level := rapid.IntRange(1, character.MaxLevel).Draw(rt, "level")

		item := loot.Synthesize(parts, rarity, level, src)
		require.NoError(rt, item.Validate())
		require.Equal(rt, rarity, item.Rarity)
		require.True(rt, item.Synthesized)
		require.GreaterOrEqual(rt, item.RequiredLevel, 1)
		require.LessOrEqual(rt, item.RequiredLevel, character.MaxLevel)
		require.Positive(rt, item.Value)
		require.NotEmpty(rt, item.Bonuses)
	})
}
