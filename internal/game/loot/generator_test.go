package loot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fablebot/fablebot/internal/game/loot"
	"github.com/fablebot/fablebot/internal/game/quest"
)

// fakeCatalog serves scripted candidate lists and records query flags.
type fakeCatalog struct {
	restricted []*loot.Item // unique-excluded pool
	relaxed    []*loot.Item // pool with owned uniques included
	calls      int
}

func (f *fakeCatalog) CandidatesByRarity(_ context.Context, rarity loot.Rarity, _ int64, includeOwnedUniques bool) ([]*loot.Item, error) {
	f.calls++
	if includeOwnedUniques {
		return f.relaxed, nil
	}
	return f.restricted, nil
}

func catalogItem(name string, rarity loot.Rarity) *loot.Item {
	return &loot.Item{
		ID: 1, Name: name, Rarity: rarity, Category: loot.Weapon,
		Bonuses: map[string]int{"strength": 1}, RequiredLevel: 1, Value: 10,
	}
}

func TestGenerate_NoDropWhenChanceFails(t *testing.T) {
	cat := &fakeCatalog{}
	// Draws: gold spread, item chance (99 -> fail for novice's 35%).
	src := &seqSource{vals: []int{0, 99}}
	gen := loot.NewGenerator(loot.DefaultParts(), cat, src, zaptest.NewLogger(t))

	res, err := gen.Generate(context.Background(), loot.Request{
		Difficulty: quest.Novice, NaturalRoll: 12, CharacterLevel: 2,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 5, res.Gold, "gold min when the spread roll is 0")
	assert.Zero(t, cat.calls)
}

// TestGenerate_CatalogPick drives the catalog path: item chance passes,
// synthesis chance fails, uniform pick from the restricted pool.
func TestGenerate_CatalogPick(t *testing.T) {
	cat := &fakeCatalog{restricted: []*loot.Item{
		catalogItem("Worn Club", loot.Common),
		catalogItem("Bent Knife", loot.Common),
	}}
	// Draws: gold, item chance (0 -> pass), rarity (0 -> common),
	// synthesis chance (99 -> catalog), candidate index (1).
	src := &seqSource{vals: []int{0, 0, 0, 99, 1}}
	gen := loot.NewGenerator(loot.DefaultParts(), cat, src, zaptest.NewLogger(t))

	res, err := gen.Generate(context.Background(), loot.Request{
		Difficulty: quest.Novice, NaturalRoll: 12, CharacterID: 7, CharacterLevel: 2,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Bent Knife", res.Items[0].Name)
	assert.False(t, res.Items[0].Synthesized)
}

// TestGenerate_UniqueRelaxation: an empty restricted pool retries with owned
// uniques included before giving up.
func TestGenerate_UniqueRelaxation(t *testing.T) {
	cat := &fakeCatalog{relaxed: []*loot.Item{catalogItem("Heirloom Blade", loot.Common)}}
	src := &seqSource{vals: []int{0, 0, 0, 99, 0}}
	gen := loot.NewGenerator(loot.DefaultParts(), cat, src, zaptest.NewLogger(t))

	res, err := gen.Generate(context.Background(), loot.Request{
		Difficulty: quest.Novice, NaturalRoll: 12, CharacterLevel: 2,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Heirloom Blade", res.Items[0].Name)
	assert.Equal(t, 2, cat.calls, "restricted query, then relaxed query")
}

func TestGenerate_EmptyCatalogFallsBackToSynthesis(t *testing.T) {
	cat := &fakeCatalog{}
	src := &seqSource{vals: []int{0, 0, 0, 99, 0}}
	gen := loot.NewGenerator(loot.DefaultParts(), cat, src, zaptest.NewLogger(t))

	res, err := gen.Generate(context.Background(), loot.Request{
		Difficulty: quest.Novice, NaturalRoll: 12, CharacterLevel: 2,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.True(t, res.Items[0].Synthesized)
}

// TestGenerate_Natural20 pins the crit rules: doubled loot gold, a guaranteed
// draw even when the item-chance roll fails, and one bonus draw from the
// richer table (never common/uncommon).
func TestGenerate_Natural20(t *testing.T) {
	cat := &fakeCatalog{}
	// Draws: gold (0 -> min 5, doubled to 10), item chance (99 -> fails but
	// crit guarantees one draw), then synthesis path draws for both items.
	src := &seqSource{vals: []int{0, 99, 0, 0}}
	gen := loot.NewGenerator(loot.DefaultParts(), cat, src, zaptest.NewLogger(t))

	res, err := gen.Generate(context.Background(), loot.Request{
		Difficulty: quest.Novice, NaturalRoll: 20, CharacterLevel: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Gold, "natural 20 doubles loot gold")
	require.Len(t, res.Items, 2, "guaranteed draw plus the crit bonus draw")

	bonus := res.Items[1]
	assert.NotContains(t, []loot.Rarity{loot.Common, loot.Uncommon}, bonus.Rarity,
		"the bonus draw table has no common or uncommon weight")
}
