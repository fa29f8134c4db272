package quest_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/quest"
)

// seqSource returns scripted values in order, wrapping when exhausted.
type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}

func testTemplate(t *testing.T, id string, minLevel int, attr character.Attribute) *quest.Template {
	t.Helper()
	tmpl := standardTemplate(t)
	tmpl.ID = id
	tmpl.MinLevel = minLevel
	tmpl.Attribute = attr
	return tmpl
}

func TestCatalog_RejectsDuplicateIDs(t *testing.T) {
	a := testTemplate(t, "dup", 1, character.Strength)
	b := testTemplate(t, "dup", 1, character.Wisdom)
	_, err := quest.NewCatalog([]*quest.Template{a, b})
	assert.Error(t, err)
}

func TestCatalog_PickRandom_LevelGate(t *testing.T) {
	cat, err := quest.NewCatalog([]*quest.Template{
		testTemplate(t, "low", 1, character.Strength),
		testTemplate(t, "high", 10, character.Strength),
	})
	require.NoError(t, err)

	// Preference coin 1 = no preference filter, then uniform index.
	src := &seqSource{vals: []int{1, 0}}
	got, ok := cat.PickRandom(src, 5, character.Strength)
	require.True(t, ok)
	assert.Equal(t, "low", got.ID, "templates above the level cap are excluded")

	_, ok = cat.PickRandom(&seqSource{vals: []int{1, 0}}, 0, character.Strength)
	assert.False(t, ok, "no eligible templates yields no pick")
}

// TestCatalog_PickRandom_AttributePreference verifies the 50% weighted
// preference for the requester's class-primary attribute, with fallback to the
// unweighted pool when no template matches.
func TestCatalog_PickRandom_AttributePreference(t *testing.T) {
	cat, err := quest.NewCatalog([]*quest.Template{
		testTemplate(t, "brawn", 1, character.Strength),
		testTemplate(t, "wits", 1, character.Intelligence),
	})
	require.NoError(t, err)

	// Coin 0 = prefer; pool collapses to the matching template.
	got, ok := cat.PickRandom(&seqSource{vals: []int{0, 0}}, 5, character.Intelligence)
	require.True(t, ok)
	assert.Equal(t, "wits", got.ID)

	// Preferred attribute with no candidates falls back to the full pool.
	got, ok = cat.PickRandom(&seqSource{vals: []int{0, 1}}, 5, character.Charisma)
	require.True(t, ok)
	assert.Contains(t, []string{"brawn", "wits"}, got.ID)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	doc := `id: rat-cellar
title: "Rats in the Cellar"
description: "The innkeeper needs the cellar cleared."
difficulty: novice
attribute: strength
base_xp: 100
base_gold: 50
min_level: 1
tiers:
  - range: "20"
    text: "A flawless rout."
    success: true
    xp_multiplier: 2.0
    gold_multiplier: 2.0
  - range: "15-19"
    text: "The cellar is cleared."
    success: true
    xp_multiplier: 1.5
    gold_multiplier: 1.5
  - range: "10-14"
    text: "A hard-won victory."
    success: true
    xp_multiplier: 1.0
    gold_multiplier: 1.0
  - range: "5-9"
    text: "You retreat, bitten."
    success: false
    xp_multiplier: 0.25
    gold_multiplier: 0
    damage: "1d4"
  - range: "2-4"
    text: "The rats overwhelm you."
    success: false
    xp_multiplier: 0
    gold_multiplier: 0
    damage: "2d6"
  - range: "1"
    text: "Catastrophe in the dark."
    success: false
    xp_multiplier: 0
    gold_multiplier: -1.0
    damage: "3d6"
    effects:
      - kind: special_state
        state: "shaken"
        duration: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rat-cellar.yaml"), []byte(doc), 0o644))

	cat, err := quest.LoadDirectory(dir)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())

	tmpl, ok := cat.Get("rat-cellar")
	require.True(t, ok)
	assert.Equal(t, quest.Novice, tmpl.Difficulty)
	assert.Len(t, tmpl.Tiers, 6)
	assert.Equal(t, quest.LoseAllGold, tmpl.Tiers[5].GoldMultiplier)
	require.Len(t, tmpl.Tiers[5].Effects, 1)
	assert.Equal(t, "shaken", tmpl.Tiers[5].Effects[0].State)
}

func TestLoadDirectory_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	doc := "id: x\ntitle: X\nbogus_field: 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.yaml"), []byte(doc), 0o644))
	_, err := quest.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestAssignment_ActiveAt(t *testing.T) {
	now := time.Now()
	a := &quest.Assignment{AssignedAt: now, ExpiresAt: now.Add(4 * time.Hour)}
	assert.True(t, a.ActiveAt(now))
	assert.False(t, a.ActiveAt(a.ExpiresAt), "expiry boundary is inactive")
	a.Completed = true
	assert.False(t, a.ActiveAt(now))
}
