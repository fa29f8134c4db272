package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fablebot/fablebot/internal/game/character"
)

func newTestCharacter() *character.Character {
	return &character.Character{
		Name:      "Tamsin",
		Class:     "warrior",
		Race:      "human",
		Level:     1,
		Abilities: character.AbilityScores{Strength: 16, Dexterity: 12, Constitution: 14, Intelligence: 10, Wisdom: 10, Charisma: 8},
		MaxHP:     20,
		CurrentHP: 20,
		Alive:     true,
	}
}

func TestModifier(t *testing.T) {
	tests := []struct {
		score, want int
	}{
		{10, 0}, {11, 0}, {12, 1}, {16, 3}, {20, 5}, {9, -1}, {8, -1}, {7, -2}, {3, -4}, {1, -5},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, character.Modifier(tc.score), "score %d", tc.score)
	}
}

func TestXPThreshold_Monotonic(t *testing.T) {
	assert.Equal(t, 0, character.XPThreshold(1))
	assert.Equal(t, 100, character.XPThreshold(2))
	assert.Equal(t, 300, character.XPThreshold(3))
	for lvl := 2; lvl <= character.MaxLevel; lvl++ {
		assert.Greater(t, character.XPThreshold(lvl), character.XPThreshold(lvl-1),
			"thresholds must strictly increase")
	}
}

// TestApplyExperience_ZeroXPIsNoOp pins the leveling idempotence property:
// applying 0 XP never changes level, HP, or ability points.
func TestApplyExperience_ZeroXPIsNoOp(t *testing.T) {
	c := newTestCharacter()
	c.Experience = 99 // one short of level 2

	ups := character.ApplyExperience(c, 0)
	assert.Empty(t, ups)
	assert.Equal(t, 1, c.Level)
	assert.Equal(t, 20, c.MaxHP)
	assert.Equal(t, 0, c.AbilityPoints)
}

func TestApplyExperience_SingleLevel(t *testing.T) {
	c := newTestCharacter()
	ups := character.ApplyExperience(c, 100)
	require.Len(t, ups, 1)
	assert.Equal(t, 2, ups[0].NewLevel)
	// warrior 10 HP/level + con modifier 2, human multiplier 1.0
	assert.Equal(t, 12, ups[0].HPGained)
	assert.Equal(t, 32, c.MaxHP)
	assert.Equal(t, 32, c.CurrentHP)
	assert.Equal(t, 0, ups[0].AbilityPoints, "level 2 is not an ability-point level")
}

// TestApplyExperience_MultiLevel verifies the loop fires repeatedly for one
// grant and that ability-point levels pay out along the way.
func TestApplyExperience_MultiLevel(t *testing.T) {
	c := newTestCharacter()
	// Threshold for level 4 is 600; a single grant crosses 2, 3, and 4.
	ups := character.ApplyExperience(c, 600)
	require.Len(t, ups, 3)
	assert.Equal(t, 4, c.Level)
	assert.Equal(t, character.AbilityPointsPerGrant, c.AbilityPoints,
		"level 4 grants ability points")
	assert.Equal(t, 2, ups[2].AbilityPoints)
}

func TestApplyExperience_CappedAtMaxLevel(t *testing.T) {
	c := newTestCharacter()
	c.Level = character.MaxLevel
	c.Experience = character.XPThreshold(character.MaxLevel)

	ups := character.ApplyExperience(c, 1_000_000)
	assert.Empty(t, ups, "no levels past the cap")
	assert.Equal(t, character.MaxLevel, c.Level)
}

// TestApplyExperience_HPFloor verifies the 1 HP minimum for punishing
// class/race/constitution combinations.
func TestApplyExperience_HPFloor(t *testing.T) {
	c := newTestCharacter()
	c.Class = "mage"     // 6 HP/level
	c.Race = "halfling"  // 0.8 multiplier
	c.Abilities.Constitution = 1 // modifier -5

	ups := character.ApplyExperience(c, 100)
	require.Len(t, ups, 1)
	assert.Equal(t, 1, ups[0].HPGained, "HP gain floors at 1")
}

// TestApplyExperience_Property: level never exceeds MaxLevel, experience is
// conserved, and HP stays consistent for arbitrary grant sequences.
func TestApplyExperience_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newTestCharacter()
		grants := rapid.SliceOfN(rapid.IntRange(0, 5000), 1, 30).Draw(rt, "grants")

		total := 0
		for _, g := range grants {
			character.ApplyExperience(c, g)
			total += g
		}

		require.Equal(rt, total, c.Experience, "experience must be conserved")
		require.LessOrEqual(rt, c.Level, character.MaxLevel)
		require.GreaterOrEqual(rt, c.Level, 1)
		require.GreaterOrEqual(rt, c.Experience, character.XPThreshold(c.Level))
		require.LessOrEqual(rt, c.CurrentHP, c.MaxHP)
	})
}

func TestApplyDamage_ClampsAndKills(t *testing.T) {
	c := newTestCharacter()
	died := character.ApplyDamage(c, 5)
	assert.False(t, died)
	assert.Equal(t, 15, c.CurrentHP)

	died = character.ApplyDamage(c, 100)
	assert.True(t, died, "overkill damage reports the death transition")
	assert.Equal(t, 0, c.CurrentHP, "HP clamps at 0")
	assert.False(t, c.Alive)

	died = character.ApplyDamage(c, 10)
	assert.False(t, died, "a dead character does not die twice")
}

func TestApplyGoldDelta_NeverNegative(t *testing.T) {
	c := newTestCharacter()
	c.Gold = 30
	character.ApplyGoldDelta(c, -100)
	assert.Equal(t, 0, c.Gold)
	character.ApplyGoldDelta(c, 25)
	assert.Equal(t, 25, c.Gold)
}

func TestPrimaryAttribute(t *testing.T) {
	assert.Equal(t, character.Strength, character.PrimaryAttribute("warrior"))
	assert.Equal(t, character.Intelligence, character.PrimaryAttribute("mage"))
	assert.Equal(t, character.Strength, character.PrimaryAttribute("unknown"),
		"unknown classes degrade to strength")
}
