package quest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/quest"
)

func mustRange(t *testing.T, raw string) quest.RollRange {
	t.Helper()
	r, err := quest.ParseRollRange(raw)
	require.NoError(t, err)
	return r
}

// standardTemplate builds the canonical six-tier outcome table:
// "20", "15-19", "10-14", "5-9", "2-4", "1".
func standardTemplate(t *testing.T) *quest.Template {
	t.Helper()
	tmpl := &quest.Template{
		ID:         "rat-cellar",
		Title:      "Rats in the Cellar",
		Difficulty: quest.Novice,
		Attribute:  character.Strength,
		BaseXP:     100,
		BaseGold:   50,
		MinLevel:   1,
		Tiers: []quest.OutcomeTier{
			{Range: mustRange(t, "20"), Text: "A flawless rout.", Success: true, XPMultiplier: 2.0, GoldMultiplier: 2.0},
			{Range: mustRange(t, "15-19"), Text: "The cellar is cleared.", Success: true, XPMultiplier: 1.5, GoldMultiplier: 1.5},
			{Range: mustRange(t, "10-14"), Text: "A hard-won victory.", Success: true, XPMultiplier: 1.0, GoldMultiplier: 1.0},
			{Range: mustRange(t, "5-9"), Text: "You retreat, bitten.", Success: false, XPMultiplier: 0.25, GoldMultiplier: 0, Damage: "1d4"},
			{Range: mustRange(t, "2-4"), Text: "The rats overwhelm you.", Success: false, XPMultiplier: 0, GoldMultiplier: 0, Damage: "2d6"},
			{Range: mustRange(t, "1"), Text: "Catastrophe in the dark.", Success: false, XPMultiplier: 0, GoldMultiplier: quest.LoseAllGold, Damage: "3d6"},
		},
	}
	require.NoError(t, tmpl.Validate())
	return tmpl
}

func TestParseRollRange(t *testing.T) {
	r := mustRange(t, "15-19")
	assert.Equal(t, 15, r.Min)
	assert.Equal(t, 19, r.Max)
	assert.False(t, r.Exact)

	r = mustRange(t, "20")
	assert.True(t, r.Exact)
	assert.True(t, r.IsCriticalSuccess())
	assert.False(t, r.IsCriticalFailure())

	r = mustRange(t, "1")
	assert.True(t, r.IsCriticalFailure())

	for _, bad := range []string{"", "x", "5-3", "0", "0-4", "-2-4", "1-"} {
		_, err := quest.ParseRollRange(bad)
		assert.Error(t, err, "range %q must be rejected", bad)
	}
}

// TestResolveOutcome_TierCoverage property-tests the coverage invariant: every
// total in [1, 20] maps to exactly one tier of the canonical table.
func TestResolveOutcome_TierCoverage(t *testing.T) {
	tmpl := standardTemplate(t)
	rapid.Check(t, func(rt *rapid.T) {
		total := rapid.IntRange(1, 20).Draw(rt, "total")

		matched := 0
		for _, tier := range tmpl.Tiers {
			if tier.Range.Contains(total) {
				matched++
			}
		}
		require.Equal(rt, 1, matched, "total %d must match exactly one tier", total)
	})
}

// TestResolveOutcome_CriticalOverride: a natural 20 always selects the "20"
// tier and a natural 1 always selects the "1" tier, for any modifier.
func TestResolveOutcome_CriticalOverride(t *testing.T) {
	tmpl := standardTemplate(t)
	for _, mod := range []int{-100, -5, 0, 5, 100} {
		tier, res := quest.ResolveOutcome(tmpl, 20, mod)
		assert.True(t, tier.Range.IsCriticalSuccess(), "mod %d", mod)
		assert.True(t, res.Critical)
		assert.Equal(t, 20, res.Total, "criticals ignore the modifier")

		tier, res = quest.ResolveOutcome(tmpl, 1, mod)
		assert.True(t, tier.Range.IsCriticalFailure(), "mod %d", mod)
		assert.True(t, res.Critical)
	}
}

func TestResolveOutcome_NormalRanges(t *testing.T) {
	tmpl := standardTemplate(t)
	tests := []struct {
		roll, mod int
		wantRange string
	}{
		{15, 2, "15-19"}, // Scenario A: total 17
		{10, 0, "10-14"},
		{12, 2, "10-14"},
		{7, 2, "5-9"},
		{3, 0, "2-4"},
		{2, -1, "1"}, // total 1 lands on the bare "1" tier by exact match
		{19, 0, "15-19"},
	}
	for _, tc := range tests {
		tier, res := quest.ResolveOutcome(tmpl, tc.roll, tc.mod)
		assert.Equal(t, tc.wantRange, tier.Range.Raw, "roll %d mod %d", tc.roll, tc.mod)
		assert.Equal(t, tc.roll+tc.mod, res.Total)
		assert.False(t, res.Critical)
		assert.False(t, res.Fallback)
	}
}

// TestResolveOutcome_FallbackOnGap verifies the worst-case substitution when
// no range contains the total, flagged for logging.
func TestResolveOutcome_FallbackOnGap(t *testing.T) {
	tmpl := standardTemplate(t)

	// Total above every ceiling: roll 19 + mod 5 = 24.
	tier, res := quest.ResolveOutcome(tmpl, 19, 5)
	assert.True(t, res.Fallback, "uncovered total must flag the fallback")
	assert.Equal(t, "1", tier.Range.Raw, "fallback picks the most punishing tier")

	// Total below the lowest floor: roll 2 + mod -5 = -3.
	tier, res = quest.ResolveOutcome(tmpl, 2, -5)
	assert.True(t, res.Fallback)
	assert.Equal(t, "1", tier.Range.Raw)
}

func TestResolveOutcome_BareIntegerMatchesExactOnly(t *testing.T) {
	tmpl := &quest.Template{
		ID: "bare", Title: "Bare", Difficulty: quest.Novice, Attribute: character.Wisdom,
		BaseXP: 10, BaseGold: 5, MinLevel: 1,
		Tiers: []quest.OutcomeTier{
			{Range: mustRange(t, "7"), Text: "Exactly seven.", Success: true, XPMultiplier: 1, GoldMultiplier: 1},
			{Range: mustRange(t, "1-6"), Text: "Low.", XPMultiplier: 0, GoldMultiplier: 0},
			{Range: mustRange(t, "8-20"), Text: "High.", Success: true, XPMultiplier: 1, GoldMultiplier: 1},
		},
	}
	require.NoError(t, tmpl.Validate())

	tier, _ := quest.ResolveOutcome(tmpl, 5, 2)
	assert.Equal(t, "7", tier.Range.Raw)
	tier, _ = quest.ResolveOutcome(tmpl, 5, 3)
	assert.Equal(t, "8-20", tier.Range.Raw)
}

func TestTemplate_Validate_RejectsGaps(t *testing.T) {
	tmpl := standardTemplate(t)
	// Remove the "10-14" tier to open a hole inside [1, 20].
	var tiers []quest.OutcomeTier
	for _, tier := range tmpl.Tiers {
		if tier.Range.Raw != "10-14" {
			tiers = append(tiers, tier)
		}
	}
	tmpl.Tiers = tiers
	err := tmpl.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gap")
}

func TestTemplate_Validate_RejectsBadDamage(t *testing.T) {
	tmpl := standardTemplate(t)
	tmpl.Tiers[3].Damage = "3d600"
	assert.Error(t, tmpl.Validate())
}
