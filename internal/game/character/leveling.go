package character

import "math"

// LevelUp records a single level gained during an experience grant.
type LevelUp struct {
	NewLevel      int
	HPGained      int
	AbilityPoints int
}

// ApplyExperience adds xp to the character and walks the leveling state
// machine: while the new total crosses the next threshold and the level cap is
// not reached, the level increments, HP grows by the class rate plus the
// constitution modifier scaled by the race multiplier (minimum 1), and
// ability-point levels grant points. The loop may fire multiple times for one
// grant. The caller persists the mutated character atomically with the grant.
//
// Precondition: xp >= 0; c.Level in [1, MaxLevel].
// Postcondition: c.Experience increased by xp; returns one LevelUp per level
// gained, possibly empty. Applying 0 xp never mutates level, HP, or points.
func ApplyExperience(c *Character, xp int) []LevelUp {
	c.Experience += xp

	var ups []LevelUp
	for c.Level < MaxLevel && c.Experience >= XPThreshold(c.Level+1) {
		c.Level++

		hpGain := levelHPGain(c)
		c.MaxHP += hpGain
		c.CurrentHP += hpGain

		points := 0
		if GrantsAbilityPoints(c.Level) {
			points = AbilityPointsPerGrant
			c.AbilityPoints += points
		}

		ups = append(ups, LevelUp{
			NewLevel:      c.Level,
			HPGained:      hpGain,
			AbilityPoints: points,
		})
	}
	return ups
}

// levelHPGain computes HP gained for one level:
// round((classHPPerLevel + conModifier) * raceMultiplier), floored at 1.
func levelHPGain(c *Character) int {
	hpPerLevel := 8 // fallback for unknown class rows
	if cl, ok := ClassByID(c.Class); ok {
		hpPerLevel = cl.HPPerLevel
	}
	mult := 1.0
	if r, ok := RaceByID(c.Race); ok {
		mult = r.HPMultiplier
	}
	gain := int(math.Round(float64(hpPerLevel+Modifier(c.Abilities.Constitution)) * mult))
	if gain < 1 {
		gain = 1
	}
	return gain
}

// ApplyDamage subtracts damage from CurrentHP, clamped to [0, MaxHP]. When HP
// reaches 0 the character is flagged dead; that transition is terminal until
// an explicit revive.
//
// Precondition: damage >= 0.
// Postcondition: returns true iff the character died as a result of this call.
func ApplyDamage(c *Character, damage int) bool {
	wasAlive := c.Alive
	c.CurrentHP -= damage
	if c.CurrentHP <= 0 {
		c.CurrentHP = 0
		c.Alive = false
	}
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
	return wasAlive && !c.Alive
}

// ApplyGoldDelta adjusts the gold balance, clamped so it never goes negative.
//
// Postcondition: c.Gold >= 0.
func ApplyGoldDelta(c *Character, delta int) {
	c.Gold += delta
	if c.Gold < 0 {
		c.Gold = 0
	}
}
