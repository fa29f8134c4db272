package character

// MaxLevel caps character advancement.
const MaxLevel = 20

// AbilityPointsPerGrant is the number of points awarded at each grant level.
const AbilityPointsPerGrant = 2

// abilityPointLevels is the fixed set of levels that grant ability points.
var abilityPointLevels = map[int]bool{4: true, 8: true, 12: true, 16: true, 20: true}

// GrantsAbilityPoints reports whether reaching level grants ability points.
func GrantsAbilityPoints(level int) bool {
	return abilityPointLevels[level]
}

// XPThreshold returns the cumulative experience required to hold the given
// level. Level 1 requires 0. The curve is triangular: 100 * level*(level-1)/2,
// so level 2 costs 100, level 3 a further 200, and so on.
//
// Precondition: level >= 1.
func XPThreshold(level int) int {
	if level <= 1 {
		return 0
	}
	return 100 * level * (level - 1) / 2
}

// Class defines a playable class for progression purposes.
type Class struct {
	ID               string
	Name             string
	PrimaryAttribute Attribute
	HPPerLevel       int
}

// Race defines a playable race. HPMultiplier scales per-level HP gain.
type Race struct {
	ID           string
	Name         string
	HPMultiplier float64
}

// classes is the fixed playable class table.
var classes = map[string]Class{
	"warrior": {ID: "warrior", Name: "Warrior", PrimaryAttribute: Strength, HPPerLevel: 10},
	"ranger":  {ID: "ranger", Name: "Ranger", PrimaryAttribute: Dexterity, HPPerLevel: 8},
	"rogue":   {ID: "rogue", Name: "Rogue", PrimaryAttribute: Dexterity, HPPerLevel: 8},
	"cleric":  {ID: "cleric", Name: "Cleric", PrimaryAttribute: Wisdom, HPPerLevel: 8},
	"mage":    {ID: "mage", Name: "Mage", PrimaryAttribute: Intelligence, HPPerLevel: 6},
	"bard":    {ID: "bard", Name: "Bard", PrimaryAttribute: Charisma, HPPerLevel: 8},
}

// races is the fixed playable race table.
var races = map[string]Race{
	"human":    {ID: "human", Name: "Human", HPMultiplier: 1.0},
	"dwarf":    {ID: "dwarf", Name: "Dwarf", HPMultiplier: 1.2},
	"elf":      {ID: "elf", Name: "Elf", HPMultiplier: 0.9},
	"halfling": {ID: "halfling", Name: "Halfling", HPMultiplier: 0.8},
	"orc":      {ID: "orc", Name: "Orc", HPMultiplier: 1.1},
}

// ClassByID returns the class for id, or (zero, false) when unknown.
func ClassByID(id string) (Class, bool) {
	c, ok := classes[id]
	return c, ok
}

// RaceByID returns the race for id, or (zero, false) when unknown.
func RaceByID(id string) (Race, bool) {
	r, ok := races[id]
	return r, ok
}

// PrimaryAttribute returns the class-primary attribute for a class ID,
// defaulting to Strength for unknown classes so eligibility weighting
// degrades rather than fails.
func PrimaryAttribute(classID string) Attribute {
	if c, ok := classes[classID]; ok {
		return c.PrimaryAttribute
	}
	return Strength
}
