package loot

import (
	"fmt"

	"github.com/fablebot/fablebot/internal/game/character"
)

// Category groups items by how they are used and which enchantments apply.
type Category string

const (
	Weapon     Category = "weapon"
	Armor      Category = "armor"
	Accessory  Category = "accessory"
	Consumable Category = "consumable"
)

// Categories lists all item categories in canonical order.
var Categories = []Category{Weapon, Armor, Accessory, Consumable}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case Weapon, Armor, Accessory, Consumable:
		return true
	}
	return false
}

// Stackable reports whether instances of this category stack in inventories.
func (c Category) Stackable() bool {
	return c == Consumable
}

// Item is a normalized item record: either a pre-authored catalog entry or a
// synthesized instance. Synthesized items are persisted as new catalog rows
// before being awarded, so an awarded item always has a row behind it.
type Item struct {
	ID          int64
	InstanceID  string // uuid assigned at synthesis; empty for authored rows
	Name        string
	Description string
	Rarity      Rarity
	Category    Category

	// Bonuses maps stat names (ability scores or named enchantment stats)
	// to flat bonuses.
	Bonuses map[string]int

	RequiredLevel     int
	RequiredAttribute character.Attribute
	RequiredScore     int

	Value       int
	Unique      bool
	Synthesized bool
}

// Validate checks an item record's invariants.
//
// Postcondition: returns nil iff the item is well-formed.
func (i *Item) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("loot: item must have a name")
	}
	if !i.Rarity.Valid() {
		return fmt.Errorf("loot: item %q has unknown rarity %q", i.Name, i.Rarity)
	}
	if !i.Category.Valid() {
		return fmt.Errorf("loot: item %q has unknown category %q", i.Name, i.Category)
	}
	if i.RequiredLevel < 0 || i.RequiredLevel > character.MaxLevel {
		return fmt.Errorf("loot: item %q required level %d out of range", i.Name, i.RequiredLevel)
	}
	if i.RequiredAttribute != "" && !i.RequiredAttribute.Valid() {
		return fmt.Errorf("loot: item %q has unknown required attribute %q", i.Name, i.RequiredAttribute)
	}
	if i.Value < 0 {
		return fmt.Errorf("loot: item %q value must be >= 0", i.Name)
	}
	return nil
}
