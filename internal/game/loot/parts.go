package loot

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BaseType is a synthesizable item chassis within one category. MinRarity
// gates fancier chassis to higher rolls; empty means available at any rarity.
type BaseType struct {
	Name      string `yaml:"name"`
	MinRarity Rarity `yaml:"min_rarity,omitempty"`
}

// Enchantment is a named bonus bundle an item synthesis may attach.
type Enchantment struct {
	Name      string         `yaml:"name"`
	MinRarity Rarity         `yaml:"min_rarity,omitempty"`
	Bonuses   map[string]int `yaml:"bonuses"`
}

// Parts holds the composable pieces item synthesis draws from. The tables are
// authored content, loaded once and read-only thereafter.
type Parts struct {
	BaseTypes    map[Category][]BaseType    `yaml:"base_types"`
	Materials    map[Rarity][]string        `yaml:"materials"`
	Prefixes     map[Rarity][]string        `yaml:"prefixes"`
	Enchantments map[Category][]Enchantment `yaml:"enchantments"`
}

// Validate checks that every category and rarity the generator can roll has
// at least one part to draw from.
//
// Postcondition: returns nil iff synthesis can never come up empty-handed.
func (p *Parts) Validate() error {
	for _, cat := range Categories {
		if len(p.BaseTypes[cat]) == 0 {
			return fmt.Errorf("loot: no base types for category %q", cat)
		}
		for _, bt := range p.BaseTypes[cat] {
			if bt.Name == "" {
				return fmt.Errorf("loot: unnamed base type in category %q", cat)
			}
			if bt.MinRarity != "" && !bt.MinRarity.Valid() {
				return fmt.Errorf("loot: base type %q has unknown min rarity %q", bt.Name, bt.MinRarity)
			}
		}
		// Availability is monotonic in rarity, so one ungated chassis per
		// category guarantees a draw at every rarity.
		if len(p.baseTypesFor(cat, Common)) == 0 {
			return fmt.Errorf("loot: category %q has no base type available at %s rarity", cat, Common)
		}
	}
	for _, r := range Rarities {
		if len(p.Materials[r]) == 0 {
			return fmt.Errorf("loot: no materials for rarity %q", r)
		}
		if len(p.Prefixes[r]) == 0 {
			return fmt.Errorf("loot: no prefixes for rarity %q", r)
		}
	}
	for cat, enchants := range p.Enchantments {
		if !cat.Valid() {
			return fmt.Errorf("loot: enchantments keyed by unknown category %q", cat)
		}
		for _, e := range enchants {
			if e.Name == "" {
				return fmt.Errorf("loot: unnamed enchantment in category %q", cat)
			}
			if len(e.Bonuses) == 0 {
				return fmt.Errorf("loot: enchantment %q has no bonuses", e.Name)
			}
			if e.MinRarity != "" && !e.MinRarity.Valid() {
				return fmt.Errorf("loot: enchantment %q has unknown min rarity %q", e.Name, e.MinRarity)
			}
		}
	}
	return nil
}

// baseTypesFor returns the chassis available at the given rarity.
func (p *Parts) baseTypesFor(cat Category, r Rarity) []BaseType {
	var out []BaseType
	for _, bt := range p.BaseTypes[cat] {
		min := Common
		if bt.MinRarity != "" {
			min = bt.MinRarity
		}
		if r.Index() >= min.Index() {
			out = append(out, bt)
		}
	}
	return out
}

// enchantmentsFor returns the enchantments available to a category at the
// given rarity.
func (p *Parts) enchantmentsFor(cat Category, r Rarity) []Enchantment {
	var out []Enchantment
	for _, e := range p.Enchantments[cat] {
		min := Common
		if e.MinRarity != "" {
			min = e.MinRarity
		}
		if r.Index() >= min.Index() {
			out = append(out, e)
		}
	}
	return out
}

// LoadParts reads and validates a parts table from a YAML file.
//
// Precondition: path must be a readable YAML file.
// Postcondition: the returned Parts has passed Validate.
func LoadParts(path string) (*Parts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loot: reading parts file %q: %w", path, err)
	}
	var p Parts
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("loot: parsing parts file %q: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// DefaultParts returns the built-in parts table used when no content file is
// configured. It passes Validate by construction.
func DefaultParts() *Parts {
	return &Parts{
		BaseTypes: map[Category][]BaseType{
			Weapon: {
				{Name: "Sword"}, {Name: "Axe"}, {Name: "Mace"}, {Name: "Dagger"},
				{Name: "Warhammer", MinRarity: Uncommon},
				{Name: "Greatsword", MinRarity: Rare},
				{Name: "Runeblade", MinRarity: Epic},
			},
			Armor: {
				{Name: "Tunic"}, {Name: "Shield"}, {Name: "Helm"},
				{Name: "Breastplate", MinRarity: Uncommon},
				{Name: "Full Plate", MinRarity: Rare},
				{Name: "Aegis", MinRarity: Epic},
			},
			Accessory: {
				{Name: "Ring"}, {Name: "Amulet"}, {Name: "Cloak"},
				{Name: "Circlet", MinRarity: Rare},
				{Name: "Talisman", MinRarity: Epic},
			},
			Consumable: {
				{Name: "Potion"}, {Name: "Elixir"}, {Name: "Scroll"},
				{Name: "Philter", MinRarity: Rare},
			},
		},
		Materials: map[Rarity][]string{
			Common:    {"Iron", "Oak", "Leather", "Copper"},
			Uncommon:  {"Steel", "Ash", "Bronze", "Boiled Leather"},
			Rare:      {"Mithril", "Ebony", "Silver", "Drakescale"},
			Epic:      {"Adamant", "Heartwood", "Moonsilver"},
			Legendary: {"Starmetal", "Dragonbone", "Voidglass"},
		},
		Prefixes: map[Rarity][]string{
			Common:    {"Sturdy", "Plain", "Worn"},
			Uncommon:  {"Fine", "Keen", "Polished"},
			Rare:      {"Gleaming", "Tempered", "Runed"},
			Epic:      {"Exalted", "Sovereign", "Radiant"},
			Legendary: {"Mythic", "Eternal", "Worldforged"},
		},
		Enchantments: map[Category][]Enchantment{
			Weapon: {
				{Name: "Smiting", Bonuses: map[string]int{"strength": 1}},
				{Name: "Precision", Bonuses: map[string]int{"dexterity": 1}},
				{Name: "Flame", MinRarity: Uncommon, Bonuses: map[string]int{"strength": 1, "fire_damage": 2}},
				{Name: "Storms", MinRarity: Rare, Bonuses: map[string]int{"dexterity": 2, "shock_damage": 3}},
				{Name: "Annihilation", MinRarity: Epic, Bonuses: map[string]int{"strength": 3, "fire_damage": 5}},
			},
			Armor: {
				{Name: "Warding", Bonuses: map[string]int{"constitution": 1}},
				{Name: "Stoneskin", MinRarity: Uncommon, Bonuses: map[string]int{"constitution": 2}},
				{Name: "Bulwark", MinRarity: Rare, Bonuses: map[string]int{"constitution": 2, "armor": 2}},
				{Name: "Invulnerability", MinRarity: Epic, Bonuses: map[string]int{"constitution": 3, "armor": 4}},
			},
			Accessory: {
				{Name: "Insight", Bonuses: map[string]int{"wisdom": 1}},
				{Name: "Cunning", Bonuses: map[string]int{"intelligence": 1}},
				{Name: "Presence", MinRarity: Uncommon, Bonuses: map[string]int{"charisma": 2}},
				{Name: "Foresight", MinRarity: Rare, Bonuses: map[string]int{"wisdom": 2, "intelligence": 1}},
				{Name: "Dominion", MinRarity: Epic, Bonuses: map[string]int{"charisma": 3, "wisdom": 2}},
			},
			Consumable: {
				{Name: "Vigor", Bonuses: map[string]int{"healing": 5}},
				{Name: "Clarity", Bonuses: map[string]int{"mana": 5}},
				{Name: "Renewal", MinRarity: Rare, Bonuses: map[string]int{"healing": 12}},
			},
		},
	}
}
