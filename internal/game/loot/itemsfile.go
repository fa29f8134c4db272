package loot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/fablebot/fablebot/internal/game/character"
)

// itemDef is the YAML shape of one authored catalog item.
type itemDef struct {
	Name              string         `yaml:"name"`
	Description       string         `yaml:"description,omitempty"`
	Rarity            Rarity         `yaml:"rarity"`
	Category          Category       `yaml:"category"`
	Bonuses           map[string]int `yaml:"bonuses,omitempty"`
	RequiredLevel     int            `yaml:"required_level,omitempty"`
	RequiredAttribute string         `yaml:"required_attribute,omitempty"`
	RequiredScore     int            `yaml:"required_score,omitempty"`
	Value             int            `yaml:"value"`
	Unique            bool           `yaml:"unique,omitempty"`
}

type itemsFile struct {
	Items []itemDef `yaml:"items"`
}

// LoadItemsDir reads every *.yaml file in dir as an authored item list and
// returns the validated items in file order. Duplicate names across files are
// rejected; the seeder keys catalog rows on name.
//
// Precondition: dir must be a readable directory.
// Postcondition: every returned item has passed Validate and Synthesized == false.
func LoadItemsDir(dir string) ([]*Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loot: reading items dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".yaml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	seen := make(map[string]string)
	var items []*Item
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loot: reading items file %q: %w", path, err)
		}
		var f itemsFile
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("loot: parsing items file %q: %w", path, err)
		}
		for _, def := range f.Items {
			if prev, dup := seen[def.Name]; dup {
				return nil, fmt.Errorf("loot: item %q in %q already defined in %q", def.Name, path, prev)
			}
			seen[def.Name] = path

			item := &Item{
				Name:              def.Name,
				Description:       def.Description,
				Rarity:            def.Rarity,
				Category:          def.Category,
				Bonuses:           def.Bonuses,
				RequiredLevel:     def.RequiredLevel,
				RequiredAttribute: character.Attribute(def.RequiredAttribute),
				RequiredScore:     def.RequiredScore,
				Value:             def.Value,
				Unique:            def.Unique,
			}
			if err := item.Validate(); err != nil {
				return nil, fmt.Errorf("loot: items file %q: %w", path, err)
			}
			items = append(items, item)
		}
	}
	return items, nil
}
