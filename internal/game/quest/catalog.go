package quest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/dice"
)

// Catalog holds all quest templates keyed by ID. Templates are seeded once and
// read-only thereafter; Catalog is safe for concurrent reads.
type Catalog struct {
	templates map[string]*Template
}

// NewCatalog builds a catalog from validated templates.
//
// Precondition: every template has passed Validate; IDs are unique.
func NewCatalog(templates []*Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, dup := c.templates[t.ID]; dup {
			return nil, fmt.Errorf("quest: duplicate template id %q", t.ID)
		}
		c.templates[t.ID] = t
	}
	return c, nil
}

// Get returns the template for id, or (nil, false) if not found.
func (c *Catalog) Get(id string) (*Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// All returns all templates sorted by ID.
func (c *Catalog) All() []*Template {
	out := make([]*Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.templates) }

// PickRandom selects a template uniformly at random among those whose MinLevel
// is at most levelCap, with a 50% weighted preference for templates whose
// governing attribute matches preferred. When the preference yields no
// candidates the pick falls back to the unweighted pool.
//
// Precondition: src must be non-nil.
// Postcondition: returns (nil, false) iff no template is eligible at levelCap.
func (c *Catalog) PickRandom(src dice.Source, levelCap int, preferred character.Attribute) (*Template, bool) {
	eligible := make([]*Template, 0, len(c.templates))
	for _, t := range c.All() {
		if t.MinLevel <= levelCap {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		return nil, false
	}

	pool := eligible
	if src.Intn(2) == 0 {
		var matching []*Template
		for _, t := range eligible {
			if t.Attribute == preferred {
				matching = append(matching, t)
			}
		}
		if len(matching) > 0 {
			pool = matching
		}
	}
	return pool[src.Intn(len(pool))], true
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Template
// (one template per file), validates it, and returns a populated Catalog.
//
// Precondition: dir must be a readable directory.
// Postcondition: every template in the catalog has passed Validate.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("quest: reading template dir %q: %w", dir, err)
	}
	var templates []*Template
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("quest: reading %q: %w", path, err)
		}
		var t Template
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("quest: parsing %q: %w", path, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("quest: validating %q: %w", path, err)
		}
		templates = append(templates, &t)
	}
	return NewCatalog(templates)
}
