package preset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/schollz/trackstudio/internal/audioerr"
	"github.com/schollz/trackstudio/internal/effects"
	"github.com/schollz/trackstudio/internal/types"
)

// Preset is a named, immutable snapshot of an effects settings record.
type Preset struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Category  types.PresetCategory `json:"category"`
	Settings  effects.Settings     `json:"settings"`
	IsDefault bool                 `json:"is_default,omitempty"`
	BuiltIn   bool                 `json:"built_in,omitempty"`
}

func (p Preset) clone() Preset {
	p.Settings = p.Settings.Clone()
	return p
}

// Catalog is an ordered, append-only set of presets. Presets handed out are
// copies, so callers can never mutate a stored snapshot.
type Catalog struct {
	mu      sync.RWMutex
	presets []Preset
	index   map[string]int
}

// NewCatalog creates a catalog seeded with the built-in presets.
func NewCatalog() *Catalog {
	c := NewEmptyCatalog()
	for _, p := range BuiltIns() {
		c.append(p)
	}
	return c
}

// NewEmptyCatalog creates a catalog without built-ins.
func NewEmptyCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

func (c *Catalog) append(p Preset) {
	c.index[p.ID] = len(c.presets)
	c.presets = append(c.presets, p.clone())
}

// Create snapshots settings into a new user preset with a fresh id and appends it.
func (c *Catalog) Create(name string, category types.PresetCategory, settings effects.Settings) (Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, fmt.Errorf("preset name cannot be empty")
	}
	p := Preset{
		ID:       uuid.NewString(),
		Name:     name,
		Category: types.ParseCategory(string(category)),
		Settings: settings.Clone(),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.append(p)
	return p.clone(), nil
}

// Import appends a preset that already has an id, such as one read back from
// a saved project. Ids must stay unique.
func (c *Catalog) Import(p Preset) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("preset %q has no id", p.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.index[p.ID]; exists {
		return fmt.Errorf("preset id %s already in catalog", p.ID)
	}
	if p.IsDefault && c.defaultIndexLocked() >= 0 {
		p.IsDefault = false
	}
	c.append(p)
	return nil
}

// Get looks a preset up by id.
func (c *Catalog) Get(id string) (Preset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return Preset{}, audioerr.Wrap(audioerr.ErrNotFound, "presets", "get", "preset "+id, nil)
	}
	return c.presets[i].clone(), nil
}

// List returns every preset in insertion order.
func (c *Catalog) List() []Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Preset, len(c.presets))
	for i, p := range c.presets {
		out[i] = p.clone()
	}
	return out
}

// ByCategory returns the presets of one category in insertion order.
func (c *Catalog) ByCategory(category types.PresetCategory) []Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Preset
	for _, p := range c.presets {
		if p.Category == category {
			out = append(out, p.clone())
		}
	}
	return out
}

// Custom returns user-created presets, the ones a project has to persist.
func (c *Catalog) Custom() []Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Preset
	for _, p := range c.presets {
		if !p.BuiltIn {
			out = append(out, p.clone())
		}
	}
	return out
}

// Default returns the preset flagged as default, if any.
func (c *Catalog) Default() (Preset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.defaultIndexLocked()
	if i < 0 {
		return Preset{}, false
	}
	return c.presets[i].clone(), true
}

func (c *Catalog) defaultIndexLocked() int {
	for i, p := range c.presets {
		if p.IsDefault {
			return i
		}
	}
	return -1
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.presets)
}
