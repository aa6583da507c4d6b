package processing

import (
	"context"
	"log"
	"sync"

	"github.com/schollz/trackstudio/internal/audioerr"
	"github.com/schollz/trackstudio/internal/effects"
	"github.com/schollz/trackstudio/internal/preset"
	"github.com/schollz/trackstudio/internal/types"
)

const component = "effects store"

// Renderer applies a settings record to a source and produces a new artifact.
type Renderer interface {
	Render(ctx context.Context, src types.SourceRef, s effects.Settings) (types.SourceRef, error)
}

// State is a copy of the store's value. ActivePresetID is empty when the
// current settings are not known to equal a preset.
type State struct {
	OriginalSource  types.SourceRef
	ProcessedSource types.SourceRef
	Settings        effects.Settings
	Presets         []preset.Preset
	IsProcessing    bool
	IsPlaying       bool
	ActivePresetID  string
}

// Store holds the effects settings for one project. All mutation goes
// through its action methods.
type Store struct {
	catalog  *preset.Catalog
	renderer Renderer

	mu         sync.Mutex
	original   types.SourceRef
	processed  types.SourceRef
	settings   effects.Settings
	activeID   string
	processing bool
	playing    bool
	observer   func(effects.Settings)
}

// NewStore creates a store backed by catalog, starting from the default preset.
// renderer may be nil, in which case Process is unavailable.
func NewStore(catalog *preset.Catalog, renderer Renderer) *Store {
	if catalog == nil {
		catalog = preset.NewCatalog()
	}
	s := &Store{catalog: catalog, renderer: renderer}
	s.settings, s.activeID = s.defaults()
	return s
}

// Catalog exposes the preset catalog the store reads from.
func (s *Store) Catalog() *preset.Catalog {
	return s.catalog
}

// SetObserver registers fn to receive every new settings value. It is called
// without the store lock held.
func (s *Store) SetObserver(fn func(effects.Settings)) {
	s.mu.Lock()
	s.observer = fn
	s.mu.Unlock()
}

func (s *Store) defaults() (effects.Settings, string) {
	if def, ok := s.catalog.Default(); ok {
		return def.Settings, def.ID
	}
	return effects.Default(), ""
}

// commit swaps in new settings and notifies the observer. Caller holds s.mu;
// commit releases it.
func (s *Store) commit(settings effects.Settings, activeID string) {
	s.settings = settings
	s.activeID = activeID
	obs := s.observer
	snapshot := settings.Clone()
	s.mu.Unlock()
	if obs != nil {
		obs(snapshot)
	}
}

// UpdateSettings merges the fields named by p into the current settings.
// Any update, even one that lands on a preset's values, clears the active preset.
func (s *Store) UpdateSettings(p effects.Partial) {
	s.mu.Lock()
	s.commit(s.settings.Merge(p), "")
}

// LoadPreset replaces the current settings with a preset's snapshot. A
// missing id leaves the state unchanged and returns ErrNotFound.
func (s *Store) LoadPreset(id string) error {
	p, err := s.catalog.Get(id)
	if err != nil {
		log.Printf("Preset %s not found, settings unchanged", id)
		return err
	}
	s.mu.Lock()
	s.commit(p.Settings, p.ID)
	log.Printf("Loaded preset %q", p.Name)
	return nil
}

// SavePreset snapshots the current settings into a new catalog preset and
// makes it active.
func (s *Store) SavePreset(name string, category types.PresetCategory) (preset.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.catalog.Create(name, category, s.settings)
	if err != nil {
		return preset.Preset{}, err
	}
	s.activeID = p.ID
	log.Printf("Saved preset %q (%s) as %s", p.Name, p.Category, p.ID)
	return p, nil
}

// ResetSettings loads the default preset, or the built-in neutral settings
// when the catalog has no default.
func (s *Store) ResetSettings() {
	settings, id := s.defaults()
	s.mu.Lock()
	s.commit(settings, id)
}

// Restore installs persisted settings. The active preset id survives only if
// the preset exists and still matches.
func (s *Store) Restore(settings effects.Settings, activeID string) {
	settings = settings.Clamped()
	if activeID != "" {
		p, err := s.catalog.Get(activeID)
		if err != nil || !p.Settings.Equal(settings) {
			activeID = ""
		}
	}
	s.mu.Lock()
	s.commit(settings, activeID)
}

// SetOriginalSource selects the artifact Process renders from. Any previous
// render result is dropped.
func (s *Store) SetOriginalSource(ref types.SourceRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = ref
	s.processed = ""
}

func (s *Store) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = playing
}

// Process renders the original source with the current settings.
func (s *Store) Process(ctx context.Context) (types.SourceRef, error) {
	s.mu.Lock()
	switch {
	case s.renderer == nil:
		s.mu.Unlock()
		return "", audioerr.Wrap(audioerr.ErrInvalidState, component, "process", "no renderer configured", nil)
	case s.original == "":
		s.mu.Unlock()
		return "", audioerr.Wrap(audioerr.ErrInvalidState, component, "process", "no source selected", nil)
	case s.processing:
		s.mu.Unlock()
		return "", audioerr.Wrap(audioerr.ErrInvalidState, component, "process", "already processing", nil)
	}
	s.processing = true
	src, settings := s.original, s.settings.Clone()
	s.mu.Unlock()

	out, err := s.renderer.Render(ctx, src, settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	if err != nil {
		log.Printf("Processing %s failed: %v", src, err)
		return "", audioerr.Wrap(audioerr.ErrRender, component, "process", string(src), err)
	}
	if s.original == src {
		s.processed = out
	}
	log.Printf("Processed %s -> %s", src, out)
	return out, nil
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() effects.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// ActivePresetID returns the active preset id, or "" if none.
func (s *Store) ActivePresetID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// State returns a copy of the whole processing state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		OriginalSource:  s.original,
		ProcessedSource: s.processed,
		Settings:        s.settings.Clone(),
		Presets:         s.catalog.List(),
		IsProcessing:    s.processing,
		IsPlaying:       s.playing,
		ActivePresetID:  s.activeID,
	}
}
