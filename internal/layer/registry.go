package layer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/schollz/trackstudio/internal/audioerr"
	"github.com/schollz/trackstudio/internal/playback"
	"github.com/schollz/trackstudio/internal/types"
)

const component = "layers"

// Layer is a copy of one recorded take and its mix parameters.
type Layer struct {
	ID          string          `json:"id"`
	Source      types.SourceRef `json:"source"`
	DisplayName string          `json:"display_name"`
	Volume      float64         `json:"volume"`
	Muted       bool            `json:"muted"`
	ColorTag    int             `json:"color_tag"`
	LoadState   types.LoadState `json:"-"`
	LoadErr     error           `json:"-"`
}

type entry struct {
	Layer
	handle playback.Handle
}

// Releaser frees the resources a layer owns.
type Releaser interface {
	Unload(ctx context.Context, h playback.Handle) error
}

// Registry is the insertion-ordered set of layers. It is the only owner of
// layer state and of each layer's playback handle.
type Registry struct {
	paletteSize   int
	player        Releaser
	releaseSource func(types.SourceRef) error

	mu      sync.RWMutex
	layers  []*entry
	orphans map[string]struct{}
}

// NewRegistry creates an empty registry. player unloads handles of removed
// layers; it may be nil if layers are never loaded.
func NewRegistry(paletteSize int, player Releaser) *Registry {
	if paletteSize < 1 {
		paletteSize = types.PaletteSize
	}
	return &Registry{
		paletteSize: paletteSize,
		player:      player,
		orphans:     make(map[string]struct{}),
	}
}

// PaletteSize is the number of color tags before they repeat.
func (r *Registry) PaletteSize() int { return r.paletteSize }

// SetSourceReleaser registers fn to free a layer's source once it is deleted.
func (r *Registry) SetSourceReleaser(fn func(types.SourceRef) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseSource = fn
}

func notFound(op, id string) error {
	return audioerr.Wrap(audioerr.ErrNotFound, component, op, "layer "+id, nil)
}

func (r *Registry) find(id string) (int, *entry) {
	for i, e := range r.layers {
		if e.ID == id {
			return i, e
		}
	}
	return -1, nil
}

// Admit appends a new layer for a committed take.
func (r *Registry) Admit(ref types.SourceRef) Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.layers)
	e := &entry{Layer: Layer{
		ID:          uuid.NewString(),
		Source:      ref,
		DisplayName: fmt.Sprintf("Layer %d", n+1),
		Volume:      1,
		ColorTag:    n % r.paletteSize,
		LoadState:   types.Unloaded,
	}}
	r.layers = append(r.layers, e)
	log.Printf("Admitted %s (%s) from %s", e.DisplayName, e.ID, ref)
	return e.Layer
}

// Import appends a previously saved layer, keeping its id, name, mix and
// color. It starts Unloaded.
func (r *Registry) Import(l Layer) error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("layer %q has no id", l.DisplayName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, e := r.find(l.ID); e != nil {
		return fmt.Errorf("layer id %s already in registry", l.ID)
	}
	l.Volume = clampVolume(l.Volume)
	l.ColorTag = ((l.ColorTag % r.paletteSize) + r.paletteSize) % r.paletteSize
	l.LoadState = types.Unloaded
	l.LoadErr = nil
	r.layers = append(r.layers, &entry{Layer: l})
	return nil
}

func (r *Registry) Get(id string) (Layer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, e := r.find(id)
	if e == nil {
		return Layer{}, notFound("get", id)
	}
	return e.Layer, nil
}

// List returns every layer in admission order.
func (r *Registry) List() []Layer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Layer, len(r.layers))
	for i, e := range r.layers {
		out[i] = e.Layer
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.layers)
}

// Handle returns the playback handle of a Ready layer.
func (r *Registry) Handle(id string) (playback.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, e := r.find(id)
	if e == nil || e.LoadState != types.Ready {
		return "", false
	}
	return e.handle, true
}

func (r *Registry) Rename(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, e := r.find(id)
	if e == nil {
		return notFound("rename", id)
	}
	e.DisplayName = name
	return nil
}

// SetVolume stores a volume clamped to [0, 1].
func (r *Registry) SetVolume(id string, v float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, e := r.find(id)
	if e == nil {
		return notFound("set volume", id)
	}
	e.Volume = clampVolume(v)
	return nil
}

func (r *Registry) SetMuted(id string, muted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, e := r.find(id)
	if e == nil {
		return notFound("set muted", id)
	}
	e.Muted = muted
	return nil
}

// BeginLoad marks an Unloaded or LoadFailed layer as Loading and returns the
// source to load.
func (r *Registry) BeginLoad(id string) (types.SourceRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, e := r.find(id)
	if e == nil {
		return "", notFound("load", id)
	}
	if e.LoadState != types.Unloaded && e.LoadState != types.LoadFailed {
		return "", audioerr.Wrap(audioerr.ErrInvalidState, component, "load", e.DisplayName+" is "+e.LoadState.String(), nil)
	}
	e.LoadState = types.Loading
	e.LoadErr = nil
	return e.Source, nil
}

// FinishLoad attaches h to a Loading layer. If the layer was removed while
// loading, release is true and the caller must unload h.
func (r *Registry) FinishLoad(id string, h playback.Handle) (release bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orphans[id]; ok {
		delete(r.orphans, id)
		log.Printf("Layer %s was deleted while loading, releasing handle", id)
		return true
	}
	_, e := r.find(id)
	if e == nil || e.LoadState != types.Loading {
		return true
	}
	e.handle = h
	e.LoadState = types.Ready
	return false
}

// FailLoad records a load error on a Loading layer.
func (r *Registry) FailLoad(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orphans[id]; ok {
		delete(r.orphans, id)
		return
	}
	_, e := r.find(id)
	if e == nil || e.LoadState != types.Loading {
		return
	}
	e.LoadState = types.LoadFailed
	e.LoadErr = err
}

// Remove deletes a layer. A Ready layer's handle is unloaded first; if that
// fails the layer stays. A Loading layer is removed now and its handle is
// released when the load finishes.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, e := r.find(id)
	if e == nil {
		return notFound("remove", id)
	}
	switch e.LoadState {
	case types.Ready:
		if r.player != nil {
			if err := r.player.Unload(ctx, e.handle); err != nil {
				return audioerr.Wrap(audioerr.ErrPlayback, component, "remove", e.DisplayName, err)
			}
		}
		e.handle = ""
	case types.Loading:
		r.orphans[id] = struct{}{}
	}
	r.layers = append(r.layers[:i], r.layers[i+1:]...)
	if r.releaseSource != nil {
		if err := r.releaseSource(e.Source); err != nil {
			log.Printf("Failed to release source of %s: %v", e.DisplayName, err)
		}
	}
	log.Printf("Removed %s (%s)", e.DisplayName, id)
	return nil
}

// Clear removes every layer, unloading handles but keeping sources on disk.
func (r *Registry) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.layers {
		switch e.LoadState {
		case types.Ready:
			if r.player != nil {
				if err := r.player.Unload(ctx, e.handle); err != nil {
					log.Printf("Failed to unload %s: %v", e.DisplayName, err)
				}
			}
		case types.Loading:
			r.orphans[e.ID] = struct{}{}
		}
	}
	r.layers = nil
}

func clampVolume(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
