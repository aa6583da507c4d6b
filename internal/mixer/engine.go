package mixer

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/schollz/trackstudio/internal/audioerr"
	"github.com/schollz/trackstudio/internal/layer"
	"github.com/schollz/trackstudio/internal/playback"
	"github.com/schollz/trackstudio/internal/types"
)

const component = "mixer"

type voice struct {
	handle playback.Handle
	cancel func()
}

// Engine plays every unmuted layer of a registry together under one master
// gain. Effective gain of a layer is 0 when muted, else volume * master.
type Engine struct {
	reg    *layer.Registry
	player playback.Player

	mu        sync.Mutex
	playing   bool
	master    float64
	active    map[string]*voice
	onPlaying func(bool)
}

func NewEngine(reg *layer.Registry, player playback.Player) *Engine {
	return &Engine{
		reg:    reg,
		player: player,
		master: 1,
		active: make(map[string]*voice),
	}
}

// SetOnPlayingChanged registers fn to hear about play state changes. fn is
// called without engine locks held.
func (e *Engine) SetOnPlayingChanged(fn func(playing bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPlaying = fn
}

func (e *Engine) notify(playing bool) {
	e.mu.Lock()
	fn := e.onPlaying
	e.mu.Unlock()
	if fn != nil {
		fn(playing)
	}
}

func gainOf(l layer.Layer, master float64) float64 {
	if l.Muted {
		return 0
	}
	return l.Volume * master
}

// PlayAll toggles playback. From idle it loads every Unloaded layer, then
// starts each unmuted Ready layer from the beginning. It returns whether the
// engine is now playing; load and play failures are joined into err but do
// not stop the other layers.
func (e *Engine) PlayAll(ctx context.Context, master float64) (bool, error) {
	e.mu.Lock()
	if e.playing {
		e.stopAllLocked(ctx)
		e.playing = false
		e.mu.Unlock()
		log.Printf("Playback stopped")
		e.notify(false)
		return false, nil
	}
	e.master = clampUnit(master)
	e.mu.Unlock()

	var errs []error
	for _, l := range e.reg.List() {
		if l.LoadState == types.Unloaded {
			if err := e.Load(ctx, l.ID); err != nil {
				errs = append(errs, err)
			}
		}
	}

	e.mu.Lock()
	if e.playing {
		e.mu.Unlock()
		return true, errors.Join(errs...)
	}
	e.stopAllLocked(ctx)
	ready := 0
	for _, l := range e.reg.List() {
		if l.LoadState != types.Ready {
			continue
		}
		ready++
		if l.Muted {
			continue
		}
		if err := e.startLocked(ctx, l); err != nil {
			errs = append(errs, err)
		}
	}
	e.playing = ready > 0
	playing := e.playing
	started := len(e.active)
	applied := e.master
	e.mu.Unlock()

	if playing {
		log.Printf("Playback started: %d of %d ready layers at master %.2f", started, ready, applied)
		e.notify(true)
	}
	return playing, errors.Join(errs...)
}

func (e *Engine) startLocked(ctx context.Context, l layer.Layer) error {
	h, ok := e.reg.Handle(l.ID)
	if !ok {
		return audioerr.Wrap(audioerr.ErrPlayback, component, "play", l.DisplayName+" has no handle", nil)
	}
	if err := e.player.Play(ctx, h, gainOf(l, e.master)); err != nil {
		return audioerr.Wrap(audioerr.ErrPlayback, component, "play", l.DisplayName, err)
	}
	id := l.ID
	cancel := e.player.OnComplete(h, func() { e.onComplete(id, h) })
	e.active[id] = &voice{handle: h, cancel: cancel}
	return nil
}

// onComplete runs when a layer plays to its end. The first layer to finish
// ends the engine's playing state; the rest keep sounding until stopped.
func (e *Engine) onComplete(id string, h playback.Handle) {
	e.mu.Lock()
	v, ok := e.active[id]
	if !ok || v.handle != h {
		e.mu.Unlock()
		return
	}
	v.cancel()
	delete(e.active, id)
	was := e.playing
	e.playing = false
	e.mu.Unlock()
	if was {
		log.Printf("Layer %s finished, playback ended", id)
		e.notify(false)
	}
}

func (e *Engine) stopAllLocked(ctx context.Context) {
	for id, v := range e.active {
		if err := e.player.Stop(ctx, v.handle); err != nil {
			log.Printf("Failed to stop layer %s: %v", id, err)
		}
		v.cancel()
		delete(e.active, id)
	}
}

// StopAll stops every sounding layer.
func (e *Engine) StopAll(ctx context.Context) {
	e.mu.Lock()
	was := e.playing || len(e.active) > 0
	e.stopAllLocked(ctx)
	e.playing = false
	e.mu.Unlock()
	if was {
		e.notify(false)
	}
}

// Load fetches a playback handle for an Unloaded or LoadFailed layer. If the
// layer is removed while loading, the handle is unloaded again.
func (e *Engine) Load(ctx context.Context, id string) error {
	ref, err := e.reg.BeginLoad(id)
	if err != nil {
		return err
	}
	h, err := e.player.Load(ctx, ref)
	if err != nil {
		err = audioerr.Wrap(audioerr.ErrLoad, component, "load", string(ref), err)
		e.reg.FailLoad(id, err)
		log.Printf("Load of layer %s failed: %v", id, err)
		return err
	}
	if e.reg.FinishLoad(id, h) {
		if err := e.player.Unload(ctx, h); err != nil {
			log.Printf("Failed to release orphaned handle %s: %v", h, err)
		}
	}
	return nil
}

// Reload retries loading a layer whose last load failed.
func (e *Engine) Reload(ctx context.Context, id string) error {
	l, err := e.reg.Get(id)
	if err != nil {
		return err
	}
	if l.LoadState != types.LoadFailed {
		return audioerr.Wrap(audioerr.ErrInvalidState, component, "reload", l.DisplayName+" is "+l.LoadState.String(), nil)
	}
	return e.Load(ctx, id)
}

// SetLayerVolume stores a layer volume and applies it to a sounding layer.
func (e *Engine) SetLayerVolume(id string, v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reg.SetVolume(id, v); err != nil {
		return err
	}
	return e.applyGainLocked(id)
}

// SetLayerMuted stores the mute flag. A sounding layer drops to zero gain or
// comes back at its own gain, even after playback has ended for the engine.
// While playing, unmuting a layer that is not sounding starts it.
func (e *Engine) SetLayerMuted(ctx context.Context, id string, muted bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reg.SetMuted(id, muted); err != nil {
		return err
	}
	if _, ok := e.active[id]; ok {
		return e.applyGainLocked(id)
	}
	if !e.playing {
		return nil
	}
	l, err := e.reg.Get(id)
	if err != nil {
		return err
	}
	if !muted && l.LoadState == types.Ready {
		return e.startLocked(ctx, l)
	}
	return nil
}

// SetMasterVolume stores the master gain, clamped to [0, 1], and applies it to
// every sounding layer.
func (e *Engine) SetMasterVolume(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.master = clampUnit(v)
	var errs []error
	for id := range e.active {
		if err := e.applyGainLocked(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) applyGainLocked(id string) error {
	v, ok := e.active[id]
	if !ok {
		return nil
	}
	l, err := e.reg.Get(id)
	if err != nil {
		return err
	}
	if err := e.player.SetGain(v.handle, gainOf(l, e.master)); err != nil {
		return audioerr.Wrap(audioerr.ErrPlayback, component, "set gain", l.DisplayName, err)
	}
	return nil
}

// Forget stops a layer and drops its completion handler ahead of deletion.
func (e *Engine) Forget(ctx context.Context, id string) {
	e.mu.Lock()
	v, ok := e.active[id]
	if ok {
		if err := e.player.Stop(ctx, v.handle); err != nil {
			log.Printf("Failed to stop layer %s: %v", id, err)
		}
		v.cancel()
		delete(e.active, id)
	}
	ended := e.playing && len(e.active) == 0
	if ended {
		e.playing = false
	}
	e.mu.Unlock()
	if ended {
		e.notify(false)
	}
}

// Reset stops playback and restores the master volume for a new project.
func (e *Engine) Reset(ctx context.Context) {
	e.StopAll(ctx)
	e.mu.Lock()
	e.master = 1
	e.mu.Unlock()
}

func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Engine) MasterVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.master
}

// EffectiveGain is the gain a layer plays at under the current master.
func (e *Engine) EffectiveGain(id string) (float64, error) {
	l, err := e.reg.Get(id)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return gainOf(l, e.master), nil
}

// Active returns the ids of layers currently sounding, in registry order.
func (e *Engine) Active() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, l := range e.reg.List() {
		if _, ok := e.active[l.ID]; ok {
			out = append(out, l.ID)
		}
	}
	return out
}

func clampUnit(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
