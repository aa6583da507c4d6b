package studio

import (
	"context"
	"log"
	"sync"

	"github.com/schollz/trackstudio/internal/audioerr"
	"github.com/schollz/trackstudio/internal/layer"
	"github.com/schollz/trackstudio/internal/mixer"
	"github.com/schollz/trackstudio/internal/playback"
	"github.com/schollz/trackstudio/internal/preset"
	"github.com/schollz/trackstudio/internal/processing"
	"github.com/schollz/trackstudio/internal/recording"
	"github.com/schollz/trackstudio/internal/storage"
	"github.com/schollz/trackstudio/internal/types"
)

const component = "studio"

// Options configures a Studio.
type Options struct {
	MaxDurationSeconds int
	PaletteSize        int
	// Scheduler drives recording ticks; nil means wall-clock seconds.
	Scheduler recording.Scheduler
	Catalog   *preset.Catalog
	Renderer  processing.Renderer
	// OnChange runs on its own goroutine when state changes outside a
	// caller's request, such as an automatic stop or the end of playback.
	OnChange func()
}

// sourceReleaser is implemented by capture devices that can delete a take.
type sourceReleaser interface {
	Release(ref types.SourceRef) error
}

// Studio coordinates recording, the layer registry, the mixing engine and
// the effects store for one project. Its methods are safe for concurrent use.
type Studio struct {
	device recording.CaptureDevice
	reg    *layer.Registry
	engine *mixer.Engine
	store  *processing.Store
	opts   Options

	mu      sync.Mutex
	session *recording.Session
	lastErr error
}

func New(device recording.CaptureDevice, player playback.Player, opts Options) *Studio {
	if opts.MaxDurationSeconds <= 0 {
		opts.MaxDurationSeconds = types.DefaultMaxDurationSeconds
	}
	if opts.PaletteSize <= 0 {
		opts.PaletteSize = types.PaletteSize
	}
	if opts.Catalog == nil {
		opts.Catalog = preset.NewCatalog()
	}
	reg := layer.NewRegistry(opts.PaletteSize, player)
	if r, ok := device.(sourceReleaser); ok {
		reg.SetSourceReleaser(r.Release)
	}
	s := &Studio{
		device: device,
		reg:    reg,
		engine: mixer.NewEngine(reg, player),
		store:  processing.NewStore(opts.Catalog, opts.Renderer),
		opts:   opts,
	}
	s.engine.SetOnPlayingChanged(func(playing bool) {
		s.store.SetPlaying(playing)
		if !playing {
			s.changed()
		}
	})
	return s
}

func (s *Studio) changed() {
	if s.opts.OnChange != nil {
		go s.opts.OnChange()
	}
}

func (s *Studio) Registry() *layer.Registry { return s.reg }
func (s *Studio) Engine() *mixer.Engine { return s.engine }
func (s *Studio) Store() *processing.Store { return s.store }
func (s *Studio) Catalog() *preset.Catalog { return s.store.Catalog() }
func (s *Studio) Layers() []layer.Layer { return s.reg.List() }
func (s *Studio) IsPlaying() bool { return s.engine.IsPlaying() }
func (s *Studio) MasterVolume() float64 { return s.engine.MasterVolume() }

// LastError returns the most recent failure of a background operation.
func (s *Studio) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Studio) recordingLocked() bool {
	if s.session == nil {
		return false
	}
	st := s.session.State()
	return st == types.SessionRecording || st == types.SessionFinalizing
}

// IsRecording reports whether a take is being captured or finalized.
func (s *Studio) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordingLocked()
}

// RecordingStatus returns the current session's status, if there is one.
func (s *Studio) RecordingStatus() (recording.Status, bool) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		return recording.Status{}, false
	}
	return sess.Status(), true
}

// StartRecording stops all playback and starts a new take.
func (s *Studio) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordingLocked() {
		return audioerr.Wrap(audioerr.ErrInvalidState, component, "start recording", "already recording", nil)
	}
	s.engine.StopAll(ctx)

	var sess *recording.Session
	sess = recording.NewSession(s.device, recording.Options{
		MaxDurationSeconds: s.opts.MaxDurationSeconds,
		Scheduler:          s.opts.Scheduler,
		OnAutoFinalize: func(ref types.SourceRef, err error) {
			s.onAutoFinalize(sess, ref, err)
		},
	})
	s.session = sess
	if err := sess.Start(ctx); err != nil {
		s.lastErr = err
		return err
	}
	s.lastErr = nil
	return nil
}

// StopRecording finalizes the current take and admits it as a new layer,
// loading it right away.
func (s *Studio) StopRecording(ctx context.Context) (layer.Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return layer.Layer{}, audioerr.Wrap(audioerr.ErrInvalidState, component, "stop recording", "not recording", nil)
	}
	sess := s.session
	ref, err := sess.Stop(ctx)
	if audioerr.Reason(err) == audioerr.ErrInvalidState {
		return layer.Layer{}, err
	}
	return s.commitLocked(ctx, sess, ref, err)
}

// ToggleRecording starts a take, or stops and commits the running one.
func (s *Studio) ToggleRecording(ctx context.Context) error {
	if s.IsRecording() {
		_, err := s.StopRecording(ctx)
		return err
	}
	return s.StartRecording(ctx)
}

func (s *Studio) onAutoFinalize(sess *recording.Session, ref types.SourceRef, err error) {
	s.mu.Lock()
	_, _ = s.commitLocked(context.Background(), sess, ref, err)
	s.mu.Unlock()
	s.changed()
}

func (s *Studio) commitLocked(ctx context.Context, sess *recording.Session, ref types.SourceRef, err error) (layer.Layer, error) {
	if s.session == sess {
		s.session = nil
	}
	if err != nil {
		s.lastErr = err
		log.Printf("Take discarded: %v", err)
		return layer.Layer{}, err
	}
	l := s.reg.Admit(ref)
	if err := s.engine.Load(ctx, l.ID); err != nil {
		s.lastErr = err
	} else {
		s.lastErr = nil
	}
	got, gerr := s.reg.Get(l.ID)
	if gerr == nil {
		l = got
	}
	return l, nil
}

// TogglePlayback starts or stops all layers at the current master volume.
// Playback cannot start while recording.
func (s *Studio) TogglePlayback(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordingLocked() {
		return false, audioerr.Wrap(audioerr.ErrInvalidState, component, "play", "recording in progress", nil)
	}
	playing, err := s.engine.PlayAll(ctx, s.engine.MasterVolume())
	if err != nil {
		s.lastErr = err
	}
	return playing, err
}

func (s *Studio) StopPlayback(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.StopAll(ctx)
}

func (s *Studio) SetLayerVolume(id string, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SetLayerVolume(id, v)
}

func (s *Studio) SetLayerMuted(ctx context.Context, id string, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SetLayerMuted(ctx, id, muted)
}

func (s *Studio) SetMasterVolume(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SetMasterVolume(v)
}

func (s *Studio) RenameLayer(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Rename(id, name)
}

// ReloadLayer retries a failed load.
func (s *Studio) ReloadLayer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Reload(ctx, id)
}

// DeleteLayer stops the layer, releases its handle and removes it.
func (s *Studio) DeleteLayer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Forget(ctx, id)
	return s.reg.Remove(ctx, id)
}

// ProcessLayer renders a layer's take with the current effects settings.
func (s *Studio) ProcessLayer(ctx context.Context, id string) (types.SourceRef, error) {
	l, err := s.reg.Get(id)
	if err != nil {
		return "", err
	}
	s.store.SetOriginalSource(l.Source)
	ref, err := s.store.Process(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
	}
	return ref, err
}

// NewProject drops every layer and resets the master volume and effects.
// Take files stay on disk.
func (s *Studio) NewProject(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newProjectLocked(ctx)
}

func (s *Studio) newProjectLocked(ctx context.Context) error {
	if s.recordingLocked() {
		return audioerr.Wrap(audioerr.ErrInvalidState, component, "new project", "recording in progress", nil)
	}
	s.engine.Reset(ctx)
	s.reg.Clear(ctx)
	s.store.SetOriginalSource("")
	s.store.ResetSettings()
	s.session = nil
	s.lastErr = nil
	log.Printf("Started new project")
	return nil
}

// Snapshot captures what a project file stores.
func (s *Studio) Snapshot() storage.Project {
	st := s.store.State()
	return storage.Project{
		Layers:         s.reg.List(),
		MasterVolume:   s.engine.MasterVolume(),
		Settings:       st.Settings,
		ActivePresetID: st.ActivePresetID,
		CustomPresets:  s.store.Catalog().Custom(),
	}
}

// Restore replaces the current project with a saved one. Layers come back
// Unloaded and load on the next playback.
func (s *Studio) Restore(ctx context.Context, p storage.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.newProjectLocked(ctx); err != nil {
		return err
	}
	cat := s.store.Catalog()
	for _, pr := range p.CustomPresets {
		if _, err := cat.Get(pr.ID); err == nil {
			continue
		}
		if err := cat.Import(pr); err != nil {
			log.Printf("Skipping saved preset %q: %v", pr.Name, err)
		}
	}
	for _, l := range p.Layers {
		if err := s.reg.Import(l); err != nil {
			log.Printf("Skipping saved layer %q: %v", l.DisplayName, err)
		}
	}
	if err := s.engine.SetMasterVolume(p.MasterVolume); err != nil {
		return err
	}
	s.store.Restore(p.Settings, p.ActivePresetID)
	return nil
}
