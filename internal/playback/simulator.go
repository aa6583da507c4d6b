package playback

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/schollz/trackstudio/internal/types"
)

type voice struct {
	ref     types.SourceRef
	gain    float64
	playing bool
	timer   *time.Timer
	nextSub int
	subs    map[int]func()
}

// Simulator is an in-process Player. When DurationOf is set, playing voices
// complete on their own after that long; otherwise only Finish completes them.
type Simulator struct {
	DurationOf func(ref types.SourceRef) (time.Duration, error)

	mu       sync.Mutex
	voices   map[Handle]*voice
	loadErrs map[types.SourceRef]error
	gates    map[types.SourceRef]chan struct{}
	unloads  map[Handle]int
}

var _ Player = (*Simulator)(nil)

func NewSimulator() *Simulator {
	return &Simulator{
		voices:   make(map[Handle]*voice),
		loadErrs: make(map[types.SourceRef]error),
		gates:    make(map[types.SourceRef]chan struct{}),
		unloads:  make(map[Handle]int),
	}
}

func (s *Simulator) Load(ctx context.Context, ref types.SourceRef) (Handle, error) {
	s.mu.Lock()
	gate := s.gates[ref]
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadErrs[ref]; err != nil {
		return "", err
	}
	h := Handle(uuid.NewString())
	s.voices[h] = &voice{ref: ref, subs: make(map[int]func())}
	return h, nil
}

func (s *Simulator) Play(ctx context.Context, h Handle, gain float64) error {
	s.mu.Lock()
	v, ok := s.voices[h]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("play: unknown handle %s", h)
	}
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.gain = gain
	v.playing = true
	ref := v.ref
	durationOf := s.DurationOf
	s.mu.Unlock()

	if durationOf == nil {
		return nil
	}
	d, err := durationOf(ref)
	if err != nil {
		log.Printf("No duration for %s, voice will run until stopped: %v", ref, err)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.playing && v.timer == nil {
		v.timer = time.AfterFunc(d, func() { s.Finish(h) })
	}
	return nil
}

func (s *Simulator) SetGain(h Handle, gain float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voices[h]
	if !ok {
		return fmt.Errorf("set gain: unknown handle %s", h)
	}
	v.gain = gain
	return nil
}

func (s *Simulator) Stop(_ context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voices[h]
	if !ok {
		return fmt.Errorf("stop: unknown handle %s", h)
	}
	v.playing = false
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	return nil
}

// Unload frees h. Every call is counted, including ones for handles that are
// already gone, so tests can assert a handle is released exactly once.
func (s *Simulator) Unload(_ context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unloads[h]++
	v, ok := s.voices[h]
	if !ok {
		return fmt.Errorf("unload: unknown handle %s", h)
	}
	if v.timer != nil {
		v.timer.Stop()
	}
	delete(s.voices, h)
	return nil
}

func (s *Simulator) OnComplete(h Handle, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voices[h]
	if !ok {
		return func() {}
	}
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(v.subs, id)
	}
}

// Finish plays h to its end, firing completion handlers if it was playing.
func (s *Simulator) Finish(h Handle) {
	s.mu.Lock()
	v, ok := s.voices[h]
	if !ok || !v.playing {
		s.mu.Unlock()
		return
	}
	v.playing = false
	v.timer = nil
	subs := make([]func(), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// FailLoad makes every future Load of ref fail with err. A nil err clears it.
func (s *Simulator) FailLoad(ref types.SourceRef, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.loadErrs, ref)
		return
	}
	s.loadErrs[ref] = err
}

// HoldLoad makes Load of ref block until the returned func is called.
func (s *Simulator) HoldLoad(ref types.SourceRef) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[ref] = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, ref)
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Gain returns the current gain of h.
func (s *Simulator) Gain(h Handle) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[h]; ok {
		return v.gain
	}
	return 0
}

func (s *Simulator) Playing(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voices[h]
	return ok && v.playing
}

func (s *Simulator) Loaded(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.voices[h]
	return ok
}

func (s *Simulator) Unloads(h Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unloads[h]
}

// Subscribers returns how many completion handlers h has.
func (s *Simulator) Subscribers(h Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[h]; ok {
		return len(v.subs)
	}
	return 0
}
