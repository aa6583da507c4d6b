package recording

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/schollz/trackstudio/internal/audioerr"
	"github.com/schollz/trackstudio/internal/meter"
	"github.com/schollz/trackstudio/internal/types"
)

const component = "recording"

// TickInterval is how often elapsed time advances while recording.
const TickInterval = time.Second

// CaptureHandle identifies one running capture on a device.
type CaptureHandle string

// CaptureDevice is the input collaborator a session records from.
type CaptureDevice interface {
	// RequestPermission reports whether capture is allowed.
	RequestPermission(ctx context.Context) (bool, error)
	// StartCapture begins capturing and reports meter readings in decibels
	// through onLevel until the capture is stopped.
	StartCapture(ctx context.Context, onLevel func(db float64)) (CaptureHandle, error)
	// Stop ends the capture and materializes the take.
	Stop(ctx context.Context, h CaptureHandle) (types.SourceRef, error)
}

// Options configures a session.
type Options struct {
	MaxDurationSeconds int
	Scheduler          Scheduler
	// OnAutoFinalize receives the result of a stop triggered by reaching
	// MaxDurationSeconds. It is called without any session lock held.
	OnAutoFinalize func(ref types.SourceRef, err error)
}

// Status is a point-in-time copy of the session's observable state.
type Status struct {
	State              types.SessionState
	ElapsedSeconds     int
	MaxDurationSeconds int
	Levels             []float64
	Source             types.SourceRef
	Err                error
}

// Session is a single capture attempt:
// Idle -> Recording -> Finalizing -> Committed | Failed.
type Session struct {
	device CaptureDevice
	opts   Options

	mu       sync.Mutex
	state    types.SessionState
	starting bool
	elapsed  int
	history  *meter.History
	handle   CaptureHandle
	stopTick func()
	source   types.SourceRef
	err      error
}

// NewSession creates an idle session bound to device.
func NewSession(device CaptureDevice, opts Options) *Session {
	if opts.MaxDurationSeconds <= 0 {
		opts.MaxDurationSeconds = types.DefaultMaxDurationSeconds
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	return &Session{
		device:  device,
		opts:    opts,
		state:   types.SessionIdle,
		history: meter.NewHistory(types.LevelHistorySize),
	}
}

// Start checks permission, starts the device and enters Recording. The
// session lock is not held while the device is asked for permission or
// started; level readings that arrive before Recording are dropped.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != types.SessionIdle || s.starting {
		state := s.state
		s.mu.Unlock()
		return audioerr.Wrap(audioerr.ErrInvalidState, component, "start", "session is "+state.String(), nil)
	}
	s.starting = true
	s.elapsed = 0
	s.history.Reset()
	s.mu.Unlock()

	granted, err := s.device.RequestPermission(ctx)
	if err != nil || !granted {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.starting = false
		s.state = types.SessionFailed
		s.err = audioerr.Wrap(audioerr.ErrPermissionDenied, component, "start", "capture permission not granted", err)
		log.Printf("Recording permission denied: %v", s.err)
		return s.err
	}

	handle, err := s.device.StartCapture(ctx, s.onDeviceLevel)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false
	if err != nil {
		s.state = types.SessionFailed
		s.err = audioerr.Wrap(audioerr.ErrCaptureStart, component, "start", "", err)
		log.Printf("Recording failed to start: %v", err)
		return s.err
	}
	s.handle = handle
	s.state = types.SessionRecording
	s.stopTick = s.opts.Scheduler.Every(TickInterval, s.tick)
	log.Printf("Recording started (max %ds)", s.opts.MaxDurationSeconds)
	return nil
}

func (s *Session) onDeviceLevel(db float64) {
	_ = s.OnLevelSample(meter.Normalize(db))
}

// OnLevelSample appends a normalized sample to the level history. It is only
// valid while recording.
func (s *Session) OnLevelSample(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != types.SessionRecording {
		return audioerr.Wrap(audioerr.ErrInvalidState, component, "level sample", "session is "+s.state.String(), nil)
	}
	s.history.Push(v)
	return nil
}

func (s *Session) tick() {
	s.mu.Lock()
	if s.state != types.SessionRecording {
		s.mu.Unlock()
		return
	}
	s.elapsed++
	reached := s.elapsed >= s.opts.MaxDurationSeconds
	s.mu.Unlock()

	if !reached {
		return
	}
	log.Printf("Recording reached max duration of %ds, stopping", s.opts.MaxDurationSeconds)
	ref, err := s.finalize(context.Background(), "auto stop")
	if audioerr.Reason(err) == audioerr.ErrInvalidState {
		// a manual Stop got there first and owns the result
		return
	}
	if s.opts.OnAutoFinalize != nil {
		s.opts.OnAutoFinalize(ref, err)
	}
}

// Stop ends a recording and materializes its take. On success the session is
// Committed and the returned ref is ready to become a layer.
func (s *Session) Stop(ctx context.Context) (types.SourceRef, error) {
	return s.finalize(ctx, "stop")
}

func (s *Session) finalize(ctx context.Context, op string) (types.SourceRef, error) {
	s.mu.Lock()
	if s.state != types.SessionRecording {
		state := s.state
		s.mu.Unlock()
		return "", audioerr.Wrap(audioerr.ErrInvalidState, component, op, "session is "+state.String(), nil)
	}
	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
	s.state = types.SessionFinalizing
	handle := s.handle
	s.mu.Unlock()

	ref, err := s.device.Stop(ctx, handle)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = ""
	if err != nil {
		s.state = types.SessionFailed
		s.history.Reset()
		s.err = audioerr.Wrap(audioerr.ErrFinalize, component, op, "", err)
		log.Printf("Recording finalize failed after %ds: %v", s.elapsed, err)
		return "", s.err
	}
	s.state = types.SessionCommitted
	s.source = ref
	log.Printf("Recording committed after %ds: %s", s.elapsed, ref)
	return ref, nil
}

// State returns the current lifecycle state.
func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a copy of the session's observable state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:              s.state,
		ElapsedSeconds:     s.elapsed,
		MaxDurationSeconds: s.opts.MaxDurationSeconds,
		Levels:             s.history.Snapshot(),
		Source:             s.source,
		Err:                s.err,
	}
}
