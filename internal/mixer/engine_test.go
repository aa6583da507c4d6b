package mixer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/trackstudio/internal/audioerr"
	"github.com/schollz/trackstudio/internal/layer"
	"github.com/schollz/trackstudio/internal/playback"
	"github.com/schollz/trackstudio/internal/types"
)

func setup(t *testing.T, n int) (*Engine, *layer.Registry, *playback.Simulator, []layer.Layer) {
	t.Helper()
	sim := playback.NewSimulator()
	reg := layer.NewRegistry(types.PaletteSize, sim)
	var layers []layer.Layer
	for i := 0; i < n; i++ {
		layers = append(layers, reg.Admit(types.SourceRef("take"+string(rune('a'+i))+".wav")))
	}
	return NewEngine(reg, sim), reg, sim, layers
}

func handle(t *testing.T, reg *layer.Registry, id string) playback.Handle {
	t.Helper()
	h, ok := reg.Handle(id)
	require.True(t, ok, "layer %s should be ready", id)
	return h
}

func TestPlayAllMutedLayer(t *testing.T) {
	ctx := context.Background()
	e, reg, sim, l := setup(t, 2)
	require.NoError(t, reg.SetVolume(l[1].ID, 0.6))
	require.NoError(t, e.SetLayerMuted(ctx, l[0].ID, true))

	playing, err := e.PlayAll(ctx, 1.0)
	require.NoError(t, err)
	assert.True(t, playing)

	g0, _ := e.EffectiveGain(l[0].ID)
	g1, _ := e.EffectiveGain(l[1].ID)
	assert.Equal(t, 0.0, g0)
	assert.Equal(t, 0.6, g1)

	assert.False(t, sim.Playing(handle(t, reg, l[0].ID)), "muted layers are not started")
	h1 := handle(t, reg, l[1].ID)
	assert.True(t, sim.Playing(h1))
	assert.Equal(t, 0.6, sim.Gain(h1))
}

func TestLiveGainChanges(t *testing.T) {
	ctx := context.Background()
	e, reg, sim, l := setup(t, 2)
	_, err := e.PlayAll(ctx, 0.5)
	require.NoError(t, err)
	h0, h1 := handle(t, reg, l[0].ID), handle(t, reg, l[1].ID)
	assert.Equal(t, 0.5, sim.Gain(h0))

	require.NoError(t, e.SetLayerVolume(l[0].ID, 0.4))
	assert.InDelta(t, 0.2, sim.Gain(h0), 1e-9)

	require.NoError(t, e.SetMasterVolume(1))
	assert.InDelta(t, 0.4, sim.Gain(h0), 1e-9)
	assert.InDelta(t, 1.0, sim.Gain(h1), 1e-9)

	require.NoError(t, e.SetLayerMuted(ctx, l[1].ID, true))
	assert.Equal(t, 0.0, sim.Gain(h1))
	assert.True(t, sim.Playing(h1), "muting does not restart or stop")

	require.NoError(t, e.SetLayerMuted(ctx, l[1].ID, false))
	assert.InDelta(t, 1.0, sim.Gain(h1), 1e-9)

	for _, x := range l {
		want, _ := e.EffectiveGain(x.ID)
		assert.InDelta(t, want, sim.Gain(handle(t, reg, x.ID)), 1e-9)
	}

	require.NoError(t, e.SetMasterVolume(3))
	assert.Equal(t, 1.0, e.MasterVolume())
}

func TestUnmuteWhilePlayingStartsLayer(t *testing.T) {
	ctx := context.Background()
	e, reg, sim, l := setup(t, 2)
	require.NoError(t, e.SetLayerMuted(ctx, l[0].ID, true))
	_, err := e.PlayAll(ctx, 1)
	require.NoError(t, err)
	h0 := handle(t, reg, l[0].ID)
	assert.False(t, sim.Playing(h0))

	require.NoError(t, e.SetLayerMuted(ctx, l[0].ID, false))
	assert.True(t, sim.Playing(h0))
	assert.Equal(t, 1.0, sim.Gain(h0))
	assert.Equal(t, []string{l[0].ID, l[1].ID}, e.Active())
}

func TestPlayAllClampsMaster(t *testing.T) {
	e, reg, sim, l := setup(t, 1)
	_, err := e.PlayAll(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.MasterVolume())
	assert.Equal(t, 1.0, sim.Gain(handle(t, reg, l[0].ID)))
}

func TestPlayAllEveryLayerMuted(t *testing.T) {
	ctx := context.Background()
	e, reg, sim, l := setup(t, 2)
	require.NoError(t, e.SetLayerMuted(ctx, l[0].ID, true))
	require.NoError(t, e.SetLayerMuted(ctx, l[1].ID, true))

	playing, err := e.PlayAll(ctx, 1)
	require.NoError(t, err)
	assert.True(t, playing, "ready layers exist even though none sound")
	assert.Empty(t, e.Active())

	require.NoError(t, e.SetLayerMuted(ctx, l[1].ID, false))
	assert.True(t, sim.Playing(handle(t, reg, l[1].ID)))

	playing, _ = e.PlayAll(ctx, 1)
	assert.False(t, playing)
	assert.Empty(t, e.Active())
}

func TestIdleChangesAreStored(t *testing.T) {
	ctx := context.Background()
	e, reg, _, l := setup(t, 1)
	require.NoError(t, e.SetLayerVolume(l[0].ID, 0.3))
	require.NoError(t, e.SetMasterVolume(0.5))
	got, _ := reg.Get(l[0].ID)
	assert.Equal(t, 0.3, got.Volume)
	assert.False(t, e.IsPlaying())

	assert.True(t, errors.Is(e.SetLayerVolume("nope", 1), audioerr.ErrNotFound))
	assert.True(t, errors.Is(e.SetLayerMuted(ctx, "nope", true), audioerr.ErrNotFound))
}

func TestToggleAndStop(t *testing.T) {
	ctx := context.Background()
	e, reg, sim, l := setup(t, 2)
	var changes []bool
	e.SetOnPlayingChanged(func(p bool) { changes = append(changes, p) })

	playing, _ := e.PlayAll(ctx, 1)
	assert.True(t, playing)
	h0 := handle(t, reg, l[0].ID)
	assert.Equal(t, 1, sim.Subscribers(h0))

	playing, _ = e.PlayAll(ctx, 1)
	assert.False(t, playing)
	assert.False(t, sim.Playing(h0))
	assert.Equal(t, 0, sim.Subscribers(h0), "handlers deregistered on stop")

	_, _ = e.PlayAll(ctx, 1)
	e.StopAll(ctx)
	assert.False(t, e.IsPlaying())
	assert.Empty(t, e.Active())
	assert.Equal(t, []bool{true, false, true, false}, changes)
}

func TestPlayAllWithoutLayers(t *testing.T) {
	e, _, _, _ := setup(t, 0)
	playing, err := e.PlayAll(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, playing)
}

func TestFirstFinisherEndsPlayback(t *testing.T) {
	ctx := context.Background()
	e, reg, sim, l := setup(t, 2)
	_, _ = e.PlayAll(ctx, 1)
	h0, h1 := handle(t, reg, l[0].ID), handle(t, reg, l[1].ID)

	sim.Finish(h0)
	assert.False(t, e.IsPlaying())
	assert.Equal(t, []string{l[1].ID}, e.Active(), "the longer layer is still sounding")
	assert.True(t, sim.Playing(h1))

	playing, _ := e.PlayAll(ctx, 1)
	assert.True(t, playing, "next toggle restarts everything from zero")
	assert.True(t, sim.Playing(h0))
	assert.Len(t, e.Active(), 2)
}

func TestChangesAfterFirstFinisher(t *testing.T) {
	ctx := context.Background()
	e, reg, sim, l := setup(t, 2)
	_, _ = e.PlayAll(ctx, 1)
	h0, h1 := handle(t, reg, l[0].ID), handle(t, reg, l[1].ID)
	sim.Finish(h0)
	require.False(t, e.IsPlaying())
	require.Equal(t, []string{l[1].ID}, e.Active())

	t.Run("mute silences a layer still sounding", func(t *testing.T) {
		require.NoError(t, e.SetLayerMuted(ctx, l[1].ID, true))
		g, _ := e.EffectiveGain(l[1].ID)
		assert.Equal(t, 0.0, g)
		assert.Equal(t, 0.0, sim.Gain(h1))
		assert.True(t, sim.Playing(h1))

		require.NoError(t, e.SetLayerMuted(ctx, l[1].ID, false))
		assert.Equal(t, 1.0, sim.Gain(h1))
	})

	t.Run("volume and master reach a layer still sounding", func(t *testing.T) {
		require.NoError(t, e.SetLayerVolume(l[1].ID, 0.4))
		assert.InDelta(t, 0.4, sim.Gain(h1), 1e-9)
		require.NoError(t, e.SetMasterVolume(0.5))
		assert.InDelta(t, 0.2, sim.Gain(h1), 1e-9)
		g, _ := e.EffectiveGain(l[1].ID)
		assert.InDelta(t, g, sim.Gain(h1), 1e-9)
	})

	t.Run("unmuting a finished layer does not restart it", func(t *testing.T) {
		require.NoError(t, e.SetLayerMuted(ctx, l[0].ID, true))
		require.NoError(t, e.SetLayerMuted(ctx, l[0].ID, false))
		assert.False(t, sim.Playing(h0))
		assert.Equal(t, []string{l[1].ID}, e.Active())
		assert.False(t, e.IsPlaying())
	})
}

func TestCompletionDrivenByDuration(t *testing.T) {
	ctx := context.Background()
	e, _, sim, _ := setup(t, 1)
	sim.DurationOf = func(types.SourceRef) (time.Duration, error) { return 10 * time.Millisecond, nil }
	_, _ = e.PlayAll(ctx, 1)
	assert.Eventually(t, func() bool { return !e.IsPlaying() }, 2*time.Second, 5*time.Millisecond)
}

func TestLoadFailureExcludedUntilReload(t *testing.T) {
	ctx := context.Background()
	e, reg, sim, l := setup(t, 2)
	sim.FailLoad(l[0].Source, errors.New("corrupt"))

	playing, err := e.PlayAll(ctx, 1)
	assert.True(t, playing)
	assert.True(t, errors.Is(err, audioerr.ErrLoad))
	got, _ := reg.Get(l[0].ID)
	assert.Equal(t, types.LoadFailed, got.LoadState)
	assert.Equal(t, []string{l[1].ID}, e.Active())

	e.StopAll(ctx)
	sim.FailLoad(l[0].Source, nil)
	_, err = e.PlayAll(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, []string{l[1].ID}, e.Active(), "failed layers are not retried by playAll")
	e.StopAll(ctx)

	require.NoError(t, e.Reload(ctx, l[0].ID))
	_, err = e.PlayAll(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, e.Active(), 2)

	assert.True(t, errors.Is(e.Reload(ctx, l[0].ID), audioerr.ErrInvalidState))
}

func TestDeleteExcludesLayer(t *testing.T) {
	ctx := context.Background()
	e, reg, sim, l := setup(t, 2)
	_, _ = e.PlayAll(ctx, 1)
	h0 := handle(t, reg, l[0].ID)

	e.Forget(ctx, l[0].ID)
	require.NoError(t, reg.Remove(ctx, l[0].ID))
	assert.Equal(t, 1, sim.Unloads(h0))
	assert.True(t, e.IsPlaying())
	assert.Equal(t, []string{l[1].ID}, e.Active())

	e.StopAll(ctx)
	_, _ = e.PlayAll(ctx, 1)
	assert.Equal(t, []string{l[1].ID}, e.Active())
	assert.Equal(t, 1, sim.Unloads(h0), "released exactly once")
}

func TestForgetLastLayerEndsPlayback(t *testing.T) {
	ctx := context.Background()
	e, _, _, l := setup(t, 1)
	_, _ = e.PlayAll(ctx, 1)
	e.Forget(ctx, l[0].ID)
	assert.False(t, e.IsPlaying())
}

func TestDeleteWhileLoading(t *testing.T) {
	ctx := context.Background()
	e, reg, sim, l := setup(t, 1)
	release := sim.HoldLoad(l[0].Source)

	done := make(chan error)
	go func() { done <- e.Load(ctx, l[0].ID) }()

	assert.Eventually(t, func() bool {
		got, err := reg.Get(l[0].ID)
		return err == nil && got.LoadState == types.Loading
	}, time.Second, time.Millisecond)

	require.NoError(t, reg.Remove(ctx, l[0].ID))
	release()
	require.NoError(t, <-done)
	assert.Equal(t, 0, reg.Len())

	playing, err := e.PlayAll(ctx, 1)
	assert.NoError(t, err)
	assert.False(t, playing)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	e, _, _, _ := setup(t, 1)
	_, _ = e.PlayAll(ctx, 0.3)
	assert.Equal(t, 0.3, e.MasterVolume())
	e.Reset(ctx)
	assert.False(t, e.IsPlaying())
	assert.Equal(t, 1.0, e.MasterVolume())
}
