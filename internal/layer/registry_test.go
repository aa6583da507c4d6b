package layer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/trackstudio/internal/audioerr"
	"github.com/schollz/trackstudio/internal/playback"
	"github.com/schollz/trackstudio/internal/types"
)

type fakeReleaser struct {
	err   error
	calls map[playback.Handle]int
}

func (f *fakeReleaser) Unload(_ context.Context, h playback.Handle) error {
	if f.calls == nil {
		f.calls = make(map[playback.Handle]int)
	}
	f.calls[h]++
	return f.err
}

func TestAdmit(t *testing.T) {
	r := NewRegistry(3, nil)
	var ids []string
	for i := 0; i < 5; i++ {
		l := r.Admit(types.SourceRef(fmt.Sprintf("take%d.wav", i)))
		ids = append(ids, l.ID)
		assert.Equal(t, fmt.Sprintf("Layer %d", i+1), l.DisplayName)
		assert.Equal(t, i%3, l.ColorTag)
		assert.Equal(t, 1.0, l.Volume)
		assert.False(t, l.Muted)
		assert.Equal(t, types.Unloaded, l.LoadState)
	}

	list := r.List()
	require.Len(t, list, 5)
	seen := map[string]bool{}
	for i, l := range list {
		assert.Equal(t, ids[i], l.ID, "admission order preserved")
		assert.False(t, seen[l.ID], "ids are unique")
		seen[l.ID] = true
	}
}

func TestMutations(t *testing.T) {
	r := NewRegistry(8, nil)
	l := r.Admit("a.wav")

	require.NoError(t, r.Rename(l.ID, "Vocals"))
	require.NoError(t, r.SetVolume(l.ID, 1.7))
	require.NoError(t, r.SetMuted(l.ID, true))

	got, err := r.Get(l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vocals", got.DisplayName)
	assert.Equal(t, 1.0, got.Volume)
	assert.True(t, got.Muted)

	require.NoError(t, r.SetVolume(l.ID, -1))
	got, _ = r.Get(l.ID)
	assert.Equal(t, 0.0, got.Volume)

	t.Run("absent id", func(t *testing.T) {
		assert.True(t, errors.Is(r.Rename("x", "y"), audioerr.ErrNotFound))
		assert.True(t, errors.Is(r.SetVolume("x", 0.5), audioerr.ErrNotFound))
		assert.True(t, errors.Is(r.SetMuted("x", true), audioerr.ErrNotFound))
		_, err := r.Get("x")
		assert.True(t, errors.Is(err, audioerr.ErrNotFound))
		assert.Equal(t, 1, r.Len())
	})
}

func TestLoadBookkeeping(t *testing.T) {
	r := NewRegistry(8, nil)
	l := r.Admit("a.wav")

	ref, err := r.BeginLoad(l.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceRef("a.wav"), ref)
	_, err = r.BeginLoad(l.ID)
	assert.True(t, errors.Is(err, audioerr.ErrInvalidState), "already loading")

	_, ok := r.Handle(l.ID)
	assert.False(t, ok)

	assert.False(t, r.FinishLoad(l.ID, "h1"))
	h, ok := r.Handle(l.ID)
	assert.True(t, ok)
	assert.Equal(t, playback.Handle("h1"), h)

	t.Run("failed load can be retried", func(t *testing.T) {
		l2 := r.Admit("b.wav")
		_, err := r.BeginLoad(l2.ID)
		require.NoError(t, err)
		r.FailLoad(l2.ID, errors.New("corrupt"))
		got, _ := r.Get(l2.ID)
		assert.Equal(t, types.LoadFailed, got.LoadState)
		assert.Error(t, got.LoadErr)

		_, err = r.BeginLoad(l2.ID)
		assert.NoError(t, err)
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	rel := &fakeReleaser{}
	r := NewRegistry(8, rel)
	var released []types.SourceRef
	r.SetSourceReleaser(func(ref types.SourceRef) error {
		released = append(released, ref)
		return nil
	})

	a := r.Admit("a.wav")
	b := r.Admit("b.wav")
	c := r.Admit("c.wav")
	_, _ = r.BeginLoad(b.ID)
	r.FinishLoad(b.ID, "hb")

	require.NoError(t, r.Remove(ctx, b.ID))
	assert.Equal(t, 1, rel.calls["hb"])
	assert.Equal(t, []types.SourceRef{"b.wav"}, released)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)
	assert.Equal(t, "Layer 3", list[1].DisplayName, "others are undisturbed")

	assert.True(t, errors.Is(r.Remove(ctx, b.ID), audioerr.ErrNotFound))
	assert.Equal(t, 1, rel.calls["hb"], "handle released exactly once")

	t.Run("unload failure keeps the layer", func(t *testing.T) {
		_, _ = r.BeginLoad(a.ID)
		r.FinishLoad(a.ID, "ha")
		rel.err = errors.New("server gone")
		err := r.Remove(ctx, a.ID)
		assert.True(t, errors.Is(err, audioerr.ErrPlayback))
		assert.Equal(t, 2, r.Len())
		rel.err = nil
	})
}

func TestRemoveWhileLoading(t *testing.T) {
	ctx := context.Background()
	rel := &fakeReleaser{}
	r := NewRegistry(8, rel)
	l := r.Admit("a.wav")
	_, err := r.BeginLoad(l.ID)
	require.NoError(t, err)

	require.NoError(t, r.Remove(ctx, l.ID))
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, rel.calls, "nothing to unload yet")

	assert.True(t, r.FinishLoad(l.ID, "late"), "caller must release the late handle")
	assert.True(t, r.FinishLoad(l.ID, "again"), "unknown layers never take a handle")

	t.Run("failed load of removed layer", func(t *testing.T) {
		l := r.Admit("b.wav")
		_, _ = r.BeginLoad(l.ID)
		require.NoError(t, r.Remove(ctx, l.ID))
		r.FailLoad(l.ID, errors.New("x"))
		assert.Equal(t, 0, r.Len())
	})
}

func TestImport(t *testing.T) {
	r := NewRegistry(8, nil)
	require.NoError(t, r.Import(Layer{ID: "abc", Source: "x.wav", DisplayName: "Keys", Volume: 3, ColorTag: 11, LoadState: types.Ready}))
	got, err := r.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, "Keys", got.DisplayName)
	assert.Equal(t, 1.0, got.Volume)
	assert.Equal(t, 3, got.ColorTag)
	assert.Equal(t, types.Unloaded, got.LoadState)

	assert.Error(t, r.Import(Layer{ID: "abc"}))
	assert.Error(t, r.Import(Layer{}))

	next := r.Admit("y.wav")
	assert.Equal(t, "Layer 2", next.DisplayName)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	rel := &fakeReleaser{}
	r := NewRegistry(8, rel)
	a := r.Admit("a.wav")
	b := r.Admit("b.wav")
	_, _ = r.BeginLoad(a.ID)
	r.FinishLoad(a.ID, "ha")
	_, _ = r.BeginLoad(b.ID)

	r.Clear(ctx)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 1, rel.calls["ha"])
	assert.True(t, r.FinishLoad(b.ID, "hb"))
}
