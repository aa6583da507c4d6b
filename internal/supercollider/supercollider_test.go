package supercollider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/trackstudio/internal/effects"
	"github.com/schollz/trackstudio/internal/types"
)

type recorder struct {
	mu   sync.Mutex
	err  error
	msgs []*osc.Message
}

func (r *recorder) Send(p osc.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, p.(*osc.Message))
	return nil
}

func (r *recorder) last() *osc.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msgs[len(r.msgs)-1]
}

func tempTake(t *testing.T) types.SourceRef {
	t.Helper()
	path := filepath.Join(t.TempDir(), "take.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0644))
	return types.SourceRef(path)
}

func TestPlayerMessages(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	p := NewPlayer(rec)
	ref := tempTake(t)

	h, err := p.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "/layer_load", rec.last().Address)
	assert.Equal(t, []interface{}{string(h), string(ref)}, rec.last().Arguments)

	require.NoError(t, p.Play(ctx, h, 0.5))
	assert.Equal(t, "/layer_play", rec.last().Address)
	assert.Equal(t, float32(0.5), rec.last().Arguments[1])

	require.NoError(t, p.SetGain(h, 0.25))
	assert.Equal(t, "/layer_gain", rec.last().Address)

	require.NoError(t, p.Stop(ctx, h))
	assert.Equal(t, "/layer_stop", rec.last().Address)

	require.NoError(t, p.Unload(ctx, h))
	assert.Equal(t, "/layer_free", rec.last().Address)
	assert.Error(t, p.Unload(ctx, h))
	assert.Error(t, p.Play(ctx, h, 1))
}

func TestPlayerLoadErrors(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	p := NewPlayer(rec)

	_, err := p.Load(ctx, "/does/not/exist.wav")
	assert.Error(t, err)

	rec.err = errors.New("connection refused")
	_, err = p.Load(ctx, tempTake(t))
	assert.Error(t, err)
}

func TestPlayerCompletion(t *testing.T) {
	ctx := context.Background()
	p := NewPlayer(&recorder{})
	h, err := p.Load(ctx, tempTake(t))
	require.NoError(t, err)

	calls := 0
	cancel := p.OnComplete(h, func() { calls++ })

	p.handleDone(osc.NewMessage("/layer_done", string(h)))
	assert.Equal(t, 1, calls)

	p.handleDone(osc.NewMessage("/layer_done", "someone-else"))
	p.handleDone(osc.NewMessage("/layer_done", int32(4)))
	p.handleDone(osc.NewMessage("/layer_done"))
	assert.Equal(t, 1, calls)

	cancel()
	p.handleDone(osc.NewMessage("/layer_done", string(h)))
	assert.Equal(t, 1, calls)

	require.NoError(t, p.Register(osc.NewStandardDispatcher()))
}

func TestSettingsMessages(t *testing.T) {
	s := effects.Default()
	s.OutputGainDB = -3
	msgs := SettingsMessages(s)
	require.Len(t, msgs, len(s.EQBands)+7)

	assert.Equal(t, "/fx_eq", msgs[0].Address)
	assert.Equal(t, []interface{}{int32(0), float32(80), float32(0), float32(1), int32(1)}, msgs[0].Arguments)

	last := msgs[len(msgs)-1]
	assert.Equal(t, "/fx_output", last.Address)
	assert.Equal(t, []interface{}{float32(-3)}, last.Arguments)

	rec := &recorder{}
	require.NoError(t, SendSettings(rec, s))
	assert.Len(t, rec.msgs, len(msgs))

	rec.err = errors.New("down")
	assert.Error(t, SendSettings(rec, s))
}
