package input

import (
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/trackstudio/internal/audio"
	"github.com/schollz/trackstudio/internal/capture"
	"github.com/schollz/trackstudio/internal/model"
	"github.com/schollz/trackstudio/internal/playback"
	"github.com/schollz/trackstudio/internal/preset"
	"github.com/schollz/trackstudio/internal/studio"
	"github.com/schollz/trackstudio/internal/types"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+q":
		return tea.KeyMsg{Type: tea.KeyCtrlQ}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *model.Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = HandleKeyInput(m, key(k))
	}
	return cmd
}

func newTestModel(t *testing.T) *model.Model {
	t.Helper()
	dir := t.TempDir()
	dev := capture.NewDevice(capture.Config{Dir: dir, MeterInterval: 10 * time.Millisecond})
	st := studio.New(dev, playback.NewSimulator(), studio.Options{Renderer: audio.NewRenderer(dir)})
	return model.NewModel(st, "")
}

func record(t *testing.T, m *model.Model) {
	t.Helper()
	press(m, "r")
	require.True(t, m.Studio.IsRecording(), m.StatusMsg)
	time.Sleep(40 * time.Millisecond)
	press(m, "r")
	require.False(t, m.Studio.IsRecording())
}

func TestRecordToggle(t *testing.T) {
	m := newTestModel(t)
	m.ViewMode = types.EffectsView
	record(t, m)

	layers := m.Studio.Layers()
	require.Len(t, layers, 1)
	assert.Equal(t, "Layer 1", layers[0].DisplayName)
	assert.Equal(t, types.Ready, layers[0].LoadState)
	assert.Equal(t, types.LayersView, m.ViewMode)
	assert.Equal(t, "Recorded Layer 1", m.StatusMsg)

	record(t, m)
	assert.Equal(t, 1, m.CurrentRow, "cursor follows the newest take")
}

func TestPlaybackToggle(t *testing.T) {
	m := newTestModel(t)

	press(m, " ")
	assert.False(t, m.Studio.IsPlaying())
	assert.Equal(t, "Nothing to play", m.StatusMsg)

	record(t, m)
	press(m, " ")
	assert.True(t, m.Studio.IsPlaying())
	press(m, " ")
	assert.False(t, m.Studio.IsPlaying())
	assert.Equal(t, "Playback stopped", m.StatusMsg)

	press(m, " ", "s")
	assert.False(t, m.Studio.IsPlaying())
}

func TestPlaybackRefusedWhileRecording(t *testing.T) {
	m := newTestModel(t)
	press(m, "r")
	defer press(m, "r")
	press(m, " ")
	assert.False(t, m.Studio.IsPlaying())
	assert.Contains(t, m.StatusMsg, "Playback")
}

func TestLayerKeys(t *testing.T) {
	m := newTestModel(t)
	record(t, m)
	m.CurrentRow = 0

	t.Run("volume", func(t *testing.T) {
		press(m, "-")
		l, _ := m.SelectedLayer()
		assert.InDelta(t, 1-model.VolumeStep, l.Volume, 1e-9)
		press(m, "right", "right")
		l, _ = m.SelectedLayer()
		assert.Equal(t, 1.0, l.Volume)
	})

	t.Run("mute", func(t *testing.T) {
		press(m, "m")
		l, _ := m.SelectedLayer()
		assert.True(t, l.Muted)
		press(m, "m")
		l, _ = m.SelectedLayer()
		assert.False(t, l.Muted)
	})

	t.Run("rename", func(t *testing.T) {
		press(m, "n")
		require.Equal(t, model.PromptRename, m.Prompt)
		press(m, "X", "enter")
		l, _ := m.SelectedLayer()
		assert.Equal(t, "Layer 1X", l.DisplayName)
		assert.Equal(t, model.PromptNone, m.Prompt)
	})

	t.Run("rename cancelled", func(t *testing.T) {
		press(m, "n", "Y", "esc")
		l, _ := m.SelectedLayer()
		assert.Equal(t, "Layer 1X", l.DisplayName)
	})

	t.Run("master", func(t *testing.T) {
		press(m, "[", "[")
		assert.InDelta(t, 0.9, m.Studio.MasterVolume(), 1e-9)
		press(m, "]", "]", "]")
		assert.Equal(t, 1.0, m.Studio.MasterVolume())
	})

	t.Run("delete", func(t *testing.T) {
		press(m, "d")
		assert.Equal(t, 0, m.Studio.Registry().Len())
		assert.Equal(t, 0, m.CurrentRow)
		press(m, "d", "m", "n")
		assert.Equal(t, model.PromptNone, m.Prompt)
	})
}

func TestEffectsKeys(t *testing.T) {
	m := newTestModel(t)
	press(m, "2")
	require.Equal(t, types.EffectsView, m.ViewMode)

	before := m.Studio.Store().Settings()
	press(m, "right")
	after := m.Studio.Store().Settings()
	assert.InDelta(t, before.EQBands[0].GainDB+model.Params[0].Step, after.EQBands[0].GainDB, 1e-9)
	assert.Empty(t, m.Studio.Store().ActivePresetID())

	t.Run("save preset with category", func(t *testing.T) {
		press(m, "w")
		require.Equal(t, model.PromptPresetName, m.Prompt)
		m.TextInput.SetValue("Vocal/My Mix")
		press(m, "enter")
		id := m.Studio.Store().ActivePresetID()
		require.NotEmpty(t, id)
		p, err := m.Studio.Catalog().Get(id)
		require.NoError(t, err)
		assert.Equal(t, "My Mix", p.Name)
		assert.Equal(t, types.CategoryVocal, p.Category)
		assert.Equal(t, preset.BuiltIns()[0].Settings.EQBands[0].GainDB+model.Params[0].Step, p.Settings.EQBands[0].GainDB)
	})

	t.Run("reset", func(t *testing.T) {
		press(m, "0")
		assert.Equal(t, preset.BalancedMasterID, m.Studio.Store().ActivePresetID())
	})

	t.Run("enter only toggles switches", func(t *testing.T) {
		m.CurrentRow = 0
		s := m.Studio.Store().Settings()
		press(m, "enter")
		assert.True(t, s.Equal(m.Studio.Store().Settings()))
	})
}

func TestPresetKeys(t *testing.T) {
	m := newTestModel(t)
	press(m, "3")
	require.Equal(t, types.PresetsView, m.ViewMode)
	assert.Equal(t, 0, m.CurrentRow)

	press(m, "down", "down", "enter")
	assert.Equal(t, preset.RapVocalID, m.Studio.Store().ActivePresetID())
	assert.Equal(t, "Loaded preset Rap Vocal", m.StatusMsg)
}

func TestProcessKey(t *testing.T) {
	m := newTestModel(t)
	record(t, m)

	cmd := press(m, "p")
	require.NotNil(t, cmd)
	msg, ok := cmd().(ProcessedMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	HandleProcessed(m, msg)
	assert.Contains(t, m.StatusMsg, "Processed Layer 1")
	_, err := os.Stat(string(msg.Source))
	assert.NoError(t, err)
}

func TestViewCycling(t *testing.T) {
	m := newTestModel(t)
	press(m, "tab")
	assert.Equal(t, types.EffectsView, m.ViewMode)
	press(m, "tab", "tab")
	assert.Equal(t, types.LayersView, m.ViewMode)
	press(m, "1")
	assert.Equal(t, types.LayersView, m.ViewMode)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	cmd := press(m, "ctrl+q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSplitPresetName(t *testing.T) {
	name, cat := splitPresetName("Instrument/Guitar")
	assert.Equal(t, "Guitar", name)
	assert.Equal(t, types.CategoryInstrument, cat)

	name, cat = splitPresetName("Late Night")
	assert.Equal(t, "Late Night", name)
	assert.Equal(t, types.CategoryCustom, cat)
}
