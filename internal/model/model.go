package model

import (
	"fmt"
	"log"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/schollz/trackstudio/internal/layer"
	"github.com/schollz/trackstudio/internal/preset"
	"github.com/schollz/trackstudio/internal/storage"
	"github.com/schollz/trackstudio/internal/studio"
	"github.com/schollz/trackstudio/internal/types"
)

// PromptKind says what the text input is collecting.
type PromptKind int

const (
	PromptNone PromptKind = iota
	PromptRename
	PromptPresetName
)

// VolumeStep is how much one key press changes a layer or master volume.
const VolumeStep = 0.05

// Model is the console state on top of a studio.
type Model struct {
	Studio     *studio.Studio
	SaveFolder string

	ViewMode   types.ViewMode
	CurrentRow int
	TermWidth  int
	TermHeight int

	// LevelBuf is the last meter history shown in the header.
	LevelBuf  []float64
	StatusMsg string

	Prompt PromptKind
	// PromptTarget is the id the prompt applies to, such as the layer being renamed.
	PromptTarget string
	TextInput    textinput.Model
}

func NewModel(st *studio.Studio, saveFolder string) *Model {
	ti := textinput.New()
	ti.CharLimit = 40
	ti.Width = 30
	return &Model{
		Studio:     st,
		SaveFolder: saveFolder,
		ViewMode:   types.LayersView,
		TextInput:  ti,
	}
}

// SetStatus replaces the status line and logs it.
func (m *Model) SetStatus(format string, args ...interface{}) {
	m.StatusMsg = fmt.Sprintf(format, args...)
	log.Print(m.StatusMsg)
}

// ReportError puts a non-nil err on the status line and reports whether it did.
func (m *Model) ReportError(op string, err error) bool {
	if err == nil {
		return false
	}
	m.SetStatus("%s: %v", op, err)
	return true
}

// AutoSave schedules a debounced save of the project folder.
func (m *Model) AutoSave() {
	if m.SaveFolder == "" {
		return
	}
	storage.AutoSave(m.SaveFolder, m.Studio.Snapshot)
}

// RowCount is the number of selectable rows in the current view.
func (m *Model) RowCount() int {
	switch m.ViewMode {
	case types.LayersView:
		return m.Studio.Registry().Len()
	case types.EffectsView:
		return len(Params)
	case types.PresetsView:
		return m.Studio.Catalog().Len()
	}
	return 0
}

// MoveRow moves the cursor and keeps it on a valid row.
func (m *Model) MoveRow(delta int) {
	m.CurrentRow += delta
	m.ClampRow()
}

func (m *Model) ClampRow() {
	n := m.RowCount()
	if m.CurrentRow >= n {
		m.CurrentRow = n - 1
	}
	if m.CurrentRow < 0 {
		m.CurrentRow = 0
	}
}

// SwitchView changes page and resets the cursor.
func (m *Model) SwitchView(v types.ViewMode) {
	if m.ViewMode == v {
		return
	}
	m.ViewMode = v
	m.CurrentRow = 0
	if v == types.PresetsView {
		id := m.Studio.Store().ActivePresetID()
		for i, p := range m.Studio.Catalog().List() {
			if p.ID == id {
				m.CurrentRow = i
				break
			}
		}
	}
}

// SelectedLayer returns the layer under the cursor in the layers view.
func (m *Model) SelectedLayer() (layer.Layer, bool) {
	layers := m.Studio.Layers()
	if m.CurrentRow < 0 || m.CurrentRow >= len(layers) {
		return layer.Layer{}, false
	}
	return layers[m.CurrentRow], true
}

// SelectedPreset returns the preset under the cursor in the presets view.
func (m *Model) SelectedPreset() (preset.Preset, bool) {
	list := m.Studio.Catalog().List()
	if m.CurrentRow < 0 || m.CurrentRow >= len(list) {
		return preset.Preset{}, false
	}
	return list[m.CurrentRow], true
}

// AdjustLayerVolume nudges the selected layer's volume by steps.
func (m *Model) AdjustLayerVolume(steps int) error {
	l, ok := m.SelectedLayer()
	if !ok {
		return nil
	}
	return m.Studio.SetLayerVolume(l.ID, l.Volume+float64(steps)*VolumeStep)
}

// AdjustMasterVolume nudges the master volume by steps.
func (m *Model) AdjustMasterVolume(steps int) error {
	return m.Studio.SetMasterVolume(m.Studio.MasterVolume() + float64(steps)*VolumeStep)
}

// AdjustParam moves the effect parameter under the cursor by steps. Toggle
// parameters flip on any non-zero step.
func (m *Model) AdjustParam(steps int) {
	if m.CurrentRow < 0 || m.CurrentRow >= len(Params) || steps == 0 {
		return
	}
	p := Params[m.CurrentRow]
	s := m.Studio.Store().Settings()
	var next float64
	if p.Toggle {
		next = 1 - p.Get(s)
	} else {
		next = p.Get(s) + float64(steps)*p.Step
	}
	m.Studio.Store().UpdateSettings(p.Set(s, next))
}

// RefreshLevels copies the recording meter history for the header.
func (m *Model) RefreshLevels() {
	st, ok := m.Studio.RecordingStatus()
	if !ok {
		return
	}
	m.LevelBuf = st.Levels
}

// BeginPrompt focuses the text input for kind, seeded with value.
func (m *Model) BeginPrompt(kind PromptKind, target, value string) {
	m.Prompt = kind
	m.PromptTarget = target
	m.TextInput.SetValue(value)
	m.TextInput.CursorEnd()
	m.TextInput.Focus()
}

// EndPrompt hides the text input and returns what was typed.
func (m *Model) EndPrompt() string {
	v := m.TextInput.Value()
	m.Prompt = PromptNone
	m.PromptTarget = ""
	m.TextInput.Blur()
	m.TextInput.Reset()
	return v
}
