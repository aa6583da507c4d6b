package input

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/schollz/trackstudio/internal/model"
	"github.com/schollz/trackstudio/internal/types"
)

// ProcessedMsg reports the end of a background render.
type ProcessedMsg struct {
	Layer  string
	Source types.SourceRef
	Err    error
}

// HandleKeyInput applies one key press to the model.
func HandleKeyInput(m *model.Model, msg tea.KeyMsg) tea.Cmd {
	if m.Prompt != model.PromptNone {
		return handlePromptInput(m, msg)
	}

	ctx := context.Background()
	switch msg.String() {
	case "ctrl+c", "ctrl+q", "alt+q":
		return tea.Quit

	case "r":
		toggleRecording(ctx, m)
		return nil

	case " ":
		togglePlayback(ctx, m)
		return nil

	case "s":
		m.Studio.StopPlayback(ctx)
		m.SetStatus("Playback stopped")
		return nil

	case "[":
		if !m.ReportError("Master volume", m.AdjustMasterVolume(-1)) {
			m.AutoSave()
		}
		return nil

	case "]":
		if !m.ReportError("Master volume", m.AdjustMasterVolume(1)) {
			m.AutoSave()
		}
		return nil

	case "up", "k":
		m.MoveRow(-1)
		return nil

	case "down", "j":
		m.MoveRow(1)
		return nil

	case "tab":
		m.SwitchView((m.ViewMode + 1) % 3)
		return nil

	case "shift+tab":
		m.SwitchView((m.ViewMode + 2) % 3)
		return nil

	case "1":
		m.SwitchView(types.LayersView)
		return nil

	case "2":
		m.SwitchView(types.EffectsView)
		return nil

	case "3":
		m.SwitchView(types.PresetsView)
		return nil

	case "N":
		if !m.ReportError("New project", m.Studio.NewProject(ctx)) {
			m.CurrentRow = 0
			m.LevelBuf = nil
			m.SetStatus("New project")
			m.AutoSave()
		}
		return nil
	}

	switch m.ViewMode {
	case types.LayersView:
		return handleLayersInput(ctx, m, msg)
	case types.EffectsView:
		return handleEffectsInput(m, msg)
	case types.PresetsView:
		return handlePresetsInput(m, msg)
	}
	return nil
}

// HandleProcessed shows the result of a render started from the console.
func HandleProcessed(m *model.Model, msg ProcessedMsg) {
	if m.ReportError("Process "+msg.Layer, msg.Err) {
		return
	}
	m.SetStatus("Processed %s to %s", msg.Layer, msg.Source)
}

func toggleRecording(ctx context.Context, m *model.Model) {
	if m.Studio.IsRecording() {
		l, err := m.Studio.StopRecording(ctx)
		if m.ReportError("Stop recording", err) {
			return
		}
		m.ViewMode = types.LayersView
		m.CurrentRow = m.Studio.Registry().Len() - 1
		m.ClampRow()
		m.SetStatus("Recorded %s", l.DisplayName)
		m.AutoSave()
		return
	}
	if m.ReportError("Start recording", m.Studio.StartRecording(ctx)) {
		return
	}
	m.LevelBuf = nil
	m.SetStatus("Recording")
}

func togglePlayback(ctx context.Context, m *model.Model) {
	wasPlaying := m.Studio.IsPlaying()
	playing, err := m.Studio.TogglePlayback(ctx)
	if m.ReportError("Playback", err) {
		return
	}
	switch {
	case playing:
		m.SetStatus("Playing")
	case wasPlaying:
		m.SetStatus("Playback stopped")
	default:
		m.SetStatus("Nothing to play")
	}
}

func handlePromptInput(m *model.Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.EndPrompt()
		return nil
	case "enter":
		kind, target := m.Prompt, m.PromptTarget
		value := m.EndPrompt()
		commitPrompt(m, kind, target, value)
		return nil
	}
	var cmd tea.Cmd
	m.TextInput, cmd = m.TextInput.Update(msg)
	return cmd
}

func commitPrompt(m *model.Model, kind model.PromptKind, target, value string) {
	switch kind {
	case model.PromptRename:
		if m.ReportError("Rename", m.Studio.RenameLayer(target, value)) {
			return
		}
		m.SetStatus("Renamed to %s", value)
	case model.PromptPresetName:
		name, category := splitPresetName(value)
		p, err := m.Studio.Store().SavePreset(name, category)
		if m.ReportError("Save preset", err) {
			return
		}
		m.SetStatus("Saved preset %s (%s)", p.Name, p.Category)
	}
	m.AutoSave()
}
