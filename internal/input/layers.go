package input

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/schollz/trackstudio/internal/model"
	"github.com/schollz/trackstudio/internal/types"
)

func handleLayersInput(ctx context.Context, m *model.Model, msg tea.KeyMsg) tea.Cmd {
	l, ok := m.SelectedLayer()
	if !ok {
		return nil
	}

	switch msg.String() {
	case "left", "-":
		if !m.ReportError("Volume", m.AdjustLayerVolume(-1)) {
			m.AutoSave()
		}

	case "right", "+", "=":
		if !m.ReportError("Volume", m.AdjustLayerVolume(1)) {
			m.AutoSave()
		}

	case "m":
		if m.ReportError("Mute", m.Studio.SetLayerMuted(ctx, l.ID, !l.Muted)) {
			return nil
		}
		if l.Muted {
			m.SetStatus("Unmuted %s", l.DisplayName)
		} else {
			m.SetStatus("Muted %s", l.DisplayName)
		}
		m.AutoSave()

	case "n":
		m.BeginPrompt(model.PromptRename, l.ID, l.DisplayName)

	case "d", "backspace", "delete":
		if m.ReportError("Delete", m.Studio.DeleteLayer(ctx, l.ID)) {
			return nil
		}
		m.ClampRow()
		m.SetStatus("Deleted %s", l.DisplayName)
		m.AutoSave()

	case "enter":
		if l.LoadState != types.LoadFailed {
			return nil
		}
		if !m.ReportError("Reload", m.Studio.ReloadLayer(ctx, l.ID)) {
			m.SetStatus("Reloaded %s", l.DisplayName)
		}

	case "p":
		return processLayer(m, l.ID, l.DisplayName)
	}
	return nil
}

func processLayer(m *model.Model, id, name string) tea.Cmd {
	st := m.Studio
	m.SetStatus("Processing %s", name)
	return func() tea.Msg {
		ref, err := st.ProcessLayer(context.Background(), id)
		return ProcessedMsg{Layer: name, Source: ref, Err: err}
	}
}
