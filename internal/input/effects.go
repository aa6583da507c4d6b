package input

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/schollz/trackstudio/internal/model"
	"github.com/schollz/trackstudio/internal/types"
)

func handleEffectsInput(m *model.Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "-":
		m.AdjustParam(-1)
	case "right", "+", "=":
		m.AdjustParam(1)
	case "shift+left":
		m.AdjustParam(-10)
	case "shift+right":
		m.AdjustParam(10)
	case "enter":
		if m.CurrentRow < 0 || m.CurrentRow >= len(model.Params) || !model.Params[m.CurrentRow].Toggle {
			return nil
		}
		m.AdjustParam(1)
	case "0":
		m.Studio.Store().ResetSettings()
		m.SetStatus("Effects reset")
	case "w":
		m.BeginPrompt(model.PromptPresetName, "", "")
		return nil
	default:
		return nil
	}
	m.AutoSave()
	return nil
}

func handlePresetsInput(m *model.Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		p, ok := m.SelectedPreset()
		if !ok {
			return nil
		}
		if m.ReportError("Load preset", m.Studio.Store().LoadPreset(p.ID)) {
			return nil
		}
		m.SetStatus("Loaded preset %s", p.Name)
		m.AutoSave()
	case "w":
		m.BeginPrompt(model.PromptPresetName, "", "")
	}
	return nil
}

// splitPresetName reads an optional "Category/" prefix off a typed preset
// name. Unknown categories save as Custom.
func splitPresetName(value string) (string, types.PresetCategory) {
	cat, name, ok := strings.Cut(value, "/")
	if !ok {
		return value, types.CategoryCustom
	}
	return name, types.ParseCategory(strings.TrimSpace(cat))
}
