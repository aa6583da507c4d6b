package main

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/schollz/trackstudio/internal/input"
	"github.com/schollz/trackstudio/internal/model"
	"github.com/schollz/trackstudio/internal/types"
	"github.com/schollz/trackstudio/internal/views"
)

// StudioModel wraps the model and implements the tea.Model interface
type StudioModel struct {
	model *model.Model
}

func newStudioModel(m *model.Model) *StudioModel {
	return &StudioModel{model: m}
}

// UITickMsg fires at a steady rate to pull the meter and redraw.
type UITickMsg struct{}

// tickUI schedules the next UITickMsg at the requested fps.
func tickUI(fps int) tea.Cmd {
	if fps <= 0 {
		fps = 30
	}
	interval := time.Second / time.Duration(fps)
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return UITickMsg{}
	})
}

func (sm *StudioModel) Init() tea.Cmd {
	return tea.Batch(tickUI(20), textinput.Blink)
}

func (sm *StudioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		sm.model.TermHeight = msg.Height
		sm.model.TermWidth = msg.Width
		return sm, nil

	case UITickMsg:
		sm.model.RefreshLevels()
		sm.model.ClampRow()
		return sm, tickUI(20)

	case input.ProcessedMsg:
		input.HandleProcessed(sm.model, msg)
		return sm, nil

	case tea.KeyMsg:
		return sm, input.HandleKeyInput(sm.model, msg)
	}

	return sm, nil
}

func (sm *StudioModel) View() string {
	switch sm.model.ViewMode {
	case types.EffectsView:
		return views.RenderEffectsView(sm.model)
	case types.PresetsView:
		return views.RenderPresetsView(sm.model)
	default:
		return views.RenderLayersView(sm.model)
	}
}
