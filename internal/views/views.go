package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/schollz/trackstudio/internal/model"
	"github.com/schollz/trackstudio/internal/types"
)

// Common styles used across all views
type ViewStyles struct {
	Selected  lipgloss.Style
	Normal    lipgloss.Style
	Label     lipgloss.Style
	Container lipgloss.Style
	Playback  lipgloss.Style
	Muted     lipgloss.Style
	Failed    lipgloss.Style
	Active    lipgloss.Style
}

// getCommonStyles returns the standard style definitions used across views
func getCommonStyles() *ViewStyles {
	return &ViewStyles{
		Selected:  lipgloss.NewStyle().Background(lipgloss.Color("7")).Foreground(lipgloss.Color("0")),
		Normal:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Container: lipgloss.NewStyle().Padding(1, 2),
		Playback:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Failed:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Active:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// renderViewWithCommonPattern provides a common structure for rendering views
func renderViewWithCommonPattern(m *model.Model, leftHeader, rightHeader string, renderContent func(styles *ViewStyles) string, helpText string, statusMsg string, contentLines int) string {
	styles := getCommonStyles()

	var content strings.Builder
	content.WriteString(RenderHeader(m, leftHeader, rightHeader))
	content.WriteString(renderContent(styles))
	content.WriteString(RenderFooter(m, contentLines, helpText, statusMsg))

	return styles.Container.Render(content.String())
}

func getRecordingIndicator(m *model.Model) string {
	st, ok := m.Studio.RecordingStatus()
	if !ok {
		return ""
	}
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	switch st.State {
	case types.SessionRecording:
		return red.Render("● " + clock(st.ElapsedSeconds) + "/" + clock(st.MaxDurationSeconds))
	case types.SessionFinalizing:
		return red.Render("○ saving")
	}
	return ""
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

var levelGlyphs = []rune("▁▂▃▄▅▆▇█")

// RenderLevels draws a meter history as a row of block glyphs, newest on
// the right. Missing history is drawn at the floor.
func RenderLevels(width int, levels []float64) string {
	if width < 1 {
		width = 1
	}
	var b strings.Builder
	pad := width - len(levels)
	for i := 0; i < pad; i++ {
		b.WriteRune(levelGlyphs[0])
	}
	start := 0
	if pad < 0 {
		start = -pad
	}
	for _, v := range levels[start:] {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		b.WriteRune(levelGlyphs[int(v*float64(len(levelGlyphs)-1)+0.5)])
	}
	return b.String()
}

// RenderHeader renders the level meter and the header line used by all views
func RenderHeader(m *model.Model, leftContent, rightContent string) string {
	var content strings.Builder

	meterWidth := m.TermWidth - 4 // account for container padding
	if meterWidth > types.LevelHistorySize*2 {
		meterWidth = types.LevelHistorySize * 2
	}
	levels := m.LevelBuf
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	if m.Studio.IsRecording() {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
	// each sample is two cells wide so twenty readings fill the row
	doubled := make([]float64, 0, len(levels)*2)
	for _, v := range levels {
		doubled = append(doubled, v, v)
	}
	content.WriteString(style.Render(RenderLevels(meterWidth, doubled)))
	if n := len(levels); n > 0 {
		content.WriteString(style.Render(fmt.Sprintf(" %3.0f%%", levels[n-1]*100)))
	}
	content.WriteString("\n")

	recordingIndicator := getRecordingIndicator(m)

	availableWidth := m.TermWidth - 4
	leftLen := lipgloss.Width(leftContent)
	rightLen := lipgloss.Width(rightContent)
	indicatorLen := 0
	if recordingIndicator != "" {
		indicatorLen = 1 + lipgloss.Width(recordingIndicator)
	}

	paddingSize := availableWidth - leftLen - rightLen - indicatorLen
	if paddingSize < 1 {
		paddingSize = 1
	}

	fullHeader := leftContent
	if rightContent != "" {
		fullHeader += strings.Repeat(" ", paddingSize) + rightContent
	}
	if recordingIndicator != "" {
		fullHeader += " " + recordingIndicator
	}

	content.WriteString(fullHeader)
	content.WriteString("\n")

	return content.String()
}

// RenderNavigationLines renders the 3-line navigation block:
//
//	master gain and transport
//	L-E-P        ← current view highlighted + help text
//	prompt, when the text input is open
func RenderNavigationLines(m *model.Model, helpText string) string {
	highlightStyle := lipgloss.NewStyle().Background(lipgloss.Color("7")).Foreground(lipgloss.Color("0"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	transport := "■ stopped"
	if m.Studio.IsPlaying() {
		transport = getCommonStyles().Playback.Render("▶ playing")
	}
	line1 := dimStyle.Render(fmt.Sprintf("master %3.0f%%  ", m.Studio.MasterVolume()*100)) + transport

	line2 := buildNavigationChain(m, highlightStyle, dimStyle, helpText)

	line3 := ""
	if m.Prompt != model.PromptNone {
		line3 = m.TextInput.View()
	}

	return line1 + "\n" + line2 + "\n" + line3
}

// buildNavigationChain builds the main navigation chain line ("L-E-P")
func buildNavigationChain(m *model.Model, highlightStyle, dimStyle lipgloss.Style, helpText string) string {
	var chain string
	switch m.ViewMode {
	case types.LayersView:
		chain = highlightStyle.Render("L") + dimStyle.Render("-E-P")
	case types.EffectsView:
		chain = dimStyle.Render("L-") + highlightStyle.Render("E") + dimStyle.Render("-P")
	case types.PresetsView:
		chain = dimStyle.Render("L-E-") + highlightStyle.Render("P")
	default:
		chain = highlightStyle.Render("?")
	}

	if helpText != "" {
		chainWidth := lipgloss.Width(chain)
		paddingNeeded := 14 - chainWidth
		if paddingNeeded < 1 {
			paddingNeeded = 1
		}
		return chain + strings.Repeat(" ", paddingNeeded) + helpText
	}

	return chain
}

// RenderFooter handles the common pattern of filling remaining space and adding navigation + status
func RenderFooter(m *model.Model, contentLines int, helpText string, statusMsg string) string {
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	var content strings.Builder

	navLines := 3
	statusLines := 0
	if statusMsg != "" {
		statusLines = 1
	}
	footerLines := navLines + statusLines

	// Account for container padding (4), the header (2) and footer lines
	maxContentLines := m.TermHeight - 4 - 2 - footerLines
	if m.TermHeight > 0 && contentLines < maxContentLines {
		for i := contentLines; i < maxContentLines; i++ {
			content.WriteString("\n")
		}
	}

	content.WriteString(RenderNavigationLines(m, helpText))

	if statusMsg != "" {
		content.WriteString("\n")
		content.WriteString(statusStyle.Render(statusMsg))
	}

	return content.String()
}

// statusMessage prefers the console's own message, then the studio's last
// background failure.
func statusMessage(m *model.Model) string {
	if m.StatusMsg != "" {
		return m.StatusMsg
	}
	if err := m.Studio.LastError(); err != nil {
		return err.Error()
	}
	return ""
}

// percentBar draws v in [0, 1] as a bar of width cells.
func percentBar(v float64, width int) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(v*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("·", width-filled)
}
