package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/schollz/trackstudio/internal/model"
	"github.com/schollz/trackstudio/internal/types"
)

const layersHelp = "r:rec space:play s:stop -/+:vol m:mute n:name d:del [/]:master x:fx"

func RenderLayersView(m *model.Model) string {
	layers := m.Studio.Layers()
	active := make(map[string]bool)
	for _, id := range m.Studio.Engine().Active() {
		active[id] = true
	}
	palette := m.Studio.Registry().PaletteSize()

	right := fmt.Sprintf("%d layers", len(layers))
	contentLines := 2 + len(layers)
	if len(layers) == 0 {
		contentLines = 3
	}

	return renderViewWithCommonPattern(m, "Layers", right, func(styles *ViewStyles) string {
		var b strings.Builder
		b.WriteString("\n")
		b.WriteString(styles.Label.Render(fmt.Sprintf("  %-18s %-16s %-5s %s", "NAME", "VOLUME", "", "STATE")))
		b.WriteString("\n")
		if len(layers) == 0 {
			b.WriteString(styles.Label.Render("  no layers yet, press r to record"))
			b.WriteString("\n")
			return b.String()
		}
		for i, l := range layers {
			swatch := lipgloss.NewStyle().Foreground(LayerColor(l.ColorTag, palette)).Render("■")
			name := fmt.Sprintf("%-18s", truncate(l.DisplayName, 18))
			if i == m.CurrentRow {
				name = styles.Selected.Render(name)
			} else {
				name = styles.Normal.Render(name)
			}
			vol := fmt.Sprintf("%s %3.0f%%", percentBar(l.Volume, 10), l.Volume*100)
			mute := "     "
			if l.Muted {
				mute = styles.Muted.Render(" mute")
			}
			state := styles.Label.Render(l.LoadState.String())
			switch {
			case active[l.ID]:
				state = styles.Playback.Render("▶ playing")
			case l.LoadState == types.LoadFailed:
				state = styles.Failed.Render("load failed")
			}
			b.WriteString(fmt.Sprintf("%s %s %s %s %s\n", swatch, name, vol, mute, state))
		}
		return b.String()
	}, layersHelp, statusMessage(m), contentLines)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
