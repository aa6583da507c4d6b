package views

import (
	"fmt"
	"strings"

	"github.com/schollz/trackstudio/internal/model"
)

const effectsHelp = "←/→:adjust enter:toggle 0:reset p:process l:layers"

func RenderEffectsView(m *model.Model) string {
	st := m.Studio.Store().State()
	right := "custom"
	if st.ActivePresetID != "" {
		if p, err := m.Studio.Catalog().Get(st.ActivePresetID); err == nil {
			right = p.Name
		}
	}
	if st.IsProcessing {
		right += " (processing)"
	}

	return renderViewWithCommonPattern(m, "Effects", right, func(styles *ViewStyles) string {
		var b strings.Builder
		b.WriteString("\n")
		group := ""
		for i, p := range model.Params {
			g := ""
			if p.Group != group {
				g = p.Group
				group = p.Group
			}
			value := fmt.Sprintf("%-10s", p.Format(p.Get(st.Settings)))
			if i == m.CurrentRow {
				value = styles.Selected.Render(value)
			} else {
				value = styles.Normal.Render(value)
			}
			b.WriteString(styles.Label.Render(fmt.Sprintf("  %-11s %-10s ", g, p.Label)))
			b.WriteString(value)
			b.WriteString("\n")
		}
		if st.ProcessedSource != "" {
			b.WriteString(styles.Active.Render("  rendered " + string(st.ProcessedSource)))
			b.WriteString("\n")
		}
		return b.String()
	}, effectsHelp, statusMessage(m), len(model.Params)+2)
}
