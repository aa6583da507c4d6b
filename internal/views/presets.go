package views

import (
	"fmt"
	"strings"

	"github.com/schollz/trackstudio/internal/model"
)

const presetsHelp = "enter:load w:save as l:layers"

func RenderPresetsView(m *model.Model) string {
	list := m.Studio.Catalog().List()
	activeID := m.Studio.Store().ActivePresetID()

	return renderViewWithCommonPattern(m, "Presets", fmt.Sprintf("%d presets", len(list)), func(styles *ViewStyles) string {
		var b strings.Builder
		b.WriteString("\n")
		b.WriteString(styles.Label.Render(fmt.Sprintf("  %-22s %-11s %s", "NAME", "CATEGORY", "")))
		b.WriteString("\n")
		for i, p := range list {
			marker := "  "
			if p.ID == activeID {
				marker = styles.Playback.Render("◆ ")
			}
			name := fmt.Sprintf("%-22s", truncate(p.Name, 22))
			if i == m.CurrentRow {
				name = styles.Selected.Render(name)
			} else {
				name = styles.Normal.Render(name)
			}
			var tags []string
			if p.IsDefault {
				tags = append(tags, "default")
			}
			if !p.BuiltIn {
				tags = append(tags, "custom")
			}
			b.WriteString(marker + name + " " + styles.Label.Render(fmt.Sprintf("%-11s %s", p.Category, strings.Join(tags, " "))))
			b.WriteString("\n")
		}
		return b.String()
	}, presetsHelp, statusMessage(m), len(list)+2)
}
