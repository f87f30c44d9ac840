package nodeview

import (
	"fmt"
	"strings"

	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/widget"
)

// Markdown describes v as a markdown document for terminal inspection.
func Markdown(v View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.Label)
	fmt.Fprintf(&b, "`%s` · type `%s`", v.ID, v.Type)
	if v.Advanced {
		b.WriteString(" · advanced")
	}
	b.WriteString("\n\n")

	for _, d := range v.Diagnostics {
		fmt.Fprintf(&b, "> **warning:** %s\n\n", d)
	}

	if len(v.Widgets) > 0 {
		b.WriteString("## Parameters\n\n| Name | Widget | Value |\n|---|---|---|\n")
		for _, w := range v.Widgets {
			writeWidgetRow(&b, w)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Handles\n\n")
	fmt.Fprintf(&b, "- in: `%s`\n", v.InputHandle)
	for _, h := range v.Outputs {
		fmt.Fprintf(&b, "- out: `%s` (%s)\n", h.ID, h.Label)
	}
	return b.String()
}

func writeWidgetRow(b *strings.Builder, w *widget.Widget) {
	fmt.Fprintf(b, "| %s | %s | %s |\n", w.Label, w.Kind, cell(valueText(w.Value)))
	for _, s := range w.Slots {
		fmt.Fprintf(b, "| %s | %s | %s |\n", s.Label, s.Kind, cell(valueText(s.Value)))
	}
}

func valueText(v models.Value) string {
	if v.IsList() {
		return strings.Join(v.Items(), ", ")
	}
	return v.String()
}

func cell(s string) string {
	if s == "" {
		return "_empty_"
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
