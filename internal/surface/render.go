package surface

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// Render produces the styled ANSI form of the buffer.
func (b *Buffer) Render() string {
	return b.RenderWithZones(nil)
}

// RenderWithZones renders like Render but additionally marks link runs as
// bubblezone zones (zone ID = the navigable URL) so a mouse-aware host can
// hit-test clicks.
func (b *Buffer) RenderWithZones(zones *zone.Manager) string {
	var sb strings.Builder
	for _, run := range b.Runs() {
		text := b.text[run.Start:run.End]
		sb.WriteString(renderRun(text, run.Attr, zones))
	}
	return sb.String()
}

// renderRun styles one attribute run. Newlines split the run so background
// colors never paint across line breaks.
func renderRun(text string, a Attr, zones *zone.Manager) string {
	style := a.style()
	parts := strings.Split(text, "\n")
	for i, part := range parts {
		if part == "" {
			continue
		}
		rendered := style.Render(part)
		if a.Link != "" && zones != nil {
			rendered = zones.Mark(a.Link, rendered)
		}
		parts[i] = rendered
	}
	return strings.Join(parts, "\n")
}

func (a Attr) style() lipgloss.Style {
	style := lipgloss.NewStyle()
	if a.Foreground != "" {
		style = style.Foreground(a.Foreground.Lipgloss())
	}
	if a.Background != "" {
		style = style.Background(a.Background.Lipgloss())
	}
	if a.Bold {
		style = style.Bold(true)
	}
	if a.Italic {
		style = style.Italic(true)
	}
	if a.Underline {
		style = style.Underline(true)
	}
	if a.Strikethrough {
		style = style.Strikethrough(true)
	}
	return style
}
