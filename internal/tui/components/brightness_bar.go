package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/bulby/internal/tui/styles"
)

const defaultBarWidth = 10

// RenderBrightnessBar renders a brightness percentage as a bar of width cells.
// Lights that are off render an empty track.
func RenderBrightnessBar(brightness int, on bool, width int) string {
	if width <= 0 {
		width = defaultBarWidth
	}
	if !on {
		return styles.StyleBrightnessBarEmpty.Render(strings.Repeat("─", width))
	}

	segments := (brightness * width) / 100
	if brightness > 0 && segments == 0 {
		segments = 1
	}

	var b strings.Builder
	for i := 1; i <= width; i++ {
		if i <= segments {
			color := segmentColor(i, width, brightness)
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render("█"))
		} else {
			b.WriteString(styles.StyleBrightnessBarEmpty.Render("─"))
		}
	}
	return b.String()
}

// segmentColor maps a segment of a bar of any width onto the 10-step gradient
func segmentColor(segment, total, brightness int) lipgloss.Color {
	mapped := (segment * 10) / total
	if mapped < 1 {
		mapped = 1
	}
	if mapped > 10 {
		mapped = 10
	}
	return styles.GetBrightnessColor(mapped, brightness)
}
