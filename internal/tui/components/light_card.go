package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/bulby/internal/models"
	"github.com/angristan/bulby/internal/tui/styles"
)

const (
	minNameWidth = 12
	maxNameWidth = 28
)

// RenderLightRow renders one light as a single line: id, status, name,
// brightness and a swatch of its current color. A width of 0 means unknown.
func RenderLightRow(light *models.Light, selected bool, width int) string {
	statusIcon := "○"
	statusStyle := styles.StyleStatusOff
	nameStyle := styles.StyleLightNameDim
	if light.State.On {
		statusIcon = "●"
		statusStyle = styles.StyleStatusOn
		nameStyle = styles.StyleLightName
	}

	// Width stays 0 until the first WindowSizeMsg
	nameWidth := maxNameWidth
	if width > 0 {
		nameWidth = min(max(width/3, minNameWidth), maxNameWidth)
	}

	name := nameStyle.Width(nameWidth).Render(truncate(light.Name, nameWidth))
	pct := light.BrightnessPct()
	bar := RenderBrightnessBar(pct, light.State.On, defaultBarWidth)

	line := fmt.Sprintf("%3d %s %s %s %3d%%  %s",
		light.ID, statusStyle.Render(statusIcon), name, bar, pct, RenderSwatch(light.SwatchHex()))

	if !light.State.Reachable {
		line += styles.StyleUnreachable.Render("  unreachable")
	}

	rowStyle := styles.StyleRow
	prefix := "  "
	if selected {
		rowStyle = styles.StyleRowSelected
		prefix = "▸ "
	}
	return rowStyle.Render(prefix + line)
}

// RenderSwatch renders a small block filled with hex followed by the hex text
func RenderSwatch(hex string) string {
	block := lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ")
	return block + " " + styles.StyleTextMuted.Render(hex)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
