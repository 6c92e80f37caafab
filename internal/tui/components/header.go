package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/bulby/internal/tui/styles"
)

// RenderHeader renders the title bar with the bridge status on the right
func RenderHeader(width int, status string) string {
	statusStyle := lipgloss.NewStyle().
		Foreground(styles.ColorSuccess).
		Padding(0, 1)

	if status == "" {
		status = "Disconnected"
		statusStyle = statusStyle.Foreground(styles.ColorError)
	}

	left := styles.StyleTitle.Render(" bulby ")
	right := statusStyle.Render(status)

	spacing := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 0 {
		spacing = 0
	}

	return styles.StyleHeaderBar.Width(width).Render(left + strings.Repeat(" ", spacing) + right)
}
