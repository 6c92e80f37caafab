package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette - lavender theme
var (
	ColorPrimary    = lipgloss.Color("#B794F4") // Lavender
	ColorAccent     = lipgloss.Color("#E9D8FD") // Light lavender
	ColorSurface    = lipgloss.Color("#2D2D44") // Surface color
	ColorSurfaceAlt = lipgloss.Color("#3D3D5C") // Alternate surface

	// Text colors
	ColorText        = lipgloss.Color("#FAFAFA")
	ColorTextMuted   = lipgloss.Color("#A0A0B0")
	ColorTextDim     = lipgloss.Color("#6B6B80")
	ColorTextInverse = lipgloss.Color("#1A1A2E")

	// State colors
	ColorSuccess = lipgloss.Color("#68D391") // Green
	ColorWarning = lipgloss.Color("#F6E05E") // Yellow
	ColorError   = lipgloss.Color("#FC8181") // Red

	// Light states
	ColorLightOn  = lipgloss.Color("#FBBF24") // Warm yellow for on
	ColorLightOff = lipgloss.Color("#4A4A5A") // Gray for off

	// Brightness bar colors (gradient from dim to bright)
	brightnessGradient = [10]lipgloss.Color{
		"#3D3D5C", "#4A4A6A", "#5A5A7A", "#6A6A8A", "#7A7A9A",
		"#8A8AAA", "#9A9ABA", "#AAAACA", "#BABADA", "#FBBF24",
	}
)

// Styles for various UI components
var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 1)

	StyleHeaderBar = lipgloss.NewStyle().
			Background(ColorSurface)

	StyleRow = lipgloss.NewStyle().
			Foreground(ColorText).
			PaddingLeft(1)

	StyleRowSelected = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Background(ColorSurface).
				Bold(true).
				PaddingLeft(1)

	StyleLightName = lipgloss.NewStyle().
			Foreground(ColorText)

	StyleLightNameDim = lipgloss.NewStyle().
				Foreground(ColorTextMuted)

	// Status indicators
	StyleStatusOn = lipgloss.NewStyle().
			Foreground(ColorLightOn).
			Bold(true)

	StyleStatusOff = lipgloss.NewStyle().
			Foreground(ColorLightOff)

	StyleUnreachable = lipgloss.NewStyle().
				Foreground(ColorWarning)

	StyleBrightnessBarEmpty = lipgloss.NewStyle().
				Foreground(ColorSurfaceAlt)

	StylePrompt = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	StyleHelpKey = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	StyleSpinner = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleTextMuted = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// GetBrightnessColor returns the color for segment 1-10 of a brightness bar
func GetBrightnessColor(segment int, brightness int) lipgloss.Color {
	if segment < 1 || segment > len(brightnessGradient) || brightness < segment*10 {
		return ColorSurfaceAlt
	}
	return brightnessGradient[segment-1]
}
