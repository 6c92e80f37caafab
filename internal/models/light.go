package models

import (
	"strings"

	"github.com/angristan/bulby/internal/colorspace"
)

// Light represents a light known to the bridge
type Light struct {
	// Numeric identifier assigned by the bridge
	ID int
	// Globally unique device identifier (MAC-based)
	UniqueID string
	// User-friendly name
	Name string
	// Bridge-reported type, e.g. "Extended color light"
	Type string
	// Hardware model identifier
	ModelID string
	// Firmware version
	SoftwareVersion string
	// Last known state
	State LightState
}

// LightState is the controllable state of a light
type LightState struct {
	On bool
	// Brightness level (1-254)
	Bri uint8
	// Hue: 0-65535 (maps to 0-360 degrees)
	Hue uint16
	// Saturation: 0-254
	Sat uint8
	// Color temperature in Mirek
	CT uint16
	// CIE 1931 chromaticity
	XY colorspace.Point
	// Which of Hue/Sat, XY or CT the bridge considers authoritative
	ColorMode ColorMode
	// Whether the light is reachable on the network
	Reachable bool
}

// BrightnessPct returns the brightness as a percentage (0-100)
func (l *Light) BrightnessPct() int {
	return int(float64(l.State.Bri) / 254.0 * 100)
}

// IsColorLight reports whether the light can show colors rather than only
// shades of white. Without a type the color mode decides.
func (l *Light) IsColorLight() bool {
	switch strings.ToLower(l.Type) {
	case "extended color light", "color light":
		return true
	case "":
		return l.State.ColorMode == ColorModeHS || l.State.ColorMode == ColorModeXY
	default:
		return false
	}
}

// SwatchHex returns the color the light is currently showing as #rrggbb.
// Lights that are off render black.
func (l *Light) SwatchHex() string {
	if !l.State.On {
		return "#000000"
	}
	return l.State.Color().Hex()
}

// Clone creates a copy of the light
func (l *Light) Clone() *Light {
	clone := *l
	return &clone
}
