package models

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorMode is the bridge's "colormode" value
type ColorMode string

const (
	ColorModeNone ColorMode = ""
	ColorModeHS   ColorMode = "hs"
	ColorModeXY   ColorMode = "xy"
	ColorModeCT   ColorMode = "ct"
)

// ParseColorMode maps a bridge colormode string, unknown values map to ColorModeNone
func ParseColorMode(s string) ColorMode {
	switch m := ColorMode(s); m {
	case ColorModeHS, ColorModeXY, ColorModeCT:
		return m
	default:
		return ColorModeNone
	}
}

// Color returns an sRGB approximation of the state for display purposes.
// Brightness scales the result, the on/off flag is ignored.
func (s LightState) Color() colorful.Color {
	brightness := float64(s.Bri) / 254.0

	switch s.ColorMode {
	case ColorModeHS:
		h := float64(s.Hue) / 65535.0 * 360.0
		return colorful.Hsv(math.Mod(h, 360), float64(s.Sat)/254.0, brightness)
	case ColorModeXY:
		return colorful.Xyy(s.XY.X, s.XY.Y, brightness).Clamped()
	case ColorModeCT:
		if s.CT == 0 {
			break
		}
		return mirekToColor(s.CT, brightness)
	}

	// White lights
	return colorful.Color{R: brightness, G: brightness, B: brightness}
}

// mirekToColor converts color temperature in Mirek to RGB
// Mirek range: 153 (cool/6500K) to 500 (warm/2000K)
func mirekToColor(mirek uint16, brightness float64) colorful.Color {
	// Convert Mirek to Kelvin: K = 1,000,000 / Mirek
	kelvin := 1000000.0 / float64(mirek)

	// Algorithm based on Tanner Helland's work
	// http://www.tannerhelland.com/4435/convert-temperature-rgb-algorithm-code/
	temp := kelvin / 100.0

	var rf, gf, bf float64

	// Red
	if temp <= 66 {
		rf = 255
	} else {
		rf = clampFloat(329.698727446*math.Pow(temp-60, -0.1332047592), 0, 255)
	}

	// Green
	if temp <= 66 {
		gf = clampFloat(99.4708025861*math.Log(temp)-161.1195681661, 0, 255)
	} else {
		gf = clampFloat(288.1221695283*math.Pow(temp-60, -0.0755148492), 0, 255)
	}

	// Blue
	switch {
	case temp >= 66:
		bf = 255
	case temp <= 19:
		bf = 0
	default:
		bf = clampFloat(138.5177312231*math.Log(temp-10)-305.0447927307, 0, 255)
	}

	return colorful.Color{
		R: rf / 255 * brightness,
		G: gf / 255 * brightness,
		B: bf / 255 * brightness,
	}
}

// clampFloat clamps a float64 to a range
func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
