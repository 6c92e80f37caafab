package colorspace

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedHex is returned when a color is not exactly six hex digits.
var ErrMalformedHex = errors.New("malformed hex color")

// rgbToXYZ is the wide-gamut RGB to CIE XYZ matrix, one row per output axis.
var rgbToXYZ = [3][3]float64{
	{0.4360747, 0.3850649, 0.0930804},
	{0.2225045, 0.7168786, 0.0406169},
	{0.0139322, 0.0971045, 0.7141733},
}

// ParseHex decodes a "rrggbb" color, with or without a leading '#'.
func ParseHex(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("%w: %q must have 6 hex digits", ErrMalformedHex, s)
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %v", ErrMalformedHex, err)
	}
	return raw[0], raw[1], raw[2], nil
}

// HexToChromaticity returns the reproducible CIE 1931 point closest to the
// given "rrggbb" color.
func HexToChromaticity(s string) (Point, error) {
	r, g, b, err := ParseHex(s)
	if err != nil {
		return Point{}, err
	}
	return RGBToChromaticity(r, g, b), nil
}

// RGBToChromaticity converts 8-bit channels into a point inside HueGamut.
//
// Gamma correction is applied to the raw 0-255 channel values rather than to
// 0-1 fractions, so any non-zero channel saturates. Existing color fixtures
// depend on this behavior.
func RGBToChromaticity(r, g, b uint8) Point {
	lr := gammaCorrect(float64(r))
	lg := gammaCorrect(float64(g))
	lb := gammaCorrect(float64(b))

	X := lr*rgbToXYZ[0][0] + lg*rgbToXYZ[0][1] + lb*rgbToXYZ[0][2]
	Y := lr*rgbToXYZ[1][0] + lg*rgbToXYZ[1][1] + lb*rgbToXYZ[1][2]
	Z := lr*rgbToXYZ[2][0] + lg*rgbToXYZ[2][1] + lb*rgbToXYZ[2][2]

	var p Point
	if sum := X + Y + Z; sum != 0 {
		p = Point{X: X / sum, Y: Y / sum}
	}

	return HueGamut.Clamp(p)
}

// gammaCorrect applies the sRGB companding curve.
func gammaCorrect(value float64) float64 {
	if value > 0.04045 {
		return math.Pow((value+0.055)/1.055, 2.4)
	}
	return value / 12.92
}
