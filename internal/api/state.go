package api

import (
	"errors"
	"fmt"

	"github.com/angristan/bulby/internal/colorspace"
)

var errEmptyStateChange = errors.New("state change has no fields")

// StateChange is a set of light state fields to apply at once. Nil fields are
// left untouched.
type StateChange struct {
	On  *bool
	Bri *uint8
	Hue *uint16
	Sat *uint8
	XY  *colorspace.Point
}

// Validate checks the values against the ranges the bridge accepts
func (c StateChange) Validate() error {
	if c.Len() == 0 {
		return errEmptyStateChange
	}
	if c.Bri != nil && (*c.Bri < 1 || *c.Bri > 254) {
		return fmt.Errorf("brightness %d out of range 1-254", *c.Bri)
	}
	if c.Sat != nil && *c.Sat > 254 {
		return fmt.Errorf("saturation %d out of range 0-254", *c.Sat)
	}
	if c.XY != nil && (c.XY.X < 0 || c.XY.X > 1 || c.XY.Y < 0 || c.XY.Y > 1) {
		return fmt.Errorf("chromaticity %s outside the unit square", c.XY)
	}
	return nil
}

// Len returns the number of fields set
func (c StateChange) Len() int {
	n := 0
	if c.On != nil {
		n++
	}
	if c.Bri != nil {
		n++
	}
	if c.Hue != nil {
		n++
	}
	if c.Sat != nil {
		n++
	}
	if c.XY != nil {
		n++
	}
	return n
}

// Fields renders the change as the JSON object the bridge expects
func (c StateChange) Fields() map[string]any {
	fields := make(map[string]any, c.Len())
	if c.On != nil {
		fields["on"] = *c.On
	}
	if c.Bri != nil {
		fields["bri"] = *c.Bri
	}
	if c.Hue != nil {
		fields["hue"] = *c.Hue
	}
	if c.Sat != nil {
		fields["sat"] = *c.Sat
	}
	if c.XY != nil {
		fields["xy"] = [2]float64{c.XY.X, c.XY.Y}
	}
	return fields
}

// Bool returns a pointer to v, for building a StateChange
func Bool(v bool) *bool { return &v }

// Uint8 returns a pointer to v, for building a StateChange
func Uint8(v uint8) *uint8 { return &v }

// Uint16 returns a pointer to v, for building a StateChange
func Uint16(v uint16) *uint16 { return &v }
