// Package colorspace converts RGB colors into CIE 1931 chromaticity points
// that a Hue lamp can physically reproduce.
package colorspace

import (
	"fmt"
	"math"
)

// Point is a chromaticity coordinate in the CIE 1931 xy plane.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// String formats the point the way the bridge reports xy values.
func (p Point) String() string {
	return fmt.Sprintf("[%.4f, %.4f]", p.X, p.Y)
}

// CrossProduct returns the 2D cross product of two vectors.
func CrossProduct(p1, p2 Point) float64 {
	return float64(p1.X*p2.Y) - float64(p1.Y*p2.X)
}

// Distance returns the Euclidean distance between two points.
func Distance(p1, p2 Point) float64 {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	return math.Sqrt(float64(dx*dx) + float64(dy*dy))
}

// ClosestPointOnSegment projects p onto the segment ab. The projection is
// clamped to the segment's endpoints.
func ClosestPointOnSegment(a, b, p Point) Point {
	ap := p.Sub(a)
	ab := b.Sub(a)
	ab2 := float64(ab.X*ab.X) + float64(ab.Y*ab.Y)
	apab := float64(ap.X*ab.X) + float64(ap.Y*ab.Y)
	t := apab / ab2

	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	// The conversions keep the products unfused so results match on every GOARCH.
	return Point{X: a.X + float64(ab.X*t), Y: a.Y + float64(ab.Y*t)}
}
