package colorspace

// Gamut is the triangle of colors a class of lamps can reproduce.
type Gamut struct {
	Red, Lime, Blue Point
}

// HueGamut is the reachable region of first-generation Hue bulbs (gamut B).
var HueGamut = Gamut{
	Red:  Point{X: 0.675, Y: 0.322},
	Lime: Point{X: 0.4091, Y: 0.518},
	Blue: Point{X: 0.167, Y: 0.04},
}

// edgeTolerance absorbs rounding in the barycentric coordinates so that a
// point projected onto an edge still counts as reproducible.
const edgeTolerance = 1e-9

// Contains reports whether p lies inside the triangle or on its boundary.
func (g Gamut) Contains(p Point) bool {
	v1 := g.Lime.Sub(g.Red)
	v2 := g.Blue.Sub(g.Red)
	q := p.Sub(g.Red)

	s := CrossProduct(q, v2) / CrossProduct(v1, v2)
	t := CrossProduct(v1, q) / CrossProduct(v1, v2)

	return s >= -edgeTolerance && t >= -edgeTolerance && s+t <= 1+edgeTolerance
}

// Closest returns the point on the triangle's edges nearest to p.
// Edges are tried as Red-Lime, Blue-Red, Lime-Blue; on a tie the earlier edge wins.
func (g Gamut) Closest(p Point) Point {
	candidates := [3]Point{
		ClosestPointOnSegment(g.Red, g.Lime, p),
		ClosestPointOnSegment(g.Blue, g.Red, p),
		ClosestPointOnSegment(g.Lime, g.Blue, p),
	}

	closest := candidates[0]
	lowest := Distance(p, closest)
	for _, c := range candidates[1:] {
		if d := Distance(p, c); d < lowest {
			lowest = d
			closest = c
		}
	}
	return closest
}

// Clamp returns p unchanged when it is reproducible, otherwise the nearest
// reproducible point.
func (g Gamut) Clamp(p Point) Point {
	if g.Contains(p) {
		return p
	}
	return g.Closest(p)
}

// InGamut reports whether a Hue lamp can reproduce p.
func InGamut(p Point) bool {
	return HueGamut.Contains(p)
}

// ClosestGamutPoint returns the reproducible point nearest to p.
func ClosestGamutPoint(p Point) Point {
	return HueGamut.Closest(p)
}
