package coord

import "math"

// Epsilon is how far, in machine units, a point may sit outside a
// triangle edge and still count as inside it.
const Epsilon = 0.001

// Triangle is three measured points. Z is interpolated linearly across
// its X/Y projection.
type Triangle struct{ A, B, C Point }

// weights returns the barycentric weights of x,y. ok is false when the
// triangle has no area on X/Y.
func (t Triangle) weights(x, y float64) (wa, wb, wc float64, ok bool) {
	d := (t.B.Y-t.C.Y)*(t.A.X-t.C.X) + (t.C.X-t.B.X)*(t.A.Y-t.C.Y)
	if d == 0 {
		return 0, 0, 0, false
	}
	wa = ((t.B.Y-t.C.Y)*(x-t.C.X) + (t.C.X-t.B.X)*(y-t.C.Y)) / d
	wb = ((t.C.Y-t.A.Y)*(x-t.C.X) + (t.A.X-t.C.X)*(y-t.C.Y)) / d
	return wa, wb, 1 - wa - wb, true
}

// ContainsXY reports whether x,y is inside the triangle's X/Y projection
// or within Epsilon of one of its edges. Winding order does not matter.
func (t Triangle) ContainsXY(x, y float64) bool {
	wa, wb, wc, ok := t.weights(x, y)
	if !ok {
		return false
	}
	if wa >= 0 && wb >= 0 && wc >= 0 {
		return true
	}
	p := Point{X: x, Y: y}
	return segmentDistanceXY(t.A, t.B, p) <= Epsilon ||
		segmentDistanceXY(t.B, t.C, p) <= Epsilon ||
		segmentDistanceXY(t.C, t.A, p) <= Epsilon
}

// Z returns the height at x,y on the plane through the triangle, or NaN
// if the triangle has no area on X/Y.
func (t Triangle) Z(x, y float64) float64 {
	wa, wb, wc, ok := t.weights(x, y)
	if !ok {
		return math.NaN()
	}
	return wa*t.A.Z + wb*t.B.Z + wc*t.C.Z
}

func segmentDistanceXY(a, b, p Point) float64 {
	ab := Point{X: b.X - a.X, Y: b.Y - a.Y}
	l := ab.DotXY(ab)
	if l == 0 {
		return a.DistanceXY(p.X, p.Y)
	}
	u := p.Sub(a).DotXY(ab) / l
	u = math.Max(0, math.Min(1, u))
	return a.Add(ab.Mul(u)).DistanceXY(p.X, p.Y)
}
