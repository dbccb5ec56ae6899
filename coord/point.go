package coord

import (
	"math"
)

// Point is a machine coordinate. Calibration math only uses X and Y;
// Z carries heights.
type Point struct{ X, Y, Z float64 }

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y && p.Z == b.Z
}
func (p Point) Cross(op Point) Point {
	return Point{
		p.Y*op.Z - p.Z*op.Y,
		p.Z*op.X - p.X*op.Z,
		p.X*op.Y - p.Y*op.X,
	}
}
func (p Point) Dot(op Point) float64 {
	return p.X*op.X + p.Y*op.Y + p.Z*op.Z
}

// CrossXY is the Z component of the cross product of the 2D projections.
func (p Point) CrossXY(op Point) float64 {
	return p.X*op.Y - p.Y*op.X
}

// DotXY is the dot product of the 2D projections.
func (p Point) DotXY(op Point) float64 {
	return p.X*op.X + p.Y*op.Y
}

// NormXY is the length of the 2D projection.
func (p Point) NormXY() float64 {
	return math.Hypot(p.X, p.Y)
}

// RotateXY rotates the 2D projection by the angle given as its
// cosine and sine. Z is left alone.
func (p Point) RotateXY(cos, sin float64) Point {
	return Point{
		X: cos*p.X - sin*p.Y,
		Y: sin*p.X + cos*p.Y,
		Z: p.Z,
	}
}

func (p Point) Mul(val float64) Point {
	p.X *= val
	p.Y *= val
	p.Z *= val
	return p
}

func (p Point) Div(val float64) Point {
	p.X /= val
	p.Y /= val
	p.Z /= val
	return p
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

// DistanceXY will return the 2D distance to p from (x,y).
func (p Point) DistanceXY(x, y float64) float64 {
	return math.Sqrt(math.Pow(x-p.X, 2) + math.Pow(y-p.Y, 2))
}
