package coord

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint_Add(t *testing.T) {
	a := Point{X: 1, Y: 2, Z: 3}
	b := Point{X: 4, Y: 5, Z: 6}

	assert.Equal(t, Point{X: 5, Y: 7, Z: 9}, a.Add(b))
}

func TestPoint_DistanceXY(t *testing.T) {
	dist := Point{X: 1, Y: 2, Z: 3}.DistanceXY(4, 5)
	assert.InEpsilon(t, 4.24264, dist, .01)
}

func TestPoint_CrossXY(t *testing.T) {
	x := Point{X: 1}
	y := Point{Y: 1}

	assert.Equal(t, 1.0, x.CrossXY(y))
	assert.Equal(t, -1.0, y.CrossXY(x))
	assert.Equal(t, x.Cross(y).Z, x.CrossXY(y))
}

func TestPoint_RotateXY(t *testing.T) {
	p := Point{X: 2, Y: 0, Z: 7}

	// quarter turn counter-clockwise
	r := p.RotateXY(0, 1)
	assert.InDelta(t, 0, r.X, 1e-9)
	assert.InDelta(t, 2, r.Y, 1e-9)
	assert.Equal(t, 7.0, r.Z)

	r = p.RotateXY(math.Cos(math.Pi/4), math.Sin(math.Pi/4))
	assert.InDelta(t, math.Sqrt2, r.X, 1e-9)
	assert.InDelta(t, math.Sqrt2, r.Y, 1e-9)
	assert.InDelta(t, p.NormXY(), r.NormXY(), 1e-9)
}
