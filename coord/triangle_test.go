package coord

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriangle_Z(t *testing.T) {
	tri := Triangle{
		A: Point{0, 0, 19},
		B: Point{10, 0, 19},
		C: Point{5, 5, 24},
	}

	assert.InDelta(t, 19, tri.Z(0, 0), 1e-9)
	assert.InDelta(t, 19, tri.Z(5, 0), 1e-9)
	assert.InDelta(t, 24, tri.Z(5, 5), 1e-9)
	assert.InDelta(t, 21.5, tri.Z(2.5, 2.5), 1e-9)

	flat := Triangle{A: Point{0, 0, 1}, B: Point{1, 1, 2}, C: Point{2, 2, 3}}
	assert.True(t, math.IsNaN(flat.Z(1, 1)))
}

func TestTriangle_ContainsXY(t *testing.T) {
	cw := Triangle{A: Point{0, 0, 0}, B: Point{0, 10, 0}, C: Point{10, 0, 0}}
	ccw := Triangle{A: Point{0, 0, 0}, B: Point{10, 0, 0}, C: Point{0, 10, 0}}

	for _, tri := range []Triangle{cw, ccw} {
		assert.True(t, tri.ContainsXY(2, 2))
		assert.True(t, tri.ContainsXY(5, 5), "on the hypotenuse")
		assert.True(t, tri.ContainsXY(5, -Epsilon/2), "just outside an edge")
		assert.False(t, tri.ContainsXY(6, 6))
		assert.False(t, tri.ContainsXY(-1, 5))
	}
}
