package plate

import (
	"math"
	"testing"

	"github.com/mastercactapus/plateloader/coord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPoint(t *testing.T, expected, actual coord.Point) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, 1e-9, "X")
	assert.InDelta(t, expected.Y, actual.Y, 1e-9, "Y")
	assert.InDelta(t, expected.Z, actual.Z, 1e-9, "Z")
}

func TestNewFrame_Aligned(t *testing.T) {
	first := coord.Point{X: -49.25, Y: 31}
	last := first.Add(NominalMajor.Mul(11)).Add(NominalMinor.Mul(7))

	f, err := NewFrame(first, last, NominalMajor, NominalMinor)
	require.NoError(t, err)
	assert.Nil(t, f.Warning())

	cos, sin := f.Rotation()
	assert.InDelta(t, 1, cos, 1e-12)
	assert.InDelta(t, 0, sin, 1e-12)

	major, minor := f.Basis()
	assertPoint(t, NominalMajor, major)
	assertPoint(t, NominalMinor, minor)

	p, err := f.WellCoordinate(95)
	require.NoError(t, err)
	assertPoint(t, last, p)
}

func TestNewFrame_Rotated(t *testing.T) {
	angle := 2 * math.Pi / 180
	first := coord.Point{X: 10, Y: 20}
	nominal := NominalMajor.Mul(11).Add(NominalMinor.Mul(7))
	last := first.Add(nominal.RotateXY(math.Cos(angle), math.Sin(angle)))

	f, err := NewFrame(first, last, NominalMajor, NominalMinor)
	require.NoError(t, err)
	assert.Nil(t, f.Warning())

	cos, sin := f.Rotation()
	assert.InDelta(t, math.Cos(angle), cos, 1e-9)
	assert.InDelta(t, math.Sin(angle), sin, 1e-9)

	major, minor := f.Basis()
	for i := 0; i < Count; i++ {
		w := Well(i)
		p, err := f.WellCoordinate(w)
		require.NoError(t, err)
		expected := first.
			Add(minor.Mul(float64(i / 12))).
			Add(major.Mul(float64(i % 12)))
		assertPoint(t, expected, p)
	}

	p, err := f.WellCoordinate(95)
	require.NoError(t, err)
	assertPoint(t, last, p)
}

func TestFrame_WellCoordinate_OutOfRange(t *testing.T) {
	f, err := NewFrame(coord.Point{}, coord.Point{X: 100, Y: -63.63}, NominalMajor, NominalMinor)
	require.NoError(t, err)

	for _, i := range []Well{-1, 96, 1000} {
		_, err := f.WellCoordinate(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
}

func TestNewFrame_Warning(t *testing.T) {
	// diagonal is ~3.5% longer than nominal
	first := coord.Point{X: -49.25, Y: 31}
	last := coord.Point{X: 50.75, Y: -40}

	f, err := NewFrame(first, last, NominalMajor, NominalMinor)
	require.NoError(t, err)
	require.NotNil(t, f.Warning())
	assert.InDelta(t, 9.09*math.Sqrt(170), f.Warning().Nominal, 1e-9)
	assert.Contains(t, f.Warning().Error(), "check coordinates")

	wells := f.Wells()
	assert.Len(t, wells, Count)
	for i := 0; i < Count; i++ {
		p, err := f.WellCoordinate(Well(i))
		assert.NoError(t, err)
		assert.Equal(t, wells[i], p)
	}
	assertPoint(t, first, wells[0])
}

func TestNewFrame_Degenerate(t *testing.T) {
	_, err := NewFrame(coord.Point{X: 1}, coord.Point{X: 1}, NominalMajor, NominalMinor)
	assert.Error(t, err)
}

type flatSurface float64

func (s flatSurface) OffsetZ(x, y float64) (bool, float64) {
	if x < 0 {
		return false, 0
	}
	return true, float64(s)
}

func TestLayout_WellPosition(t *testing.T) {
	first := coord.Point{X: -5}
	f, err := NewFrame(first, first.Add(NominalMajor.Mul(11)).Add(NominalMinor.Mul(7)), NominalMajor, NominalMinor)
	require.NoError(t, err)

	l := Layout{Frame: f, Engage: 19}
	p, err := l.WellPosition(0)
	require.NoError(t, err)
	assert.Equal(t, 19.0, p.Z)

	l.Surface = flatSurface(17.5)
	p, err = l.WellPosition(0)
	require.NoError(t, err)
	assert.Equal(t, 19.0, p.Z, "outside surface falls back")

	p, err = l.WellPosition(1)
	require.NoError(t, err)
	assert.Equal(t, 17.5, p.Z)

	_, err = l.WellPosition(96)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}
