package plate

import (
	"errors"
	"fmt"
	"math"

	"github.com/mastercactapus/plateloader/coord"
)

// Tolerance is the allowed relative deviation between the measured
// and nominal diagonal lengths before a calibration warning is raised.
const Tolerance = 0.01

// Nominal 96-well spacing used when no basis is configured.
var (
	NominalMajor = coord.Point{X: 9.09}
	NominalMinor = coord.Point{Y: -9.09}
)

// CalibrationWarning is reported when the measured diagonal does not
// match the nominal plate size. It is not fatal.
type CalibrationWarning struct {
	Measured float64
	Nominal  float64
}

func (w *CalibrationWarning) Error() string {
	return fmt.Sprintf("check coordinates: diagonal should be %.3f but is %.3f", w.Nominal, w.Measured)
}

// Frame is an immutable calibrated plate grid.
type Frame struct {
	first, last  coord.Point
	major, minor coord.Point
	cos, sin     float64

	warning *CalibrationWarning
}

// NewFrame calibrates a grid from the measured machine coordinates of the
// first (A1) and last (H12) wells and the nominal column (major) and row
// (minor) step vectors.
//
// The effective basis is the nominal basis rotated so that the nominal
// diagonal lines up with the measured one.
func NewFrame(first, last, nominalMajor, nominalMinor coord.Point) (*Frame, error) {
	measured := last.Sub(first)
	nominal := nominalMajor.Mul(Columns - 1).Add(nominalMinor.Mul(Rows - 1))

	l := measured.NormXY()
	nominalDist := nominal.NormXY()
	if l == 0 || nominalDist == 0 {
		return nil, errors.New("degenerate calibration: zero-length diagonal")
	}

	f := &Frame{
		first: first,
		last:  last,
		cos:   nominal.DotXY(measured) / (l * nominalDist),
		sin:   nominal.CrossXY(measured) / (l * nominalDist),
	}
	f.major = nominalMajor.RotateXY(f.cos, f.sin)
	f.minor = nominalMinor.RotateXY(f.cos, f.sin)

	if math.Abs(1-l/nominalDist) > Tolerance {
		f.warning = &CalibrationWarning{Measured: l, Nominal: nominalDist}
	}

	return f, nil
}

// Warning returns the calibration warning, or nil if the measured
// diagonal is within tolerance.
func (f *Frame) Warning() *CalibrationWarning { return f.warning }

// Rotation returns the cosine and sine of the calibration rotation.
func (f *Frame) Rotation() (cos, sin float64) { return f.cos, f.sin }

// Basis returns the effective (rotated) column and row step vectors.
func (f *Frame) Basis() (major, minor coord.Point) { return f.major, f.minor }

// WellCoordinate returns the machine X/Y of well i.
func (f *Frame) WellCoordinate(i Well) (coord.Point, error) {
	if err := i.Check(); err != nil {
		return coord.Point{}, err
	}

	return f.first.
		Add(f.minor.Mul(float64(i.Row()))).
		Add(f.major.Mul(float64(i.Column()))), nil
}

// Wells returns the coordinates of every well in index order.
func (f *Frame) Wells() []coord.Point {
	res := make([]coord.Point, Count)
	for i := range res {
		res[i], _ = f.WellCoordinate(Well(i))
	}
	return res
}
