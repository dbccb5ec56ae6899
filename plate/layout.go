package plate

import (
	"github.com/mastercactapus/plateloader/coord"
	"github.com/mastercactapus/plateloader/meshlevel"
)

// Layout combines a calibrated frame with the head's engagement height.
type Layout struct {
	*Frame

	// Engage is the Z height used when Surface has no value for a well.
	Engage float64

	// Surface optionally supplies a measured engagement height per X/Y.
	Surface meshlevel.ZOffsetter
}

// WellPosition returns the full machine position the head is lowered to
// for well i.
func (l Layout) WellPosition(i Well) (coord.Point, error) {
	p, err := l.WellCoordinate(i)
	if err != nil {
		return p, err
	}
	p.Z = l.Engage
	if l.Surface != nil {
		if ok, z := l.Surface.OffsetZ(p.X, p.Y); ok {
			p.Z = z
		}
	}
	return p, nil
}
