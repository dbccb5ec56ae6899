package meshlevel

import "github.com/mastercactapus/plateloader/coord"

// ZOffsetter supplies a height for an X/Y position.
type ZOffsetter interface {
	OffsetZ(x, y float64) (bool, float64)
}

// FromPoints returns a mesh for points lowered by offset, or nil if
// points is empty. The points themselves are not modified.
func FromPoints(points []coord.Point, offset float64) (ZOffsetter, error) {
	if len(points) == 0 {
		return nil, nil
	}
	lowered := make([]coord.Point, len(points))
	for i, p := range points {
		p.Z -= offset
		lowered[i] = p
	}
	m, err := NewMesh(lowered)
	if err != nil {
		return nil, err
	}
	return m, nil
}
