package gcode

// ModalGroup is the set of mutually exclusive codes a word belongs to.
type ModalGroup byte

// Modal groups of the codes the motion controller accepts.
const (
	ModalGroupNone ModalGroup = iota
	ModalGroupNonModal
	ModalGroupMotion
	ModalGroupDistanceMode
	ModalGroupFeedRateMode
	ModalGroupUnits
	ModalGroupCoordinateSystem
	ModalGroupFeedRate
)

// codes lists every G and M code the motion controller accepts.
var codes = map[Word]ModalGroup{
	{W: 'G', Arg: 0}:  ModalGroupMotion,
	{W: 'G', Arg: 1}:  ModalGroupMotion,
	{W: 'G', Arg: 4}:  ModalGroupNonModal,
	{W: 'G', Arg: 28}: ModalGroupNonModal,
	{W: 'G', Arg: 53}: ModalGroupNonModal,
	{W: 'G', Arg: 54}: ModalGroupCoordinateSystem,
	{W: 'G', Arg: 90}: ModalGroupDistanceMode,
	{W: 'G', Arg: 91}: ModalGroupDistanceMode,
	{W: 'G', Arg: 94}: ModalGroupFeedRateMode,
	{W: 'G', Arg: 20}: ModalGroupUnits,
	{W: 'G', Arg: 21}: ModalGroupUnits,

	// firmware info and wait-for-moves
	{W: 'M', Arg: 115}: ModalGroupNonModal,
	{W: 'M', Arg: 400}: ModalGroupNonModal,
}

func (w Word) ModalGroup() ModalGroup {
	if w.W == 'F' {
		return ModalGroupFeedRate
	}
	return codes[w]
}

// Supported reports whether the motion controller accepts w.
func (w Word) Supported() bool {
	if w.IsAxis() {
		return true
	}
	switch w.W {
	case 'F', 'P', 'S':
		return true
	case 'G', 'M':
		_, ok := codes[w]
		return ok
	}
	return false
}
