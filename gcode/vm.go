package gcode

import (
	"errors"

	"github.com/mastercactapus/plateloader/coord"
)

// VM will track state and interpret gcode.
type VM struct {
	pos coord.Point
	wco coord.Point

	modal [ModalGroupFeedRate + 1]float64

	feed  float64
	homed bool
}

// NewVM constructs a new VM with default state.
func NewVM() *VM {
	vm := &VM{}

	vm.modal[ModalGroupMotion] = 0
	vm.modal[ModalGroupCoordinateSystem] = 54
	vm.modal[ModalGroupDistanceMode] = 90
	vm.modal[ModalGroupFeedRateMode] = 94
	vm.modal[ModalGroupUnits] = 21

	return vm
}

func (vm VM) Inches() bool         { return vm.modal[ModalGroupUnits] == 20 }
func (vm VM) RelativeMotion() bool { return vm.modal[ModalGroupDistanceMode] == 91 }

// Homed reports whether a G28 has been run.
func (vm VM) Homed() bool { return vm.homed }

// Feed returns the last programmed feed rate.
func (vm VM) Feed() float64 { return vm.feed }

func (vm VM) WPos() coord.Point {
	return vm.pos.Sub(vm.wco)
}
func (vm VM) MPos() coord.Point {
	return vm.pos
}
func (vm *VM) SetMPos(p coord.Point) {
	vm.pos = p
}
func (vm *VM) SetWCO(p coord.Point) {
	vm.wco = p
}
func (vm VM) WCO() coord.Point {
	return vm.wco
}

func applyBlock(p coord.Point, b Block, mul float64) coord.Point {
	for _, g := range b {
		switch g.W {
		case 'X':
			p.X = g.Arg * mul
		case 'Y':
			p.Y = g.Arg * mul
		case 'Z':
			p.Z = g.Arg * mul
		}
	}

	return p
}

func (vm *VM) home(b Block) {
	vm.homed = true
	var any bool
	for _, g := range b {
		switch g.W {
		case 'X':
			vm.pos.X, any = 0, true
		case 'Y':
			vm.pos.Y, any = 0, true
		case 'Z':
			vm.pos.Z, any = 0, true
		}
	}
	if !any {
		vm.pos = coord.Point{}
	}
}

func (vm *VM) Run(b Block) error {
	err := b.Validate()
	if err != nil {
		return err
	}
	var machineCoords bool
	for _, g := range b {
		if !g.Supported() {
			return errors.New("unsupported code: " + g.String())
		}
		mg := g.ModalGroup()
		if mg != ModalGroupNone && mg != ModalGroupNonModal {
			vm.modal[mg] = g.Arg
		}
		if g == (Word{W: 'G', Arg: 53.0}) {
			machineCoords = true
		}
	}

	mul := 1.0
	if vm.Inches() {
		mul = 25.4
	}
	if ok, f := b.Arg('F'); ok {
		vm.feed = f * mul
	}
	if b.Has('G', 28) {
		vm.home(b)
		return nil
	}
	if b.Has('G', 4) {
		return nil
	}

	args := b.Args()
	if len(args) == 0 {
		return nil
	}

	// apply motion
	if vm.RelativeMotion() {
		vm.pos = vm.pos.Add(applyBlock(coord.Point{}, args, mul))
	} else if machineCoords {
		vm.pos = applyBlock(vm.pos, args, 1)
	} else {
		vm.pos = applyBlock(vm.WPos(), args, mul).Add(vm.wco)
	}

	return nil
}
