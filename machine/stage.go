// Package machine issues motion and dispenser commands over device channels.
package machine

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mastercactapus/plateloader/coord"
	"github.com/mastercactapus/plateloader/device"
	"github.com/mastercactapus/plateloader/gcode"
)

// StageOptions configure the motion stage.
type StageOptions struct {
	// Clearance is the Z height at which the head moves freely above the plate.
	Clearance float64

	FeedRate float64

	// Park is where the head waits once a plate is complete. Z is ignored;
	// the head stays at clearance height.
	Park coord.Point
}

// Stage drives the motion controller. Every block is sent synchronously.
type Stage struct {
	ch  device.Channel
	opt StageOptions
}

func NewStage(ch device.Channel, opt StageOptions) *Stage {
	return &Stage{ch: ch, opt: opt}
}

func (s *Stage) runBlocks(ctx context.Context, b []gcode.Block) error {
	scan := bufio.NewScanner(gcode.NewBuffer(&gcode.BlocksReader{Blocks: b}))
	for scan.Scan() {
		_, err := s.ch.SendSync(ctx, scan.Text())
		if err != nil {
			return fmt.Errorf("motion %q: %w", scan.Text(), err)
		}
	}
	return scan.Err()
}

func moveZ(z float64) gcode.Block {
	return gcode.Block{{W: 'G', Arg: 1}, {W: 'Z', Arg: z}}
}
func moveXY(p coord.Point) gcode.Block {
	return gcode.Block{{W: 'G', Arg: 1}, {W: 'X', Arg: p.X}, {W: 'Y', Arg: p.Y}}
}

// generateGoTo raises to travelZ, moves over pos, then lowers to pos.Z.
func generateGoTo(travelZ float64, pos coord.Point) []gcode.Block {
	return []gcode.Block{
		moveZ(travelZ),
		moveXY(pos),
		moveZ(pos.Z),
	}
}

// Home homes all axes, sets the feed rate and raises to clearance height.
func (s *Stage) Home(ctx context.Context) error {
	return s.runBlocks(ctx, []gcode.Block{
		{{W: 'G', Arg: 28}},
		{{W: 'G', Arg: 1}, {W: 'F', Arg: s.opt.FeedRate}},
		moveZ(s.opt.Clearance),
	})
}

// Raise lifts the head to clearance height.
func (s *Stage) Raise(ctx context.Context) error {
	return s.runBlocks(ctx, []gcode.Block{moveZ(s.opt.Clearance)})
}

// GoTo raises to clearance, moves over pos and lowers to pos.Z.
func (s *Stage) GoTo(ctx context.Context, pos coord.Point) error {
	return s.runBlocks(ctx, generateGoTo(s.opt.Clearance, pos))
}

// Park raises to clearance and moves over the park position.
func (s *Stage) Park(ctx context.Context) error {
	return s.runBlocks(ctx, []gcode.Block{
		moveZ(s.opt.Clearance),
		moveXY(s.opt.Park),
	})
}
