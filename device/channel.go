// Package device implements the line-oriented links to the motion
// controller and the dispenser.
package device

import (
	"context"
	"errors"
)

var (
	// ErrAckTimeout is returned when a synchronous command is not
	// acknowledged in time.
	ErrAckTimeout = errors.New("device: acknowledgment timed out")

	// ErrChannelCount is returned by Discover unless exactly one motion
	// controller and one dispenser are found.
	ErrChannelCount = errors.New("device: need exactly one motion controller and one dispenser")

	// ErrQueueWiped is returned to synchronous commands that were
	// dropped by an SPJS queue wipe.
	ErrQueueWiped = errors.New("device: command queue wiped")
)

// Role identifies which device a channel talks to.
type Role int

const (
	RoleMotion Role = iota
	RoleDispenser
)

func (r Role) String() string {
	switch r {
	case RoleMotion:
		return "motion"
	case RoleDispenser:
		return "dispenser"
	}
	return "unknown"
}

// A Channel is a newline-delimited command link to a single device.
type Channel interface {
	// SendSync writes cmd and blocks until the device acknowledges it.
	SendSync(ctx context.Context, cmd string) (string, error)

	// SendAsync writes cmd without waiting for a reply.
	SendAsync(cmd string) error

	// PollLine returns the most recent unread line, or "" if there is none.
	// It never blocks.
	PollLine() string
}
