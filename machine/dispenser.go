package machine

import (
	"context"
	"time"

	"github.com/mastercactapus/plateloader/device"
)

// Dispenser commands.
const (
	CmdDispense   = "d"
	CmdPurge      = "p"
	CmdInitialize = "i"
	CmdVersion    = device.VersionQuery
)

// Token is a status reply from the dispenser.
type Token byte

const (
	TokenUnknown Token = 0
	TokenFly     Token = 'f'
	TokenNoFly   Token = 'n'
	TokenTimeout Token = 't'
)

// ParseToken classifies a dispenser line.
func ParseToken(line string) Token {
	if len(line) != 1 {
		return TokenUnknown
	}
	switch t := Token(line[0]); t {
	case TokenFly, TokenNoFly, TokenTimeout:
		return t
	}
	return TokenUnknown
}

func (t Token) String() string {
	switch t {
	case TokenFly:
		return "fly"
	case TokenNoFly:
		return "no-fly"
	case TokenTimeout:
		return "timeout"
	}
	return "unknown"
}

// Dispenser triggers the dispenser and reads its tokens.
type Dispenser struct {
	ch device.Channel
}

func NewDispenser(ch device.Channel) *Dispenser {
	return &Dispenser{ch: ch}
}

func (d *Dispenser) Dispense() error { return d.ch.SendAsync(CmdDispense) }
func (d *Dispenser) Purge() error    { return d.ch.SendAsync(CmdPurge) }

// Initialize resets the dispenser, waits settle, and discards
// anything it printed meanwhile.
func (d *Dispenser) Initialize(ctx context.Context, settle time.Duration) error {
	if err := d.ch.SendAsync(CmdInitialize); err != nil {
		return err
	}
	t := time.NewTimer(settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	d.ch.PollLine()
	return nil
}

// Version queries the dispenser's identification string.
func (d *Dispenser) Version(ctx context.Context, timeout time.Duration) (string, error) {
	if err := d.ch.SendAsync(CmdVersion); err != nil {
		return "", err
	}
	return device.WaitLine(ctx, d.ch, timeout/20, timeout)
}

// WaitToken polls for the next line every interval until one arrives
// or ctx is done.
func (d *Dispenser) WaitToken(ctx context.Context, interval time.Duration) (string, error) {
	return device.WaitLine(ctx, d.ch, interval, 0)
}
