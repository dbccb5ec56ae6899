package device

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

// Identification commands sent during discovery.
const (
	VersionQuery = "V"
	MotionQuery  = "M115"
)

// DefaultMarker begins the dispenser firmware's version reply.
const DefaultMarker = "FlyDispense"

// DiscoverOptions configure role discovery.
type DiscoverOptions struct {
	// Marker is the prefix of the dispenser's version reply.
	Marker string

	// Settle is the delay after opening a port before it is queried.
	Settle time.Duration

	// Timeout bounds each identification query.
	Timeout time.Duration

	Conn ConnOptions
}

func (opt *DiscoverOptions) setDefaults() {
	if opt.Marker == "" {
		opt.Marker = DefaultMarker
	}
	if opt.Settle == 0 {
		opt.Settle = resetDelay
	}
	if opt.Timeout == 0 {
		opt.Timeout = 2 * time.Second
	}
}

// Channels holds one identified Conn per role.
type Channels struct {
	Motion        *Conn
	MotionPort    string
	Dispenser     *Conn
	DispenserPort string
}

// Close closes both connections.
func (c *Channels) Close() error {
	var err error
	for _, conn := range []*Conn{c.Motion, c.Dispenser} {
		if conn == nil {
			continue
		}
		if e := conn.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

type identified struct {
	port string
	conn *Conn
}

// Discover opens every named port and identifies the motion controller
// and the dispenser.
//
// A port whose reply to VersionQuery begins with Marker is the dispenser;
// otherwise a port that acknowledges MotionQuery is the motion controller.
// Ports that are neither are closed. Unless exactly one of each is found
// all ports are closed and ErrChannelCount is returned.
func Discover(ctx context.Context, ports []string, open Opener, opt DiscoverOptions) (*Channels, error) {
	opt.setDefaults()

	var motion, dispensers []identified
	closeAll := func() {
		for _, id := range append(motion, dispensers...) {
			id.conn.Close()
		}
	}

	for _, port := range ports {
		rw, err := open(port)
		if err != nil {
			log.Printf("ERROR: discover: %v", err)
			continue
		}
		copt := opt.Conn
		copt.Name = port
		conn := NewConn(rw, copt)

		role, ok, err := identify(ctx, conn, opt)
		if err != nil {
			conn.Close()
			closeAll()
			return nil, err
		}
		if !ok {
			log.Printf("discover: %s: no known device", port)
			conn.Close()
			continue
		}
		log.Printf("discover: %s: %s", port, role)
		if role == RoleDispenser {
			dispensers = append(dispensers, identified{port: port, conn: conn})
		} else {
			motion = append(motion, identified{port: port, conn: conn})
		}
	}

	if len(motion) != 1 || len(dispensers) != 1 {
		closeAll()
		return nil, fmt.Errorf("found %d motion, %d dispenser: %w", len(motion), len(dispensers), ErrChannelCount)
	}

	return &Channels{
		Motion:        motion[0].conn,
		MotionPort:    motion[0].port,
		Dispenser:     dispensers[0].conn,
		DispenserPort: dispensers[0].port,
	}, nil
}

// identify returns an error only if ctx is done.
func identify(ctx context.Context, conn *Conn, opt DiscoverOptions) (Role, bool, error) {
	if err := sleep(ctx, opt.Settle); err != nil {
		return 0, false, err
	}
	conn.PollLine()

	if err := conn.SendAsync(VersionQuery); err != nil {
		return 0, false, nil
	}
	line, err := WaitLine(ctx, conn, opt.Timeout/20, opt.Timeout)
	if ctx.Err() != nil {
		return 0, false, ctx.Err()
	}
	if err == nil && opt.Marker != "" && strings.HasPrefix(line, opt.Marker) {
		return RoleDispenser, true, nil
	}

	qctx, cancel := context.WithTimeout(ctx, opt.Timeout)
	defer cancel()
	_, err = conn.SendSync(qctx, MotionQuery)
	if ctx.Err() != nil {
		return 0, false, ctx.Err()
	}
	if err != nil {
		return 0, false, nil
	}
	return RoleMotion, true, nil
}

// WaitLine polls ch every interval until a line is available.
// A zero timeout waits until ctx is done.
func WaitLine(ctx context.Context, ch Channel, interval, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
		if line := ch.PollLine(); line != "" {
			return line, nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 || ctx.Err() != nil {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ io.Closer = &Channels{}
