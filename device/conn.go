package device

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

// ConnOptions configure a Conn.
type ConnOptions struct {
	// AckTimeout bounds how long SendSync waits. Zero waits forever.
	AckTimeout time.Duration

	// Name is used in log messages.
	Name string
}

// Conn is a Channel over an io.ReadWriter such as a serial port.
//
// Lines equal to (or starting with) "ok" acknowledge the outstanding
// synchronous command and lines starting with "error:" fail it. Every
// other line is kept for PollLine.
type Conn struct {
	rw  io.ReadWriter
	opt ConnOptions

	ackCh   chan ack
	closeCh chan struct{}
	doneCh  chan struct{}

	closeOnce sync.Once

	mx      sync.Mutex
	latest  string
	readErr error

	// wMx serializes writes to rw, sMx synchronous commands.
	wMx sync.Mutex
	sMx sync.Mutex
}

var _ Channel = &Conn{}

type ack struct {
	line string
	err  error
}

// NewConn creates a new Conn using the provided ReadWriter for data.
func NewConn(rw io.ReadWriter, opt ConnOptions) *Conn {
	c := &Conn{
		rw:      rw,
		opt:     opt,
		ackCh:   make(chan ack, 1),
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Close will abort any in-progress writes and close the
// underlying ReadWriter, if it implements io.Closer.
func (c *Conn) Close() (err error) {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		if closer, ok := c.rw.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

func (c *Conn) name() string {
	if c.opt.Name == "" {
		return "device"
	}
	return c.opt.Name
}

func isAck(line string) bool {
	return line == "ok" || strings.HasPrefix(line, "ok ")
}

func (c *Conn) readLoop() {
	defer close(c.doneCh)
	scan := bufio.NewScanner(c.rw)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}

		a := ack{line: line}
		switch {
		case isAck(line):
		case strings.HasPrefix(line, "error:"):
			a.err = errors.New(line)
		default:
			c.mx.Lock()
			c.latest = line
			c.mx.Unlock()
			continue
		}

		select {
		case c.ackCh <- a:
		case <-c.closeCh:
			return
		default:
			log.Printf("WARN: %s: unsolicited acknowledgment %q", c.name(), line)
		}
	}

	err := scan.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case <-c.closeCh:
		err = io.ErrClosedPipe
	default:
		log.Printf("ERROR: %s: read: %v", c.name(), err)
	}
	c.mx.Lock()
	c.readErr = err
	c.mx.Unlock()
}

func (c *Conn) writeLine(cmd string) error {
	select {
	case <-c.closeCh:
		return io.ErrClosedPipe
	default:
	}
	if !strings.HasSuffix(cmd, "\n") {
		cmd += "\n"
	}
	c.wMx.Lock()
	defer c.wMx.Unlock()
	_, err := io.WriteString(c.rw, cmd)
	return err
}

func (c *Conn) closedErr() error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.readErr != nil {
		return c.readErr
	}
	return io.ErrClosedPipe
}

// SendSync writes cmd and waits for the device's acknowledgment.
// Only one synchronous command is outstanding at a time.
func (c *Conn) SendSync(ctx context.Context, cmd string) (string, error) {
	c.sMx.Lock()
	defer c.sMx.Unlock()

	// drop acknowledgments that arrived after an earlier timeout
	for drained := false; !drained; {
		select {
		case <-c.ackCh:
		default:
			drained = true
		}
	}

	err := c.writeLine(cmd)
	if err != nil {
		return "", err
	}

	var timeout <-chan time.Time
	if c.opt.AckTimeout > 0 {
		t := time.NewTimer(c.opt.AckTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case a := <-c.ackCh:
		return a.line, a.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timeout:
		return "", ErrAckTimeout
	case <-c.closeCh:
		return "", io.ErrClosedPipe
	case <-c.doneCh:
		return "", c.closedErr()
	}
}

// SendAsync writes cmd and returns immediately.
func (c *Conn) SendAsync(cmd string) error {
	return c.writeLine(cmd)
}

// PollLine returns the latest unsolicited line and clears it.
func (c *Conn) PollLine() string {
	c.mx.Lock()
	line := c.latest
	c.latest = ""
	c.mx.Unlock()
	return line
}
