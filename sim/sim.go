// Package sim simulates the motion controller and dispenser line
// protocols for demo mode and tests.
package sim

import (
	"bufio"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/mastercactapus/plateloader/coord"
	"github.com/mastercactapus/plateloader/gcode"
)

// Pipe starts serve on one end of an in-memory pipe and returns the other.
func Pipe(serve func(io.ReadWriter) error) io.ReadWriteCloser {
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		if err := serve(server); err != nil && err != io.EOF && err != io.ErrClosedPipe {
			log.Println("ERROR: sim:", err)
		}
	}()
	return client
}

type lineWriter struct {
	mx sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) println(line string) error {
	lw.mx.Lock()
	defer lw.mx.Unlock()
	_, err := io.WriteString(lw.w, line+"\n")
	return err
}

// Motion is a simulated G-code motion controller. Every accepted line
// is answered with "ok".
type Motion struct {
	// Delay is applied before each acknowledgment.
	Delay time.Duration

	mx    sync.Mutex
	vm    *gcode.VM
	lines []string
}

// NewMotion returns a simulated motion controller at the origin.
func NewMotion() *Motion {
	return &Motion{vm: gcode.NewVM()}
}

// Position returns the simulated machine position.
func (m *Motion) Position() coord.Point {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.vm.MPos()
}

// Lines returns every line received so far.
func (m *Motion) Lines() []string {
	m.mx.Lock()
	defer m.mx.Unlock()
	return append([]string(nil), m.lines...)
}

func (m *Motion) exec(line string) (reply []string) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.lines = append(m.lines, line)

	b, err := gcode.NewParser(strings.NewReader(line)).Read()
	if err != nil {
		return []string{"error:" + err.Error()}
	}
	if err = m.vm.Run(b); err != nil {
		return []string{"error:" + err.Error()}
	}
	if b.Has('M', 115) {
		reply = append(reply, "FIRMWARE_NAME:plateloader-sim")
	}
	return append(reply, "ok")
}

// Serve answers commands read from rw until it is closed.
func (m *Motion) Serve(rw io.ReadWriter) error {
	w := &lineWriter{w: rw}
	scan := bufio.NewScanner(rw)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		reply := m.exec(line)
		if m.Delay > 0 {
			time.Sleep(m.Delay)
		}
		for _, r := range reply {
			if err := w.println(r); err != nil {
				return err
			}
		}
	}
	return scan.Err()
}
