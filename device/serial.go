package device

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// DefaultBaud is the rate both the motion controller and dispenser run at.
const DefaultBaud = 115200

// Opener opens a named port.
type Opener func(name string) (io.ReadWriteCloser, error)

// SerialOpener returns an Opener for local serial ports at baud.
func SerialOpener(baud int) Opener {
	return func(name string) (io.ReadWriteCloser, error) {
		return OpenSerial(name, baud)
	}
}

// OpenSerial opens a local serial port.
func OpenSerial(name string, baud int) (io.ReadWriteCloser, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	p, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud, ReadTimeout: 0})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return p, nil
}

// ListPorts returns the serial ports present on this host.
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	return ports, nil
}

// resetDelay is how long boards that reset on open take to come up.
const resetDelay = 2 * time.Second
