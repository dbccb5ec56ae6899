package sim

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"
)

// DefaultMarker begins the simulated dispenser's version reply.
const DefaultMarker = "FlyDispense"

// Dispenser is a simulated fly dispenser. Each dispense or purge
// command is answered with the next token from Script, or "f" once
// the script runs out.
type Dispenser struct {
	Marker string
	Script []string

	// Delay is applied before each token, asynchronously.
	Delay time.Duration

	mx       sync.Mutex
	next     int
	commands []string
}

// Commands returns every command received so far.
func (d *Dispenser) Commands() []string {
	d.mx.Lock()
	defer d.mx.Unlock()
	return append([]string(nil), d.commands...)
}

func (d *Dispenser) token() string {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.next >= len(d.Script) {
		return "f"
	}
	d.next++
	return d.Script[d.next-1]
}

func (d *Dispenser) record(cmd string) {
	d.mx.Lock()
	d.commands = append(d.commands, cmd)
	d.mx.Unlock()
}

// Serve answers commands read from rw until it is closed.
func (d *Dispenser) Serve(rw io.ReadWriter) error {
	marker := d.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	w := &lineWriter{w: rw}
	var wg sync.WaitGroup
	defer wg.Wait()

	scan := bufio.NewScanner(rw)
	for scan.Scan() {
		cmd := strings.TrimSpace(scan.Text())
		if cmd == "" {
			continue
		}
		d.record(cmd)
		switch cmd {
		case "V":
			if err := w.println(marker + " sim 1.0"); err != nil {
				return err
			}
		case "d", "p":
			tok := d.token()
			wg.Add(1)
			go func() {
				defer wg.Done()
				if d.Delay > 0 {
					time.Sleep(d.Delay)
				}
				w.println(tok)
			}()
		}
	}
	return scan.Err()
}
