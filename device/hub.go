package device

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mastercactapus/plateloader/spjs"
)

var _ Channel = &hubChannel{}

var lastID int64

func nextID() string {
	id := atomic.AddInt64(&lastID, 1)
	return "cmd_" + strconv.FormatInt(id, 36)
}

// Hub serves Channels for ports attached to a serial-port-json-server.
type Hub struct {
	sp *spjs.SPJS

	mx      sync.Mutex
	ports   map[string]*hubChannel
	waiting map[string]chan error
}

type hubChannel struct {
	hub    *Hub
	port   string
	baud   int
	buffer string

	mx     sync.Mutex
	latest string
}

// NewHub starts dispatching messages from sp.
func NewHub(sp *spjs.SPJS) *Hub {
	h := &Hub{
		sp:      sp,
		ports:   make(map[string]*hubChannel),
		waiting: make(map[string]chan error, 100),
	}
	go h.loop()
	return h
}

// Channel returns a Channel for port, opening it on the server
// with baud and buffer algorithm if needed.
func (h *Hub) Channel(port string, baud int, buffer string) Channel {
	if baud == 0 {
		baud = DefaultBaud
	}
	if buffer == "" {
		buffer = "default"
	}
	h.mx.Lock()
	defer h.mx.Unlock()
	if ch := h.ports[port]; ch != nil {
		return ch
	}
	ch := &hubChannel{hub: h, port: port, baud: baud, buffer: buffer}
	h.ports[port] = ch
	go h.sp.WriteString("list")
	return ch
}

func (h *Hub) channel(port string) *hubChannel {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.ports[port]
}

func (h *Hub) complete(id string, err error) {
	h.mx.Lock()
	defer h.mx.Unlock()
	if ch := h.waiting[id]; ch != nil {
		ch <- err
		delete(h.waiting, id)
	}
}

func (h *Hub) wipe() {
	h.mx.Lock()
	defer h.mx.Unlock()
	for key, ch := range h.waiting {
		ch <- ErrQueueWiped
		delete(h.waiting, key)
	}
}

func (h *Hub) loop() {
	for resp := range h.sp.Messages() {
		switch msg := resp.(type) {
		case *spjs.DataFrame:
			ch := h.channel(msg.Port)
			if ch == nil {
				continue
			}
			for _, line := range strings.Split(msg.Data, "\n") {
				line = strings.TrimSpace(line)
				if line == "" || isAck(line) {
					continue
				}
				ch.mx.Lock()
				ch.latest = line
				ch.mx.Unlock()
			}
		case *spjs.CmdStatus:
			switch msg.Cmd {
			case "WipedQueue":
				h.wipe()
			case "Complete":
				h.complete(msg.ID, nil)
			}
		case *spjs.SerialPortList:
			for _, port := range msg.SerialPorts {
				ch := h.channel(port.Name)
				if ch == nil || port.IsOpen {
					continue
				}
				go h.sp.Open(ch.port, ch.baud, ch.buffer)
			}
		case *spjs.ErrorMessage:
			log.Println("ERROR: spjs:", msg.Error)
		}
	}
}

func (ch *hubChannel) send(id, cmd string, wait chan error) error {
	if wait != nil {
		ch.hub.mx.Lock()
		ch.hub.waiting[id] = wait
		ch.hub.mx.Unlock()
	}
	err := ch.hub.sp.SendJSON(spjs.JSON{
		Port: ch.port,
		Data: []spjs.Data{{Data: strings.TrimSpace(cmd) + "\n", ID: id}},
	})
	if err != nil && wait != nil {
		ch.hub.forget(id)
	}
	return err
}

func (h *Hub) forget(id string) {
	h.mx.Lock()
	delete(h.waiting, id)
	h.mx.Unlock()
}

func (ch *hubChannel) SendSync(ctx context.Context, cmd string) (string, error) {
	id := nextID()
	wait := make(chan error, 1)
	err := ch.send(id, cmd, wait)
	if err != nil {
		return "", err
	}
	select {
	case err = <-wait:
		if err != nil {
			return "", err
		}
		return "ok", nil
	case <-ctx.Done():
		ch.hub.forget(id)
		return "", ctx.Err()
	}
}

func (ch *hubChannel) SendAsync(cmd string) error {
	return ch.send(nextID(), cmd, nil)
}

func (ch *hubChannel) PollLine() string {
	ch.mx.Lock()
	line := ch.latest
	ch.latest = ""
	ch.mx.Unlock()
	return line
}
