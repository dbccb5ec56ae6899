package main

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/mastercactapus/plateloader/config"
	"github.com/mastercactapus/plateloader/device"
	"github.com/mastercactapus/plateloader/sim"
	"github.com/mastercactapus/plateloader/spjs"
)

// links are the two device channels and whatever must be closed with them.
type links struct {
	motion    device.Channel
	dispenser device.Channel
	closers   []io.Closer
}

func (l *links) Close() error {
	var err error
	for _, c := range l.closers {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func openLinks(ctx context.Context, cfg *config.Config, simulate bool) (*links, error) {
	connOpt := func(name string) device.ConnOptions {
		return device.ConnOptions{AckTimeout: time.Duration(cfg.AckTimeout), Name: name}
	}

	switch {
	case simulate:
		log.Println("using simulated devices")
		m := device.NewConn(sim.Pipe(sim.NewMotion().Serve), connOpt("sim-motion"))
		d := &sim.Dispenser{Marker: cfg.DispenserMarker, Delay: 300 * time.Millisecond}
		dc := device.NewConn(sim.Pipe(d.Serve), connOpt("sim-dispenser"))
		return &links{motion: m, dispenser: dc, closers: []io.Closer{m, dc}}, nil

	case cfg.SPJS != "":
		if cfg.MotionPort == "" {
			return nil, errors.New("spjs requires motionPort and dispenserPort")
		}
		log.Printf("using SPJS at %s", cfg.SPJS)
		sp := spjs.NewSPJS(cfg.SPJS)
		hub := device.NewHub(sp)
		return &links{
			motion:    hub.Channel(cfg.MotionPort, cfg.Baud, cfg.SPJSBuffer),
			dispenser: hub.Channel(cfg.DispenserPort, cfg.Baud, cfg.SPJSBuffer),
			closers:   []io.Closer{sp},
		}, nil

	case cfg.MotionPort != "":
		mp, err := device.OpenSerial(cfg.MotionPort, cfg.Baud)
		if err != nil {
			return nil, err
		}
		dp, err := device.OpenSerial(cfg.DispenserPort, cfg.Baud)
		if err != nil {
			mp.Close()
			return nil, err
		}
		m := device.NewConn(mp, connOpt(cfg.MotionPort))
		d := device.NewConn(dp, connOpt(cfg.DispenserPort))
		return &links{motion: m, dispenser: d, closers: []io.Closer{m, d}}, nil
	}

	ports, err := device.ListPorts()
	if err != nil {
		return nil, err
	}
	log.Printf("discovering devices on %v", ports)
	ch, err := device.Discover(ctx, ports, device.SerialOpener(cfg.Baud), device.DiscoverOptions{
		Marker: cfg.DispenserMarker,
		Conn:   device.ConnOptions{AckTimeout: time.Duration(cfg.AckTimeout)},
	})
	if err != nil {
		return nil, err
	}
	log.Printf("motion controller on %s, dispenser on %s", ch.MotionPort, ch.DispenserPort)
	return &links{motion: ch.Motion, dispenser: ch.Dispenser, closers: []io.Closer{ch}}, nil
}
