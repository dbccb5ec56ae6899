// Package config loads the plateloader configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mastercactapus/plateloader/coord"
	"github.com/mastercactapus/plateloader/device"
	"github.com/mastercactapus/plateloader/dispense"
	"github.com/mastercactapus/plateloader/machine"
	"github.com/mastercactapus/plateloader/meshlevel"
	"github.com/mastercactapus/plateloader/plate"
)

// DefaultPath is used when no config file is given.
const DefaultPath = "plateloader.json"

// Duration is a time.Duration encoded as a Go duration string, e.g. "250ms".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config describes the hardware links and the plate geometry.
type Config struct {
	// MotionPort and DispenserPort select ports explicitly. When either is
	// empty the ports are discovered.
	MotionPort    string `json:"motionPort,omitempty"`
	DispenserPort string `json:"dispenserPort,omitempty"`
	Baud          int    `json:"baud"`

	// SPJS is the websocket URL of a serial-port-json-server. Empty uses
	// local serial ports.
	SPJS       string `json:"spjs,omitempty"`
	SPJSBuffer string `json:"spjsBuffer,omitempty"`

	// FirstWell and LastWell are the measured X/Y positions of A1 and H12.
	FirstWell  coord.Point `json:"firstWell"`
	LastWell   coord.Point `json:"lastWell"`
	MajorBasis coord.Point `json:"majorBasis"`
	MinorBasis coord.Point `json:"minorBasis"`

	ClearanceHeight float64     `json:"clearanceHeight"`
	WellHeight      float64     `json:"wellHeight"`
	FeedRate        float64     `json:"feedRate"`
	Park            coord.Point `json:"park"`

	// Surface holds measured engagement heights. SurfaceOffset is
	// subtracted from each of them.
	Surface       []coord.Point `json:"surface,omitempty"`
	SurfaceOffset float64       `json:"surfaceOffset,omitempty"`

	SettleDelay  Duration `json:"settleDelay"`
	PollInterval Duration `json:"pollInterval"`
	AckTimeout   Duration `json:"ackTimeout"`

	DispenserMarker string `json:"dispenserMarker"`
}

// Default returns the configuration for a standard plate with the first
// well at the machine origin.
func Default() *Config {
	return &Config{
		Baud:            device.DefaultBaud,
		SPJSBuffer:      "default",
		FirstWell:       coord.Point{},
		LastWell:        plate.NominalMajor.Mul(plate.Columns - 1).Add(plate.NominalMinor.Mul(plate.Rows - 1)),
		MajorBasis:      plate.NominalMajor,
		MinorBasis:      plate.NominalMinor,
		ClearanceHeight: 30,
		WellHeight:      19,
		FeedRate:        3000,
		SettleDelay:     Duration(time.Second),
		PollInterval:    Duration(250 * time.Millisecond),
		AckTimeout:      Duration(30 * time.Second),
		DispenserMarker: device.DefaultMarker,
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (cfg *Config) Validate() error {
	switch {
	case cfg.Baud <= 0:
		return errors.New("baud must be positive")
	case cfg.FeedRate <= 0:
		return errors.New("feedRate must be positive")
	case cfg.SettleDelay < 0:
		return errors.New("settleDelay must not be negative")
	case cfg.PollInterval <= 0:
		return errors.New("pollInterval must be positive")
	case cfg.AckTimeout <= 0:
		return errors.New("ackTimeout must be positive")
	case cfg.ClearanceHeight <= cfg.WellHeight:
		return fmt.Errorf("clearanceHeight %g must be above wellHeight %g", cfg.ClearanceHeight, cfg.WellHeight)
	case cfg.MajorBasis.NormXY() == 0 || cfg.MinorBasis.NormXY() == 0:
		return errors.New("majorBasis and minorBasis must be non-zero")
	case (cfg.MotionPort == "") != (cfg.DispenserPort == ""):
		return errors.New("motionPort and dispenserPort must be set together")
	}
	for _, p := range cfg.Surface {
		if p.Z-cfg.SurfaceOffset >= cfg.ClearanceHeight {
			return fmt.Errorf("surface point (%g, %g) is above clearanceHeight", p.X, p.Y)
		}
	}
	return nil
}

// Frame calibrates the plate grid from the measured wells.
func (cfg *Config) Frame() (*plate.Frame, error) {
	return plate.NewFrame(cfg.FirstWell, cfg.LastWell, cfg.MajorBasis, cfg.MinorBasis)
}

// Layout calibrates the grid and builds the surface mesh, if any.
func (cfg *Config) Layout() (plate.Layout, error) {
	f, err := cfg.Frame()
	if err != nil {
		return plate.Layout{}, err
	}
	surface, err := meshlevel.FromPoints(cfg.Surface, cfg.SurfaceOffset)
	if err != nil {
		return plate.Layout{}, fmt.Errorf("surface: %w", err)
	}
	return plate.Layout{Frame: f, Engage: cfg.WellHeight, Surface: surface}, nil
}

// StageOptions returns the motion settings.
func (cfg *Config) StageOptions() machine.StageOptions {
	return machine.StageOptions{
		Clearance: cfg.ClearanceHeight,
		FeedRate:  cfg.FeedRate,
		Park:      cfg.Park,
	}
}

// DispenseOptions returns the fill cycle settings. A zero settle delay
// disables it.
func (cfg *Config) DispenseOptions() dispense.Options {
	settle := time.Duration(cfg.SettleDelay)
	if settle == 0 {
		settle = -1
	}
	return dispense.Options{
		Stage:        cfg.StageOptions(),
		SettleDelay:  settle,
		PollInterval: time.Duration(cfg.PollInterval),
	}
}
