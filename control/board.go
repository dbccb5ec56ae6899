package control

import (
	"sync"

	"github.com/mastercactapus/plateloader/dispense"
	"github.com/mastercactapus/plateloader/plate"
)

// WellState is what the board shows for one well.
type WellState int

const (
	WellEmpty WellState = iota
	WellFilled
	// WellExhausted is filled without a confirmed fly.
	WellExhausted
	WellFailed
)

func (s WellState) String() string {
	switch s {
	case WellEmpty:
		return "empty"
	case WellFilled:
		return "filled"
	case WellExhausted:
		return "exhausted"
	case WellFailed:
		return "failed"
	}
	return "unknown"
}

func (s WellState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Board tracks the outcome of every well for display.
type Board struct {
	mx       sync.RWMutex
	wells    [plate.Count]WellState
	paused   bool
	complete bool
}

// Apply records an outcome event. The final event of a run stopped by
// Reset clears the board, dropping any well that finished after the reset
// was requested.
func (b *Board) Apply(e dispense.Event) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if e.Reset {
		b.wells = [plate.Count]WellState{}
		b.complete = false
		b.paused = e.Kind == dispense.Paused
		return
	}
	switch e.Kind {
	case dispense.Filled:
		if !e.Well.Valid() {
			return
		}
		b.wells[e.Well] = WellFilled
		if e.Exhausted {
			b.wells[e.Well] = WellExhausted
		}
		b.paused = false
	case dispense.Failed:
		if !e.Well.Valid() {
			return
		}
		b.wells[e.Well] = WellFailed
	case dispense.Paused:
		b.paused = true
	case dispense.Complete:
		b.complete = true
		b.paused = false
	}
}

// Reset clears every well.
func (b *Board) Reset() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.wells = [plate.Count]WellState{}
	b.paused = false
	b.complete = false
}

// Snapshot is a copy of the board.
type Snapshot struct {
	Wells    []WellState `json:"wells"`
	Paused   bool        `json:"paused"`
	Complete bool        `json:"complete"`
}

func (b *Board) Snapshot() Snapshot {
	b.mx.RLock()
	defer b.mx.RUnlock()
	return Snapshot{
		Wells:    append([]WellState(nil), b.wells[:]...),
		Paused:   b.paused,
		Complete: b.complete,
	}
}

// Count returns how many wells are in state s.
func (s Snapshot) Count(state WellState) int {
	var n int
	for _, w := range s.Wells {
		if w == state {
			n++
		}
	}
	return n
}
