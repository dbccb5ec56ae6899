package dispense

import (
	"encoding/json"
	"time"

	"github.com/mastercactapus/plateloader/plate"
)

// Kind is the type of an outcome Event.
type Kind int

const (
	// Filled means the well received a fly (or ran out of no-fly retries).
	Filled Kind = iota
	// Failed means the well hit a hardware failure; the run has halted.
	Failed
	// Paused means the run stopped on request. Well is the resume point.
	Paused
	// Complete means every well has been attempted.
	Complete
)

func (k Kind) String() string {
	switch k {
	case Filled:
		return "filled"
	case Failed:
		return "failed"
	case Paused:
		return "paused"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Event is a run outcome delivered to the control surface.
type Event struct {
	Kind Kind

	// Well is unset for Complete.
	Well plate.Well

	// Attempts is the number of dispenser tokens handled for Well.
	Attempts int

	// Exhausted is set on Filled when no success token was seen.
	Exhausted bool

	// Reset is set on a run's final event when Reset stopped the run.
	// Earlier outcomes no longer apply and the run resumes at the first well.
	Reset bool

	Time time.Time
}

func (e Event) MarshalJSON() ([]byte, error) {
	v := struct {
		Kind      string    `json:"kind"`
		Well      *int      `json:"well,omitempty"`
		Name      string    `json:"name,omitempty"`
		Attempts  int       `json:"attempts,omitempty"`
		Exhausted bool      `json:"exhausted,omitempty"`
		Reset     bool      `json:"reset,omitempty"`
		Time      time.Time `json:"time"`
	}{
		Kind:      e.Kind.String(),
		Attempts:  e.Attempts,
		Exhausted: e.Exhausted,
		Reset:     e.Reset,
		Time:      e.Time,
	}
	if e.Kind != Complete && e.Well.Valid() {
		w := int(e.Well)
		v.Well = &w
		v.Name = e.Well.Name()
	}
	return json.Marshal(v)
}
