package dispense

// State is a step of the dispense state machine.
type State int

const (
	Idle State = iota
	Homing
	MovingToWell
	Triggering
	AwaitingToken
	WellSucceeded
	WellFailed
	PlateComplete
	Aborted
)

var stateNames = [...]string{
	Idle:          "idle",
	Homing:        "homing",
	MovingToWell:  "moving-to-well",
	Triggering:    "triggering",
	AwaitingToken: "awaiting-token",
	WellSucceeded: "well-succeeded",
	WellFailed:    "well-failed",
	PlateComplete: "plate-complete",
	Aborted:       "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// RunStatus is the outcome of the last run.
type RunStatus int

const (
	StatusNormal RunStatus = iota
	StatusHardwareFailure
)

func (s RunStatus) String() string {
	if s == StatusHardwareFailure {
		return "hardware-failure"
	}
	return "normal"
}

func (s RunStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
