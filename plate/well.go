// Package plate maps 96-well microplate positions to machine coordinates.
package plate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Plate geometry for a standard 96-well microplate.
const (
	Rows    = 8
	Columns = 12
	Count   = Rows * Columns
)

// ErrIndexOutOfRange is returned for any well index outside [0,95].
var ErrIndexOutOfRange = errors.New("well index out of range")

// Well is a zero-based, row-major well index. Row 0 is A, column 0 is 1.
type Well int

// NewWell returns the well at row, column.
func NewWell(row, column int) (Well, error) {
	if row < 0 || row >= Rows || column < 0 || column >= Columns {
		return 0, fmt.Errorf("row %d column %d: %w", row, column, ErrIndexOutOfRange)
	}
	return Well(row*Columns + column), nil
}

// Valid reports whether w addresses a well on the plate.
func (w Well) Valid() bool { return w >= 0 && w < Count }

// Check returns ErrIndexOutOfRange if w is not on the plate.
func (w Well) Check() error {
	if !w.Valid() {
		return fmt.Errorf("index %d: %w", int(w), ErrIndexOutOfRange)
	}
	return nil
}

func (w Well) Row() int    { return int(w) / Columns }
func (w Well) Column() int { return int(w) % Columns }

// Name returns the display name, e.g. "A1" or "H12".
//
// It panics if w is not on the plate.
func (w Well) Name() string {
	if err := w.Check(); err != nil {
		panic(err)
	}
	return string(rune('A'+w.Row())) + strconv.Itoa(w.Column()+1)
}

func (w Well) String() string {
	if !w.Valid() {
		return "Well(" + strconv.Itoa(int(w)) + ")"
	}
	return w.Name()
}

// ParseWell parses a display name like "b7". A bare number is taken as an index.
func ParseWell(s string) (Well, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, errors.New("empty well name")
	}
	if n, err := strconv.Atoi(s); err == nil {
		w := Well(n)
		return w, w.Check()
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return 0, errors.New("invalid well name: " + s)
	}
	col, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, errors.New("invalid well name: " + s)
	}
	return NewWell(int(s[0]-'A'), col-1)
}
