package gcode

import (
	"errors"
	"strconv"
	"strings"
)

// Precision is the number of decimals words are formatted with.
const Precision = 3

// Word is a letter and its argument, e.g. G1 or X-49.25.
type Word struct {
	W   byte
	Arg float64
}

// ParseWord parses a single word like "x9.09". The letter is case-insensitive.
func ParseWord(s string) (Word, error) {
	if len(s) < 2 {
		return Word{}, errors.New("incomplete word: " + s)
	}
	w := Word{W: strings.ToUpper(s[:1])[0]}
	if !w.IsValid() {
		return Word{}, errors.New("invalid word letter: " + s)
	}
	arg, err := strconv.ParseFloat(s[1:], 64)
	if err != nil {
		return Word{}, errors.New("invalid word argument: " + s)
	}
	w.Arg = arg
	return w, nil
}

func (w Word) IsAxis() bool {
	switch w.W {
	case 'X', 'Y', 'Z':
		return true
	}
	return false
}

func (w Word) IsValid() bool {
	return w.W >= 'A' && w.W <= 'Z'
}

func formatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
	}
	s = strings.TrimRight(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func (w Word) String() string {
	return string(w.W) + formatFloat(w.Arg, Precision)
}
