package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// SyntaxError reports a line that could not be parsed.
type SyntaxError struct {
	Line int
	Text string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}
func (e *SyntaxError) Unwrap() error { return e.Err }

// Parser reads blocks from line-oriented G-code text. Comments, in
// parentheses or after a semicolon, and N line numbers are dropped.
type Parser struct {
	br   *bufio.Reader
	line int
}

var _ Reader = &Parser{}

func NewParser(r io.Reader) *Parser {
	if br, ok := r.(*bufio.Reader); ok {
		return &Parser{br: br}
	}
	return &Parser{br: bufio.NewReader(r)}
}

// Line is the number of the last line read.
func (p *Parser) Line() int { return p.line }

func stripComments(s string) string {
	s = strings.SplitN(s, ";", 2)[0]
	for {
		start := strings.IndexByte(s, '(')
		if start == -1 {
			return s
		}
		end := strings.IndexByte(s[start:], ')')
		if end == -1 {
			return s[:start]
		}
		s = s[:start] + " " + s[start+end+1:]
	}
}

// splitWords splits s before every letter, so "G1X9.09 Y-9" gives
// "G1", "X9.09" and "Y-9".
func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			continue
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		}
		cur.WriteByte(c)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

// Read returns the next non-empty block, or io.EOF.
func (p *Parser) Read() (Block, error) {
	for {
		s, err := p.br.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		if err != nil {
			return nil, err
		}
		p.line++

		words := splitWords(stripComments(s))
		if len(words) == 0 {
			continue
		}

		b := make(Block, 0, len(words))
		for _, str := range words {
			w, err := ParseWord(str)
			if err != nil {
				return nil, &SyntaxError{Line: p.line, Text: strings.TrimSpace(s), Err: err}
			}
			if w.W == 'N' {
				continue
			}
			b = append(b, w)
		}
		if len(b) == 0 {
			continue
		}
		return b, nil
	}
}

// Parse reads every block in data.
func Parse(data string) ([]Block, error) {
	return ReadAll(NewParser(strings.NewReader(data)))
}
