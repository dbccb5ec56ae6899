package gcode

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_Read(t *testing.T) {
	blocks := []Block{
		{{W: 'G', Arg: 1}, {W: 'Z', Arg: 30}},

		{{W: 'G', Arg: 28}},
	}

	gr := &BlocksReader{Blocks: blocks}

	b := NewBuffer(gr)

	buf := make([]byte, 32)
	n, err := b.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "G1 Z30\nG28\n", string(buf[:n]))

	n, err = b.Read(buf)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
}

func TestBuffer_ShortRead(t *testing.T) {
	b := NewBuffer(&BlocksReader{Blocks: []Block{{{W: 'G', Arg: 1}, {W: 'F', Arg: 3000}}}})

	buf := make([]byte, 4)
	n, err := b.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "G1 F", string(buf[:n]))

	n, err = b.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "3000", string(buf[:n]))

	n, err = b.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "\n", string(buf[:n]))

	_, err = b.Read(buf)
	assert.Equal(t, io.EOF, err)
}
