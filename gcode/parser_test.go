package gcode

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Read(t *testing.T) {
	p := NewParser(strings.NewReader("N10 G1 X9.09 y-9.09 ; to B2\n\n(home first)\ng28\nG1Z30(clear)F3000"))

	b, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, Block{{W: 'G', Arg: 1}, {W: 'X', Arg: 9.09}, {W: 'Y', Arg: -9.09}}, b)
	assert.Equal(t, 1, p.Line())

	b, err = p.Read()
	require.NoError(t, err)
	assert.Equal(t, Block{{W: 'G', Arg: 28}}, b)
	assert.Equal(t, 4, p.Line())

	b, err = p.Read()
	require.NoError(t, err)
	assert.Equal(t, "G1 Z30 F3000", b.String())

	_, err = p.Read()
	assert.Equal(t, io.EOF, err)
}

func TestParser_SyntaxError(t *testing.T) {
	_, err := Parse("G1 Z30\nG1 X1.2.3\n")
	require.Error(t, err)

	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, "G1 X1.2.3", se.Text)

	_, err = Parse("$H")
	assert.Error(t, err)
	_, err = Parse("G")
	assert.Error(t, err)
}

func TestReadAll(t *testing.T) {
	blocks := []Block{
		{{W: 'G', Arg: 1}, {W: 'Z', Arg: 30}},
		{{W: 'M', Arg: 400}},
	}
	res, err := ReadAll(&BlocksReader{Blocks: blocks})
	require.NoError(t, err)
	assert.Equal(t, blocks, res)

	res, err = Parse(blocks[0].String() + "\n" + blocks[1].String())
	require.NoError(t, err)
	assert.Equal(t, blocks, res)
}

func TestWord_String(t *testing.T) {
	assert.Equal(t, "X9.09", Word{W: 'X', Arg: 9.09}.String())
	assert.Equal(t, "Y-63.63", Word{W: 'Y', Arg: -63.63}.String())
	assert.Equal(t, "Z0", Word{W: 'Z', Arg: -0.0001}.String())
	assert.Equal(t, "F3000", Word{W: 'F', Arg: 3000}.String())
}

func TestWord_Supported(t *testing.T) {
	assert.True(t, Word{W: 'G', Arg: 28}.Supported())
	assert.True(t, Word{W: 'M', Arg: 115}.Supported())
	assert.True(t, Word{W: 'Z', Arg: 19}.Supported())
	assert.False(t, Word{W: 'G', Arg: 2}.Supported())
	assert.False(t, Word{W: 'M', Arg: 3}.Supported())
	assert.False(t, Word{W: 'T', Arg: 1}.Supported())

	assert.Equal(t, ModalGroupMotion, Word{W: 'G', Arg: 1}.ModalGroup())
	assert.Equal(t, ModalGroupFeedRate, Word{W: 'F', Arg: 3000}.ModalGroup())
	assert.Equal(t, ModalGroupNone, Word{W: 'X', Arg: 1}.ModalGroup())
}
