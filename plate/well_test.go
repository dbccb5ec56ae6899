package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWell_Name(t *testing.T) {
	assert.Equal(t, "A1", Well(0).Name())
	assert.Equal(t, "A12", Well(11).Name())
	assert.Equal(t, "B1", Well(12).Name())
	assert.Equal(t, "H12", Well(95).Name())

	assert.Panics(t, func() { _ = Well(96).Name() })
	assert.Panics(t, func() { _ = Well(-1).Name() })
	assert.Equal(t, "Well(96)", Well(96).String())
}

func TestParseWell(t *testing.T) {
	for i := 0; i < Count; i++ {
		w, err := ParseWell(Well(i).Name())
		require.NoError(t, err)
		assert.Equal(t, Well(i), w)
	}

	w, err := ParseWell(" b7 ")
	assert.NoError(t, err)
	assert.Equal(t, Well(18), w)

	w, err = ParseWell("42")
	assert.NoError(t, err)
	assert.Equal(t, Well(42), w)

	_, err = ParseWell("I1")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = ParseWell("A13")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = ParseWell("96")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = ParseWell("")
	assert.Error(t, err)
	_, err = ParseWell("Ax")
	assert.Error(t, err)
}
