package device

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/mastercactapus/plateloader/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOpener(devices map[string]func(io.ReadWriter) error) Opener {
	return func(name string) (io.ReadWriteCloser, error) {
		serve, ok := devices[name]
		if !ok {
			return nil, errors.New("no such port: " + name)
		}
		return sim.Pipe(serve), nil
	}
}

func silent(rw io.ReadWriter) error {
	_, err := io.Copy(io.Discard, rw)
	return err
}

var testDiscover = DiscoverOptions{
	Marker:  sim.DefaultMarker,
	Settle:  time.Millisecond,
	Timeout: 100 * time.Millisecond,
}

func TestDiscover(t *testing.T) {
	d := &sim.Dispenser{}
	open := testOpener(map[string]func(io.ReadWriter) error{
		"/dev/ttyACM0": sim.NewMotion().Serve,
		"/dev/ttyACM1": d.Serve,
		"/dev/ttyS0":   silent,
	})

	ch, err := Discover(context.Background(), []string{"/dev/ttyS0", "/dev/ttyACM1", "/dev/ttyMissing", "/dev/ttyACM0"}, open, testDiscover)
	require.NoError(t, err)
	defer ch.Close()

	assert.Equal(t, "/dev/ttyACM0", ch.MotionPort)
	assert.Equal(t, "/dev/ttyACM1", ch.DispenserPort)
	assert.Equal(t, []string{"V"}, d.Commands())

	_, err = ch.Motion.SendSync(context.Background(), "G28")
	assert.NoError(t, err)
}

func TestDiscover_ChannelCount(t *testing.T) {
	devices := map[string]func(io.ReadWriter) error{
		"motion":  sim.NewMotion().Serve,
		"motion2": sim.NewMotion().Serve,
		"disp":    (&sim.Dispenser{}).Serve,
	}
	open := testOpener(devices)

	for _, ports := range [][]string{
		nil,
		{"motion"},
		{"disp"},
		{"motion", "motion2", "disp"},
	} {
		_, err := Discover(context.Background(), ports, open, testDiscover)
		assert.ErrorIs(t, err, ErrChannelCount, "%v", ports)
	}
}

func TestDiscover_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	open := testOpener(map[string]func(io.ReadWriter) error{"motion": sim.NewMotion().Serve})

	_, err := Discover(ctx, []string{"motion"}, open, testDiscover)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "motion", RoleMotion.String())
	assert.Equal(t, "dispenser", RoleDispenser.String())
}
