package device

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/mastercactapus/plateloader/coord"
	"github.com/mastercactapus/plateloader/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConn_SendSync(t *testing.T) {
	m := sim.NewMotion()
	c := NewConn(sim.Pipe(m.Serve), ConnOptions{AckTimeout: time.Second})
	defer c.Close()

	ctx := context.Background()
	for _, cmd := range []string{"G28", "G1 F3000", "G1 Z30", "G1 X9.09 Y-9.09"} {
		ack, err := c.SendSync(ctx, cmd)
		require.NoError(t, err, cmd)
		assert.Equal(t, "ok", ack)
	}
	assert.Equal(t, coord.Point{X: 9.09, Y: -9.09, Z: 30}, m.Position())

	_, err := c.SendSync(ctx, "G2 X1")
	assert.Error(t, err)

	// M115 reports firmware before acknowledging
	_, err = c.SendSync(ctx, "M115")
	assert.NoError(t, err)
	assert.Equal(t, "FIRMWARE_NAME:plateloader-sim", c.PollLine())
	assert.Equal(t, "", c.PollLine())
}

func TestConn_PollLine(t *testing.T) {
	client, server := net.Pipe()
	c := NewConn(client, ConnOptions{})
	defer c.Close()

	assert.Equal(t, "", c.PollLine())

	_, err := io.WriteString(server, "n\r\nt\n\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.PollLine() == "t" }, time.Second, time.Millisecond)
	assert.Equal(t, "", c.PollLine())
}

func TestConn_AckTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	go io.Copy(io.Discard, server)

	c := NewConn(client, ConnOptions{AckTimeout: 20 * time.Millisecond})
	defer c.Close()

	_, err := c.SendSync(context.Background(), "G28")
	assert.ErrorIs(t, err, ErrAckTimeout)

	client2, server2 := net.Pipe()
	defer server2.Close()
	go io.Copy(io.Discard, server2)
	c2 := NewConn(client2, ConnOptions{})
	defer c2.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c2.SendSync(ctx, "G28")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConn_Close(t *testing.T) {
	client, server := net.Pipe()
	go io.Copy(io.Discard, server)

	c := NewConn(client, ConnOptions{})
	done := make(chan error, 1)
	go func() {
		_, err := c.SendSync(context.Background(), "G28")
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	assert.NoError(t, c.Close())
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("SendSync did not return after Close")
	}

	assert.Equal(t, io.ErrClosedPipe, c.SendAsync("d"))
	server.Close()
}

func TestConn_DeviceGone(t *testing.T) {
	client, server := net.Pipe()
	c := NewConn(client, ConnOptions{})
	defer c.Close()

	go func() {
		buf := make([]byte, 64)
		server.Read(buf)
		server.Close()
	}()
	_, err := c.SendSync(context.Background(), "G28")
	assert.Error(t, err)
}
