package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mastercactapus/plateloader/spjs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSPJS answers list, open and sendjson like serial-port-json-server.
// Port "disp" replies "f" to every command, "M0" wipes the queue.
type fakeSPJS struct {
	mx     sync.Mutex
	opened []string
}

func (f *fakeSPJS) Opened() []string {
	f.mx.Lock()
	defer f.mx.Unlock()
	return append([]string(nil), f.opened...)
}

func (f *fakeSPJS) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var up websocket.Upgrader
	ws, err := up.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	send := func(v interface{}) {
		data, _ := json.Marshal(v)
		ws.WriteMessage(websocket.TextMessage, data)
	}
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		msg := string(data)
		switch {
		case msg == "list":
			send(spjs.SerialPortList{SerialPorts: []spjs.SerialPort{
				{Name: "motion"},
				{Name: "disp", IsOpen: true},
			}})
		case strings.HasPrefix(msg, "open "):
			f.mx.Lock()
			f.opened = append(f.opened, msg)
			f.mx.Unlock()
		case strings.HasPrefix(msg, "sendjson "):
			var j spjs.JSON
			if err := json.Unmarshal([]byte(strings.TrimPrefix(msg, "sendjson ")), &j); err != nil {
				return
			}
			for _, d := range j.Data {
				if strings.TrimSpace(d.Data) == "M0" {
					send(map[string]interface{}{"Cmd": "WipedQueue", "QCnt": 0, "Port": j.Port})
					continue
				}
				send(map[string]interface{}{"Cmd": "Complete", "Id": d.ID, "P": j.Port, "D": d.Data})
				send(spjs.DataFrame{Port: j.Port, Data: "ok\n"})
				if j.Port == "disp" {
					send(spjs.DataFrame{Port: j.Port, Data: "f\n"})
				}
			}
		}
	}
}

func TestHub(t *testing.T) {
	fake := &fakeSPJS{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	sp := spjs.NewSPJS("ws" + strings.TrimPrefix(srv.URL, "http"))
	defer sp.Close()

	h := NewHub(sp)
	motion := h.Channel("motion", 0, "")
	disp := h.Channel("disp", 0, "")
	assert.Equal(t, motion, h.Channel("motion", 0, ""))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ack, err := motion.SendSync(ctx, "G28")
	require.NoError(t, err)
	assert.Equal(t, "ok", ack)
	assert.Equal(t, "", motion.PollLine(), "acknowledgments are not polled")

	require.NoError(t, disp.SendAsync("d"))
	assert.Eventually(t, func() bool { return disp.PollLine() == "f" }, 5*time.Second, time.Millisecond)

	_, err = motion.SendSync(ctx, "M0")
	assert.ErrorIs(t, err, ErrQueueWiped)

	assert.Eventually(t, func() bool {
		for _, o := range fake.Opened() {
			if o == "open motion 115200 default" {
				return true
			}
		}
		return false
	}, 5*time.Second, time.Millisecond)
	assert.NotContains(t, fake.Opened(), "open disp 115200 default")
}
