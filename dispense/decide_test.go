package dispense

import (
	"testing"

	"github.com/mastercactapus/plateloader/machine"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		tok     machine.Token
		attempt int
		want    Action
	}{
		{machine.TokenFly, 0, ActionSucceed},
		{machine.TokenFly, 3, ActionSucceed},

		{machine.TokenNoFly, 0, ActionPurge},
		{machine.TokenNoFly, 1, ActionRedispense},
		{machine.TokenNoFly, 2, ActionPurge},
		{machine.TokenNoFly, 3, ActionNone},

		{machine.TokenTimeout, 0, ActionRedispense},
		{machine.TokenTimeout, 1, ActionRedispense},
		{machine.TokenTimeout, 2, ActionFail},
		{machine.TokenTimeout, 3, ActionFail},

		{machine.TokenUnknown, 0, ActionFail},
		{machine.ParseToken("ok"), 1, ActionFail},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Decide(c.tok, c.attempt), "%s attempt %d", c.tok, c.attempt)
	}
}

func TestEvent_MarshalJSON(t *testing.T) {
	data, err := Event{Kind: Filled, Well: 13, Attempts: 2, Exhausted: true}.MarshalJSON()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"kind":"filled","well":13,"name":"B2","attempts":2,"exhausted":true,"time":"0001-01-01T00:00:00Z"}`, string(data))

	data, err = Event{Kind: Complete}.MarshalJSON()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"kind":"complete","time":"0001-01-01T00:00:00Z"}`, string(data))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting-token", AwaitingToken.String())
	assert.Equal(t, "plate-complete", PlateComplete.String())
	assert.Equal(t, "unknown", State(42).String())
}
