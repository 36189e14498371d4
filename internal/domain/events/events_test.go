package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Inbound
	}{
		{
			name: "ptt request",
			raw:  `{"type":"ptt","action":"request"}`,
			want: PTTCommand{Action: ActionRequest},
		},
		{
			name: "ptt release",
			raw:  `{"type":"ptt","action":"release"}`,
			want: PTTCommand{Action: ActionRelease},
		},
		{
			name: "message with channel",
			raw:  `{"type":"message","body":"hi","channel":"sms"}`,
			want: ChatMessage{Body: "hi", Channel: "sms"},
		},
		{
			name: "message without channel",
			raw:  `{"type":"message","body":"hi"}`,
			want: ChatMessage{Body: "hi"},
		},
		{
			name: "event",
			raw:  `{"type":"event","action":"typing","event":{"thread":7}}`,
			want: EventSignal{Action: "typing", Event: json.RawMessage(`{"thread":7}`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInbound_UnknownType(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"type":"offer","sdp":"..."}`))
	require.ErrorIs(t, err, ErrUnknownType)

	_, err = DecodeInbound([]byte(`{"body":"no type tag"}`))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeInbound_MalformedJSON(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"type":`))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnknownType)
}

func TestState_FloorSerialization(t *testing.T) {
	free, err := json.Marshal(NewState("", []string{"A"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"state","ptt_floor":null,"users":["A"]}`, string(free))

	held, err := json.Marshal(NewState("A", []string{"A", "B"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"state","ptt_floor":"A","users":["A","B"]}`, string(held))
}

func TestPTT_WireShapes(t *testing.T) {
	granted, err := json.Marshal(NewPTTGranted("A"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ptt","action":"granted","user_id":"A"}`, string(granted))

	denied, err := json.Marshal(NewPTTDenied("A"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ptt","action":"denied","holder":"A"}`, string(denied))

	released, err := json.Marshal(NewPTTReleased("A"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ptt","action":"released","user_id":"A"}`, string(released))
}
