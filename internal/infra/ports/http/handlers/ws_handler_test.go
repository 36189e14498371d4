package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorhq/roomgate/internal/application/config"
	"github.com/creatorhq/roomgate/internal/infra/adapters/memory"
	"github.com/creatorhq/roomgate/internal/infra/identity"
	"github.com/creatorhq/roomgate/internal/infra/ports/http/handlers"
	"github.com/creatorhq/roomgate/internal/infra/ports/http/server"
	"github.com/creatorhq/roomgate/internal/usecase"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.RoomRegistry) {
	t.Helper()

	cfg := &config.Config{Debug: true}
	registry := memory.NewRoomRegistry()
	gateway := usecase.NewGatewayUsecase(registry)

	wsHandler := handlers.NewWebSocketHandler(cfg, identity.NewPathResolver(), gateway)
	roomHandler := handlers.NewRoomHandler(registry)

	srv := httptest.NewServer(server.New(wsHandler, roomHandler))
	t.Cleanup(srv.Close)

	return srv, registry
}

func dial(t *testing.T, srv *httptest.Server, room, user string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + room + "/" + user

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))

	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func TestGateway_EndToEnd(t *testing.T) {
	srv, registry := newTestServer(t)

	connA := dial(t, srv, "r1", "A")

	snapshot := readFrame(t, connA)
	assert.Equal(t, "state", snapshot["type"])
	assert.Nil(t, snapshot["ptt_floor"])
	assert.Equal(t, []any{"A"}, snapshot["users"])

	connB := dial(t, srv, "r1", "B")

	snapshot = readFrame(t, connB)
	assert.Equal(t, "state", snapshot["type"])
	assert.Equal(t, []any{"A", "B"}, snapshot["users"])

	presence := readFrame(t, connA)
	assert.Equal(t, "presence", presence["type"])
	assert.Equal(t, "join", presence["action"])
	assert.Equal(t, "B", presence["user_id"])

	// A takes the floor; everyone sees the grant.
	writeFrame(t, connA, `{"type":"ptt","action":"request"}`)

	for _, conn := range []*websocket.Conn{connA, connB} {
		frame := readFrame(t, conn)
		assert.Equal(t, "ptt", frame["type"])
		assert.Equal(t, "granted", frame["action"])
		assert.Equal(t, "A", frame["user_id"])
	}

	// B is denied while A holds the floor; only B hears about it.
	writeFrame(t, connB, `{"type":"ptt","action":"request"}`)

	denied := readFrame(t, connB)
	assert.Equal(t, "ptt", denied["type"])
	assert.Equal(t, "denied", denied["action"])
	assert.Equal(t, "A", denied["holder"])

	// Chat relay reaches the sender too.
	writeFrame(t, connA, `{"type":"message","body":"hi","channel":"sms"}`)

	for _, conn := range []*websocket.Conn{connA, connB} {
		frame := readFrame(t, conn)
		assert.Equal(t, "message", frame["type"])
		assert.Equal(t, "A", frame["user_id"])
		assert.Equal(t, "hi", frame["body"])
		assert.Equal(t, "sms", frame["channel"])
	}

	// Generic event relay.
	writeFrame(t, connB, `{"type":"event","action":"typing","event":{"thread":7}}`)

	for _, conn := range []*websocket.Conn{connA, connB} {
		frame := readFrame(t, conn)
		assert.Equal(t, "event", frame["type"])
		assert.Equal(t, "typing", frame["action"])
	}

	// A disconnects while holding the floor: B sees the release and the
	// presence update, then can take the floor itself.
	require.NoError(t, connA.Close())

	released := readFrame(t, connB)
	assert.Equal(t, "ptt", released["type"])
	assert.Equal(t, "released", released["action"])
	assert.Equal(t, "A", released["user_id"])

	presence = readFrame(t, connB)
	assert.Equal(t, "presence", presence["type"])
	assert.Equal(t, "leave", presence["action"])
	assert.Equal(t, "A", presence["user_id"])
	assert.Equal(t, []any{"B"}, presence["users"])

	writeFrame(t, connB, `{"type":"ptt","action":"request"}`)

	granted := readFrame(t, connB)
	assert.Equal(t, "granted", granted["action"])
	assert.Equal(t, "B", granted["user_id"])

	// Last connection leaves: the room is gone without residue.
	require.NoError(t, connB.Close())

	require.Eventually(t, func() bool {
		return len(registry.Rooms()) == 0
	}, 2*time.Second, 10*time.Millisecond)

	connC := dial(t, srv, "r1", "C")

	snapshot = readFrame(t, connC)
	assert.Equal(t, "state", snapshot["type"])
	assert.Nil(t, snapshot["ptt_floor"])
	assert.Equal(t, []any{"C"}, snapshot["users"])
}

func TestGateway_MalformedFramesKeepConnectionOpen(t *testing.T) {
	srv, _ := newTestServer(t)

	conn := dial(t, srv, "r1", "A")
	readFrame(t, conn) // state snapshot

	writeFrame(t, conn, `not json at all`)
	writeFrame(t, conn, `{"type":"offer","sdp":"..."}`)
	writeFrame(t, conn, `{"no":"type tag"}`)

	// The connection survived: a valid frame still round-trips.
	writeFrame(t, conn, `{"type":"message","body":"still here"}`)

	frame := readFrame(t, conn)
	assert.Equal(t, "message", frame["type"])
	assert.Equal(t, "still here", frame["body"])
}

func TestGateway_MissingIdentityRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/r1"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoomHandler_ListRooms(t *testing.T) {
	srv, _ := newTestServer(t)

	connA := dial(t, srv, "alpha", "A")
	readFrame(t, connA)
	writeFrame(t, connA, `{"type":"ptt","action":"request"}`)
	readFrame(t, connA) // granted

	resp, err := http.Get(srv.URL + "/api/v1/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rooms []map[string]any
	require.NoError(t, jsonDecode(resp, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "alpha", rooms[0]["room"])
	assert.Equal(t, "A", rooms[0]["ptt_floor"])
	assert.Equal(t, []any{"A"}, rooms[0]["users"])
	assert.Equal(t, float64(1), rooms[0]["connections"])
}

func jsonDecode(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
