package runtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeWait bounds every outbound write so one stalled peer cannot block a
// room broadcast indefinitely.
const writeWait = 10 * time.Second

// Conn is the transport surface a session writes to. *websocket.Conn
// satisfies it; tests substitute a recording fake.
type Conn interface {
	WriteJSON(v any) error
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is a single live connection, bound to one room and one identity for
// its whole lifetime.
type Session struct {
	ID       uuid.UUID
	RoomKey  string
	Identity string

	conn Conn
	mu   sync.Mutex
}

func NewSession(roomKey, identity string, conn Conn) *Session {
	return &Session{
		ID:       uuid.New(),
		RoomKey:  roomKey,
		Identity: identity,
		conn:     conn,
	}
}

// Send writes one envelope. Writes are serialized per session so broadcasts
// and direct replies never interleave on the wire.
func (s *Session) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return s.conn.WriteJSON(v)
}

// Ping sends a transport-level ping frame.
func (s *Session) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

func (s *Session) Close() error {
	return s.conn.Close()
}
