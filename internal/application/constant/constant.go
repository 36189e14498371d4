package constant

// Shared structured logging attribute keys.
const (
	Error     = "error"
	UserID    = "user_id"
	RoomKey   = "room"
	SessionID = "session_id"
)
