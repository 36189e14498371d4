package memory

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/creatorhq/roomgate/internal/application/constant"
	"github.com/creatorhq/roomgate/internal/application/metric"
	"github.com/creatorhq/roomgate/internal/domain/events"
	"github.com/creatorhq/roomgate/internal/domain/runtime"
)

// room holds the live state of one channel. It exists only while at least one
// connection is joined.
type room struct {
	// conns is the set of live sessions in the room.
	conns map[*runtime.Session]struct{}

	// members counts live connections per identity. Presence is the key set;
	// an identity leaves only when its count reaches zero.
	members map[string]int

	// floor is the identity holding the push-to-talk floor, "" when free.
	floor string
}

func (rm *room) users() []string {
	out := make([]string, 0, len(rm.members))
	for id := range rm.members {
		out = append(out, id)
	}
	sort.Strings(out)

	return out
}

// RoomInfo is a read-only view of one room for introspection.
type RoomInfo struct {
	Key         string   `json:"room"`
	Users       []string `json:"users"`
	FloorHolder string   `json:"ptt_floor,omitempty"`
	Connections int      `json:"connections"`
}

// RoomRegistry owns every room. It is the single piece of shared mutable
// state in the gateway: each mutation together with its broadcasts runs
// inside one critical section, so observers never see a half-applied
// transition.
type RoomRegistry struct {
	rooms map[string]*room
	mu    sync.Mutex
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*room),
	}
}

// Join adds a session to its room, creating the room on first use. The
// session receives a state snapshot before anything else can be written to
// it; everyone already in the room gets a presence notification.
func (r *RoomRegistry) Join(sess *runtime.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[sess.RoomKey]
	if !ok {
		rm = &room{
			conns:   make(map[*runtime.Session]struct{}),
			members: make(map[string]int),
		}
		r.rooms[sess.RoomKey] = rm
		metric.SetActiveRooms(len(r.rooms))
	}

	rm.conns[sess] = struct{}{}
	rm.members[sess.Identity]++

	users := rm.users()

	// Snapshot first. The joiner must observe the current floor and presence
	// before any broadcast triggered by its own join or by later events.
	if err := sess.Send(events.NewState(rm.floor, users)); err != nil {
		slog.Warn(
			"snapshot delivery failed, dropping session",
			slog.Any(constant.Error, err),
			slog.String(constant.UserID, sess.Identity),
			slog.String(constant.RoomKey, sess.RoomKey),
		)
		sess.Close()
		r.removeLocked(sess.RoomKey, rm, sess)

		return
	}

	r.broadcastLocked(sess.RoomKey, rm, events.NewPresenceJoin(sess.Identity, users), sess)
}

// Leave removes a session and cleans up whatever it was holding. It is
// idempotent: calling it for a session already pruned is a no-op, so the
// disconnect hook and lazy broadcast cleanup cannot double-fire.
func (r *RoomRegistry) Leave(sess *runtime.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[sess.RoomKey]
	if !ok {
		return
	}

	r.removeLocked(sess.RoomKey, rm, sess)
}

// RequestFloor attempts to take the floor. It reports whether the floor is
// now held by the identity and who holds it after the call. A request against
// an unknown room fails with no holder.
func (r *RoomRegistry) RequestFloor(roomKey, identity string) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomKey]
	if !ok {
		return false, ""
	}

	// An identity with no live connection cannot take the floor. Its session
	// may have been pruned by a broadcast while the read loop still had a
	// request in flight; granting here would wedge the floor on an identity
	// that is no longer present.
	if rm.members[identity] == 0 {
		return false, rm.floor
	}

	switch rm.floor {
	case "":
		rm.floor = identity
		r.broadcastLocked(roomKey, rm, events.NewPTTGranted(identity), nil)

		return true, identity
	case identity:
		// Requester already holds the floor. No duplicate broadcast.
		return true, identity
	default:
		return false, rm.floor
	}
}

// ReleaseFloor frees the floor if the identity holds it. A release by a
// non-holder is silently ignored.
func (r *RoomRegistry) ReleaseFloor(roomKey, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomKey]
	if !ok || rm.floor != identity {
		return
	}

	rm.floor = ""
	r.broadcastLocked(roomKey, rm, events.NewPTTReleased(identity), nil)
}

// Relay delivers a sender-attributed envelope to every session in the
// sender's room, the sender included. A sender that is no longer part of the
// room, because a broadcast pruned it while its read loop was still draining
// frames, is ignored.
func (r *RoomRegistry) Relay(sender *runtime.Session, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[sender.RoomKey]
	if !ok {
		return
	}

	if _, ok := rm.conns[sender]; !ok {
		return
	}

	r.broadcastLocked(sender.RoomKey, rm, payload, nil)
}

// FloorHolder reports the current floor holder of a room.
func (r *RoomRegistry) FloorHolder(roomKey string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomKey]
	if !ok || rm.floor == "" {
		return "", false
	}

	return rm.floor, true
}

// Rooms returns a sorted snapshot of all live rooms.
func (r *RoomRegistry) Rooms() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RoomInfo, 0, len(r.rooms))
	for key, rm := range r.rooms {
		out = append(out, RoomInfo{
			Key:         key,
			Users:       rm.users(),
			FloorHolder: rm.floor,
			Connections: len(rm.conns),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}

// removeLocked performs the single cleanup path for a departing session:
// connection set, per-identity presence count, floor, room teardown, and the
// resulting broadcasts. Caller holds r.mu. Safe to call more than once for
// the same session.
func (r *RoomRegistry) removeLocked(roomKey string, rm *room, sess *runtime.Session) {
	if _, ok := rm.conns[sess]; !ok {
		return
	}
	delete(rm.conns, sess)

	floorReleased := false
	if n := rm.members[sess.Identity]; n <= 1 {
		delete(rm.members, sess.Identity)
		if rm.floor == sess.Identity {
			rm.floor = ""
			floorReleased = true
		}
	} else {
		rm.members[sess.Identity] = n - 1
	}

	if len(rm.conns) == 0 {
		delete(r.rooms, roomKey)
		metric.SetActiveRooms(len(r.rooms))

		return
	}

	if floorReleased {
		r.broadcastLocked(roomKey, rm, events.NewPTTReleased(sess.Identity), nil)
	}

	r.broadcastLocked(roomKey, rm, events.NewPresenceLeave(sess.Identity, rm.users()), nil)
}

// broadcastLocked delivers payload to every session except exclude. Delivery
// is best-effort per recipient: a session that fails the write is closed and
// removed within the same critical section, and the other recipients still
// get the payload. Caller holds r.mu.
func (r *RoomRegistry) broadcastLocked(roomKey string, rm *room, payload any, exclude *runtime.Session) {
	var failed []*runtime.Session

	for sess := range rm.conns {
		if sess == exclude {
			continue
		}

		if err := sess.Send(payload); err != nil {
			slog.Warn(
				"broadcast delivery failed, pruning session",
				slog.Any(constant.Error, err),
				slog.String(constant.UserID, sess.Identity),
				slog.String(constant.RoomKey, roomKey),
			)
			failed = append(failed, sess)
		}
	}

	for _, sess := range failed {
		sess.Close()
		metric.IncrementPrunedSessions()
		r.removeLocked(roomKey, rm, sess)
	}
}
