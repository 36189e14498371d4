package events

import (
	"encoding/json"
	"errors"
)

// Envelope type tags shared by inbound and outbound frames.
const (
	TypeState    = "state"
	TypePresence = "presence"
	TypePTT      = "ptt"
	TypeMessage  = "message"
	TypeEvent    = "event"
)

// Envelope actions.
const (
	ActionRequest  = "request"
	ActionRelease  = "release"
	ActionGranted  = "granted"
	ActionDenied   = "denied"
	ActionReleased = "released"
	ActionJoin     = "join"
	ActionLeave    = "leave"
)

// ErrUnknownType marks an inbound frame whose type tag is missing or not part
// of the protocol. Such frames are dropped without closing the connection.
var ErrUnknownType = errors.New("unknown envelope type")

// Inbound is the closed set of frames a client may send.
type Inbound interface {
	FrameType() string
}

// PTTCommand requests or releases the room floor.
type PTTCommand struct {
	Action string
}

func (PTTCommand) FrameType() string { return TypePTT }

// ChatMessage is a free-text message relayed to the room, optionally tagged
// with a downstream routing channel.
type ChatMessage struct {
	Body    string
	Channel string
}

func (ChatMessage) FrameType() string { return TypeMessage }

// EventSignal is a generic signal relayed to the room without interpretation.
type EventSignal struct {
	Action string
	Event  json.RawMessage
}

func (EventSignal) FrameType() string { return TypeEvent }

// DecodeInbound parses a raw frame into one of the inbound variants.
func DecodeInbound(data []byte) (Inbound, error) {
	var frame struct {
		Type    string          `json:"type"`
		Action  string          `json:"action"`
		Body    string          `json:"body"`
		Channel string          `json:"channel"`
		Event   json.RawMessage `json:"event"`
	}

	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}

	switch frame.Type {
	case TypePTT:
		return PTTCommand{Action: frame.Action}, nil
	case TypeMessage:
		return ChatMessage{Body: frame.Body, Channel: frame.Channel}, nil
	case TypeEvent:
		return EventSignal{Action: frame.Action, Event: frame.Event}, nil
	default:
		return nil, ErrUnknownType
	}
}

// State is the snapshot sent to a connection right after it joins, before any
// broadcast can reach it. PTTFloor serializes as null while the floor is free.
type State struct {
	Type     string   `json:"type"`
	PTTFloor *string  `json:"ptt_floor"`
	Users    []string `json:"users"`
}

func NewState(floorHolder string, users []string) State {
	var holder *string
	if floorHolder != "" {
		holder = &floorHolder
	}

	return State{Type: TypeState, PTTFloor: holder, Users: users}
}

// Presence notifies remaining members about a join or leave.
type Presence struct {
	Type   string   `json:"type"`
	Action string   `json:"action"`
	UserID string   `json:"user_id"`
	Users  []string `json:"users"`
}

func NewPresenceJoin(userID string, users []string) Presence {
	return Presence{Type: TypePresence, Action: ActionJoin, UserID: userID, Users: users}
}

func NewPresenceLeave(userID string, users []string) Presence {
	return Presence{Type: TypePresence, Action: ActionLeave, UserID: userID, Users: users}
}

// PTT announces floor transitions. Granted and released carry the acting
// identity; denied carries the current holder and goes to the requester only.
type PTT struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	UserID string `json:"user_id,omitempty"`
	Holder string `json:"holder,omitempty"`
}

func NewPTTGranted(userID string) PTT {
	return PTT{Type: TypePTT, Action: ActionGranted, UserID: userID}
}

func NewPTTDenied(holder string) PTT {
	return PTT{Type: TypePTT, Action: ActionDenied, Holder: holder}
}

func NewPTTReleased(userID string) PTT {
	return PTT{Type: TypePTT, Action: ActionReleased, UserID: userID}
}

// Message is a relayed chat frame tagged with the sending identity.
type Message struct {
	Type    string `json:"type"`
	UserID  string `json:"user_id"`
	Body    string `json:"body"`
	Channel string `json:"channel,omitempty"`
}

func NewMessage(userID, body, channel string) Message {
	return Message{Type: TypeMessage, UserID: userID, Body: body, Channel: channel}
}

// Event is a relayed generic signal.
type Event struct {
	Type   string          `json:"type"`
	Action string          `json:"action"`
	Event  json.RawMessage `json:"event"`
}

func NewEvent(action string, event json.RawMessage) Event {
	return Event{Type: TypeEvent, Action: action, Event: event}
}
