package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomJoined confirms a successful join to the requester.
	EventRoomJoined EventKind = iota
	// EventRoomMessages delivers recent room history to a client upon joining a room.
	EventRoomMessages
	// EventReceiveMessage notifies room subscribers about a new chat message.
	EventReceiveMessage
	// EventUserTyping relays a typing indicator.
	EventUserTyping
	// EventUserJoined notifies other subscribers that a user joined a room.
	EventUserJoined
	// EventUserStatus reports a user going online or offline.
	EventUserStatus
	// EventRateLimitWarning tells a sender it is close to its message limit.
	EventRateLimitWarning
	// EventError notifies clients about a domain error.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventRoomJoined:
		return "room_joined"
	case EventRoomMessages:
		return "room_messages"
	case EventReceiveMessage:
		return "receive_message"
	case EventUserTyping:
		return "user_typing"
	case EventUserJoined:
		return "user_joined"
	case EventUserStatus:
		return "user_status"
	case EventRateLimitWarning:
		return "rate_limit_warning"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// User presence values carried by EventUserStatus.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind      EventKind
	RoomID    int64
	User      Identity
	Text      string    // EventRoomJoined confirmation text
	Message   *Message  // EventReceiveMessage
	Messages  []Message // EventRoomMessages
	Status    string    // EventUserStatus
	IsTyping  bool      // EventUserTyping
	Remaining int       // EventRateLimitWarning
	ResetAt   time.Time // EventRateLimitWarning
	Timestamp time.Time
	Error     *CoreError
}
