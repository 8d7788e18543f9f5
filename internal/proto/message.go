package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom = "join_room"
	InboundTypeMessage  = "message"
	InboundTypeTyping   = "typing"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventRoomJoined       = "room_joined"
	EventRoomMessages     = "room_messages"
	EventReceiveMessage   = "receive_message"
	EventUserTyping       = "user_typing"
	EventUserJoined       = "user_joined"
	EventUserStatus       = "user_status"
	EventRateLimitWarning = "rate_limit_warning"
	EventError            = "error"
)

// JoinRoomData requests to join a room the user is a member of.
type JoinRoomData struct {
	RoomID int64 `json:"roomId" validate:"required,gt=0"`
}

// MessageData is a chat message from the client.
type MessageData struct {
	RoomID  int64  `json:"roomId" validate:"required,gt=0"`
	Content string `json:"content"`
}

// TypingData toggles the typing indicator in a room.
type TypingData struct {
	RoomID   int64 `json:"roomId" validate:"required,gt=0"`
	IsTyping bool  `json:"isTyping"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Sender identifies the author of a message.
type Sender struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// EventMessage is a chat message as delivered to room subscribers.
type EventMessage struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Sender    Sender `json:"sender"`
	RoomID    int64  `json:"roomId"`
	CreatedAt string `json:"createdAt"`
	Timestamp string `json:"timestamp"`
}

// EventRoomMessagesData carries recent history, oldest first.
type EventRoomMessagesData struct {
	RoomID   int64          `json:"roomId"`
	Messages []EventMessage `json:"messages"`
}

// EventRoomJoinedData confirms a join.
type EventRoomJoinedData struct {
	RoomID  int64  `json:"roomId"`
	Message string `json:"message"`
}

// EventUserTypingData relays a typing indicator.
type EventUserTypingData struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	RoomID    int64  `json:"roomId"`
	IsTyping  bool   `json:"isTyping"`
	Timestamp string `json:"timestamp"`
}

// EventUserJoinedData notifies that a user joined a room.
type EventUserJoinedData struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	RoomID    int64  `json:"roomId"`
	Timestamp string `json:"timestamp"`
}

// EventUserStatusData reports presence. RoomID is set for offline notices.
type EventUserStatusData struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	Status    string `json:"status"`
	RoomID    int64  `json:"roomId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// EventRateLimitWarningData warns a sender that few messages remain.
type EventRateLimitWarningData struct {
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"resetTime"`
}

// Error describes a protocol-level error response.
// Rate limit errors fill Type, Limit, ResetTime (unix ms) and WaitTime (ms).
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	ResetTime int64  `json:"resetTime,omitempty"`
	WaitTime  int64  `json:"waitTime,omitempty"`
}
