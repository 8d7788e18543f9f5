package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the client to a room it is a member of.
	CommandJoinRoom CommandKind = iota
	// CommandSendMessage persists a chat message and delivers it to the room.
	CommandSendMessage
	// CommandTyping relays a typing indicator to the other room subscribers.
	CommandTyping
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join_room"
	case CommandSendMessage:
		return "message"
	case CommandTyping:
		return "typing"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	RoomID   int64
	Content  string
	IsTyping bool
}
