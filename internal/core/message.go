package core

import "time"

// Message is the domain model for a chat message as delivered to clients.
type Message struct {
	ID             int64
	RoomID         int64
	SenderID       int64
	SenderUsername string
	Content        string
	CreatedAt      time.Time
}
