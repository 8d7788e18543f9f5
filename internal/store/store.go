package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	LastSeen     *time.Time
	CreatedAt    time.Time
}

// Room represents a chat room.
type Room struct {
	ID         int64
	Name       string
	IsPrivate  bool
	InviteCode string
	OwnerID    int64
	CreatedAt  time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID             int64
	RoomID         int64
	UserID         int64
	SenderUsername string // filled on reads
	Body           string
	CreatedAt      time.Time
}

// RoomMember represents room membership.
type RoomMember struct {
	UserID   int64
	RoomID   int64
	JoinedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByEmailOrUsername returns the first user matching either value.
	GetUserByEmailOrUsername(ctx context.Context, email, username string) (*User, error)

	// UpdateLastSeen stamps the user's last activity time.
	UpdateLastSeen(ctx context.Context, id int64, at time.Time) error
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoomWithOwner creates a room and adds the owner as its first member.
	CreateRoomWithOwner(ctx context.Context, room *Room) error

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// GetRoomByInviteCode retrieves a room by its invite code.
	GetRoomByInviteCode(ctx context.Context, code string) (*Room, error)

	// ListUserRooms lists rooms the user is a member of.
	ListUserRooms(ctx context.Context, userID int64) ([]*Room, error)
}

// MembershipStore handles the user-room membership relation.
type MembershipStore interface {
	// AddMember adds a user to a room. Adding an existing member is a no-op.
	AddMember(ctx context.Context, userID, roomID int64) error

	// RemoveMember removes a user from a room.
	RemoveMember(ctx context.Context, userID, roomID int64) error

	// IsMember checks if user is a member of the room.
	IsMember(ctx context.Context, userID, roomID int64) (bool, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages retrieves the newest messages of a room in chronological order.
	// If beforeID is provided, returns messages older than that ID.
	ListMessages(ctx context.Context, roomID int64, limit int, beforeID *int64) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MembershipStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
