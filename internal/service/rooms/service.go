package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/jaevor/go-nanoid"

	"github.com/vovakirdan/roomchat-server/internal/store"
)

const (
	DefaultInviteCodeLength = 10
	DefaultMessagePageSize  = 50
	MaxMessagePageSize      = 100

	maxRoomNameLength  = 64
	inviteCodeAttempts = 3
)

// Common errors for room operations.
var (
	ErrInvalidRoomName = errors.New("invalid room name")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotMember       = errors.New("user is not a member of this room")
)

// Service provides room management business logic.
type Service struct {
	store         store.Store
	newInviteCode func() string
}

// New creates a new room service that issues invite codes of the given length.
func New(st store.Store, inviteCodeLength int) (*Service, error) {
	if inviteCodeLength <= 0 {
		inviteCodeLength = DefaultInviteCodeLength
	}
	gen, err := gonanoid.Standard(inviteCodeLength)
	if err != nil {
		return nil, fmt.Errorf("invite code generator: %w", err)
	}
	return &Service{
		store:         st,
		newInviteCode: gen,
	}, nil
}

// CreateRoom creates a room owned by the user; the owner becomes its first member.
func (s *Service) CreateRoom(ctx context.Context, ownerID int64, name string, isPrivate bool) (*store.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxRoomNameLength {
		return nil, ErrInvalidRoomName
	}

	var lastErr error
	for range inviteCodeAttempts {
		room := &store.Room{
			Name:       name,
			IsPrivate:  isPrivate,
			InviteCode: s.newInviteCode(),
			OwnerID:    ownerID,
		}
		err := s.store.CreateRoomWithOwner(ctx, room)
		if err == nil {
			return room, nil
		}
		// Invite codes are random; a collision just needs a fresh code.
		if !strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("create room: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("create room: %w", lastErr)
}

// JoinByInviteCode adds the user to the room behind the code. Joining twice is a no-op.
func (s *Service) JoinByInviteCode(ctx context.Context, userID int64, code string) (*store.Room, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrRoomNotFound
	}

	room, err := s.store.GetRoomByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}

	if err := s.store.AddMember(ctx, userID, room.ID); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return room, nil
}

// ListUserRooms lists the rooms the user belongs to.
func (s *Service) ListUserRooms(ctx context.Context, userID int64) ([]*store.Room, error) {
	rooms, err := s.store.ListUserRooms(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// RoomMessages returns up to limit of the newest messages, oldest first.
// A non-positive limit means DefaultMessagePageSize; larger values are capped.
func (s *Service) RoomMessages(ctx context.Context, userID, roomID int64, limit int) ([]*store.Message, error) {
	ok, err := s.store.IsMember(ctx, userID, roomID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return nil, ErrNotMember
	}

	switch {
	case limit <= 0:
		limit = DefaultMessagePageSize
	case limit > MaxMessagePageSize:
		limit = MaxMessagePageSize
	}

	msgs, err := s.store.ListMessages(ctx, roomID, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}
