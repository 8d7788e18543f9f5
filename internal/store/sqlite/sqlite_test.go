package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vovakirdan/roomchat-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if alice.ID == 0 || alice.LastSeen != nil {
		t.Fatalf("unexpected user: %+v", alice)
	}

	if _, err := s.CreateUser(ctx, "alice", "other@example.com", "hash"); err == nil {
		t.Fatalf("expected unique violation on username")
	}

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil || byEmail.ID != alice.ID {
		t.Fatalf("get by email: %+v, %v", byEmail, err)
	}

	if _, err := s.GetUserByEmailOrUsername(ctx, "nobody@example.com", "alice"); err != nil {
		t.Fatalf("expected match on username, got %v", err)
	}

	if _, err := s.GetUserByID(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	seen := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.UpdateLastSeen(ctx, alice.ID, seen); err != nil {
		t.Fatalf("update last seen: %v", err)
	}
	reloaded, err := s.GetUserByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.LastSeen == nil || !reloaded.LastSeen.Equal(seen) {
		t.Fatalf("expected last seen %v, got %v", seen, reloaded.LastSeen)
	}

	if err := s.UpdateLastSeen(ctx, 999, seen); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestRoomsAndMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner, err := s.CreateUser(ctx, "owner", "owner@example.com", "hash")
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	guest, err := s.CreateUser(ctx, "guest", "guest@example.com", "hash")
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}

	room := &store.Room{Name: "lobby", InviteCode: "abc123", OwnerID: owner.ID}
	if err := s.CreateRoomWithOwner(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.ID == 0 || room.CreatedAt.IsZero() {
		t.Fatalf("room not filled: %+v", room)
	}

	ok, err := s.IsMember(ctx, owner.ID, room.ID)
	if err != nil || !ok {
		t.Fatalf("owner should be a member: %v %v", ok, err)
	}
	ok, err = s.IsMember(ctx, guest.ID, room.ID)
	if err != nil || ok {
		t.Fatalf("guest should not be a member: %v %v", ok, err)
	}

	byCode, err := s.GetRoomByInviteCode(ctx, "abc123")
	if err != nil || byCode.ID != room.ID {
		t.Fatalf("get by invite code: %+v %v", byCode, err)
	}
	if _, err := s.GetRoomByInviteCode(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Upsert semantics: adding twice is fine.
	for range 2 {
		if err := s.AddMember(ctx, guest.ID, room.ID); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}
	rooms, err := s.ListUserRooms(ctx, guest.ID)
	if err != nil || len(rooms) != 1 || rooms[0].ID != room.ID {
		t.Fatalf("list user rooms: %v %v", rooms, err)
	}

	if err := s.RemoveMember(ctx, guest.ID, room.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	ok, err = s.IsMember(ctx, guest.ID, room.ID)
	if err != nil || ok {
		t.Fatalf("guest should no longer be a member: %v %v", ok, err)
	}
}

func TestListMessagesChronological(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "writer", "writer@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	room := &store.Room{Name: "log", InviteCode: "log", OwnerID: user.ID}
	if err := s.CreateRoomWithOwner(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 25 {
		msg := &store.Message{
			RoomID:    room.ID,
			UserID:    user.ID,
			Body:      fmt.Sprintf("m%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message %d: %v", i, err)
		}
		if msg.ID == 0 {
			t.Fatalf("message id not set")
		}
	}

	msgs, err := s.ListMessages(ctx, room.ID, 20, nil)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(msgs))
	}
	if msgs[0].Body != "m5" || msgs[19].Body != "m24" {
		t.Fatalf("unexpected order: first=%s last=%s", msgs[0].Body, msgs[19].Body)
	}
	if msgs[0].SenderUsername != "writer" {
		t.Fatalf("expected sender username, got %q", msgs[0].SenderUsername)
	}

	before := msgs[0].ID
	older, err := s.ListMessages(ctx, room.ID, 20, &before)
	if err != nil {
		t.Fatalf("list older: %v", err)
	}
	if len(older) != 5 || older[4].Body != "m4" {
		t.Fatalf("unexpected older page: %d", len(older))
	}
}
