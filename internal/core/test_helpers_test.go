package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/roomchat-server/internal/store"
)

type memberKey struct {
	userID int64
	roomID int64
}

// fakeStore is an in-memory HubStore.
type fakeStore struct {
	mu       sync.Mutex
	members  map[memberKey]bool
	messages []*store.Message
	lastSeen map[int64]time.Time
	nextID   int64
	saveErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:  make(map[memberKey]bool),
		lastSeen: make(map[int64]time.Time),
	}
}

func (s *fakeStore) addMember(userID, roomID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey{userID, roomID}] = true
}

func (s *fakeStore) IsMember(_ context.Context, userID, roomID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[memberKey{userID, roomID}], nil
}

func (s *fakeStore) SaveMessage(_ context.Context, msg *store.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.nextID++
	msg.ID = s.nextID
	cp := *msg
	s.messages = append(s.messages, &cp)
	return nil
}

func (s *fakeStore) ListMessages(_ context.Context, roomID int64, limit int, _ *int64) ([]*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inRoom []*store.Message
	for _, m := range s.messages {
		if m.RoomID == roomID {
			inRoom = append(inRoom, m)
		}
	}
	if len(inRoom) > limit {
		inRoom = inRoom[len(inRoom)-limit:]
	}
	return inRoom, nil
}

func (s *fakeStore) UpdateLastSeen(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[id] = at
	return nil
}

func (s *fakeStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// fakeAuth maps tokens to identities. A nil block channel means no delay.
type fakeAuth struct {
	identities map[string]Identity
	block      chan struct{}
}

func (a *fakeAuth) Authenticate(ctx context.Context, token string) (Identity, error) {
	if a.block != nil {
		select {
		case <-a.block:
		case <-ctx.Done():
			return Identity{}, ctx.Err()
		}
	}
	id, ok := a.identities[token]
	if !ok {
		return Identity{}, errors.New("unknown token")
	}
	return id, nil
}

var (
	alice = Identity{UserID: 1, Username: "alice", Email: "alice@example.com"}
	bob   = Identity{UserID: 2, Username: "bob", Email: "bob@example.com"}
	carol = Identity{UserID: 3, Username: "carol", Email: "carol@example.com"}
)

type testHub struct {
	hub   *Hub
	store *fakeStore
	auth  *fakeAuth
	clock *clock.Mock
}

func newTestHub(t *testing.T, cfg HubConfig) *testHub {
	t.Helper()

	if cfg.RateLimit.MaxMessages == 0 {
		cfg.RateLimit = RateLimitConfig{MaxMessages: 5, Window: 10 * time.Second}
	}
	if cfg.WarnThreshold == 0 {
		cfg.WarnThreshold = 2
	}

	st := newFakeStore()
	authn := &fakeAuth{identities: map[string]Identity{
		"alice-token": alice,
		"bob-token":   bob,
		"carol-token": carol,
	}}
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	return &testHub{
		hub:   NewHub(cfg, authn, st, WithClock(mock)),
		store: st,
		auth:  authn,
		clock: mock,
	}
}

// connect authenticates the token and starts serving the client until the test ends.
func (th *testHub) connect(t *testing.T, token string) *Client {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c, err := th.hub.Connect(ctx, token)
	require.NoError(t, err)
	mustEvent(t, c, EventUserStatus)

	go th.hub.Serve(ctx, c)
	return c
}

func (th *testHub) join(t *testing.T, c *Client, roomID int64) {
	t.Helper()
	c.Commands <- &Command{Kind: CommandJoinRoom, RoomID: roomID}
	mustEvent(t, c, EventRoomJoined)
}

// mustEvent waits for the next event of the given kind, skipping others.
func mustEvent(t *testing.T, c *Client, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.Events:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event %v not received", kind)
			return nil
		}
	}
}

// collectUntil returns every event up to and including the first one of kind.
func collectUntil(t *testing.T, c *Client, kind EventKind) []*Event {
	t.Helper()

	var events []*Event
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.Events:
			events = append(events, ev)
			if ev.Kind == kind {
				return events
			}
		case <-deadline:
			t.Fatalf("expected event %v not received, got %d others", kind, len(events))
			return nil
		}
	}
}

func mustError(t *testing.T, c *Client, code string) *CoreError {
	t.Helper()

	ev := mustEvent(t, c, EventError)
	require.NotNil(t, ev.Error)
	require.Equal(t, code, ev.Error.Code, ev.Error.Message)
	return ev.Error
}

func drain(c *Client) []*Event {
	var events []*Event
	for {
		select {
		case ev := <-c.Events:
			events = append(events, ev)
		default:
			return events
		}
	}
}
