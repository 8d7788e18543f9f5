package core

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Session is the per-connection state tracked by the registry.
type Session struct {
	ConnID   string
	Identity Identity
	rooms    map[int64]struct{}
}

// SessionRegistry maps live connection ids to their identity and joined rooms.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Register records a freshly authenticated connection.
func (r *SessionRegistry) Register(connID string, identity Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[connID]; exists {
		return ErrSessionExists
	}
	r.sessions[connID] = &Session{
		ConnID:   connID,
		Identity: identity,
		rooms:    make(map[int64]struct{}),
	}
	return nil
}

// AddRoom marks the room as joined by the connection. Adding twice is a no-op.
func (r *SessionRegistry) AddRoom(connID string, roomID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return ErrSessionNotFound
	}
	s.rooms[roomID] = struct{}{}
	return nil
}

// InRoom reports whether the connection has joined the room.
func (r *SessionRegistry) InRoom(connID string, roomID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return false
	}
	_, joined := s.rooms[roomID]
	return joined
}

// IdentityOf returns the identity bound to the connection.
func (r *SessionRegistry) IdentityOf(connID string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return Identity{}, false
	}
	return s.Identity, true
}

// Unregister removes the connection and returns the rooms it had joined, sorted.
// The second result is false when the connection was not registered.
func (r *SessionRegistry) Unregister(connID string) ([]int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return nil, false
	}
	delete(r.sessions, connID)

	rooms := lo.Keys(s.rooms)
	slices.Sort(rooms)
	return rooms, true
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
