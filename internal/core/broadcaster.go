package core

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Broadcaster fans events out to the connections subscribed to a room.
type Broadcaster struct {
	log *zerolog.Logger

	mu    sync.Mutex
	rooms map[int64]*room
}

// NewBroadcaster creates a broadcaster. A nil logger disables drop logging.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broadcaster{
		log:   logger,
		rooms: make(map[int64]*room),
	}
}

func (b *Broadcaster) room(roomID int64, create bool) *room {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rooms[roomID]
	if !ok && create {
		r = newRoom(roomID)
		b.rooms[roomID] = r
	}
	return r
}

// Subscribe adds the client to the room's delivery set. Idempotent.
func (b *Broadcaster) Subscribe(roomID int64, c *Client) {
	for {
		r := b.room(roomID, true)
		r.mu.Lock()
		if r.dead {
			r.mu.Unlock()
			continue
		}
		r.add(c)
		r.mu.Unlock()
		return
	}
}

// Unsubscribe removes the connection from the room. Idempotent.
func (b *Broadcaster) Unsubscribe(roomID int64, connID string) {
	r := b.room(roomID, false)
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(connID)
	if r.empty() && !r.dead {
		r.dead = true
		b.mu.Lock()
		if b.rooms[roomID] == r {
			delete(b.rooms, roomID)
		}
		b.mu.Unlock()
	}
}

// Broadcast delivers the event to every subscriber of the room except excludeConnID.
func (b *Broadcaster) Broadcast(roomID int64, ev *Event, excludeConnID string) {
	r := b.room(roomID, false)
	if r == nil {
		return
	}

	r.mu.Lock()
	dropped := r.broadcast(ev, excludeConnID)
	r.mu.Unlock()

	for _, id := range dropped {
		b.log.Debug().
			Str("conn_id", id).
			Int64("room_id", roomID).
			Stringer("event", ev.Kind).
			Msg("event dropped for slow consumer")
	}
}

// BroadcastAll delivers the event to every subscriber of the room.
func (b *Broadcaster) BroadcastAll(roomID int64, ev *Event) {
	b.Broadcast(roomID, ev, "")
}

// Subscribers returns a sorted snapshot of the connection ids subscribed to the room.
func (b *Broadcaster) Subscribers(roomID int64) []string {
	r := b.room(roomID, false)
	if r == nil {
		return nil
	}

	r.mu.Lock()
	ids := lo.Keys(r.clients)
	r.mu.Unlock()

	slices.Sort(ids)
	return ids
}

// Rooms returns the number of rooms with at least one subscriber.
func (b *Broadcaster) Rooms() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rooms)
}
