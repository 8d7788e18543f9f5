package core

import "sync"

// room groups clients subscribed to the same chat room.
// mu is held across add, remove and broadcast so deliveries to a room are serialized.
type room struct {
	id      int64
	mu      sync.Mutex
	clients map[string]*Client
	dead    bool
}

func newRoom(id int64) *room {
	return &room{
		id:      id,
		clients: make(map[string]*Client),
	}
}

// add inserts a client into the room. Returns true if newly added.
func (r *room) add(c *Client) bool {
	if _, exists := r.clients[c.ID]; exists {
		return false
	}
	r.clients[c.ID] = c
	return true
}

// remove deletes a client from the room. Returns true if removed.
func (r *room) remove(connID string) bool {
	if _, exists := r.clients[connID]; !exists {
		return false
	}
	delete(r.clients, connID)
	return true
}

// broadcast sends an event to every client except excludeID.
// Slow consumers miss the event; the ids of those clients are returned.
func (r *room) broadcast(event *Event, excludeID string) []string {
	var dropped []string
	for id, client := range r.clients {
		if id == excludeID {
			continue
		}
		if !client.Deliver(event) {
			dropped = append(dropped, id)
		}
	}
	return dropped
}

func (r *room) empty() bool {
	return len(r.clients) == 0
}
