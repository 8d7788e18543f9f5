package core

import "sync"

const defaultClientBuffer = 32

// Identity is the authenticated user behind a connection.
type Identity struct {
	UserID   int64
	Username string
	Email    string
}

// Client is a connected chat participant as seen by the core layer.
// The transport feeds Commands and drains Events; the hub never blocks on Events.
type Client struct {
	ID       string
	Identity Identity
	Commands chan *Command
	Events   chan *Event

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string, identity Identity, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		ID:       id,
		Identity: identity,
		Commands: make(chan *Command, buffer),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// Deliver enqueues an event without blocking.
// It reports false when the queue is full or the client is closed.
func (c *Client) Deliver(ev *Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

// Done is closed once the client has been disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close marks the client as disconnected. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
