package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/roomchat-server/internal/store"
	"github.com/vovakirdan/roomchat-server/internal/utils"
)

const (
	defaultAuthTimeout     = 5 * time.Second
	defaultHistoryPageSize = 20
	defaultWarnThreshold   = 2

	msgJoined = "Successfully joined room"
)

// Authenticator resolves a bearer token into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// HubStore is the persistence the hub needs.
type HubStore interface {
	MembershipChecker
	SaveMessage(ctx context.Context, msg *store.Message) error
	ListMessages(ctx context.Context, roomID int64, limit int, beforeID *int64) ([]*store.Message, error)
	UpdateLastSeen(ctx context.Context, id int64, at time.Time) error
}

// HubConfig tunes the connection protocol.
type HubConfig struct {
	AuthTimeout     time.Duration
	HistoryPageSize int
	WarnThreshold   int
	ClientBuffer    int
	RateLimit       RateLimitConfig
}

// Option customizes a Hub.
type Option func(*Hub)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clk clock.Clock) Option {
	return func(h *Hub) { h.clock = clk }
}

// WithLogger sets the hub logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) { h.log = logger }
}

// WithIDGenerator replaces the connection id generator.
func WithIDGenerator(fn func() string) Option {
	return func(h *Hub) { h.newID = fn }
}

// Hub runs the per-connection protocol: authentication, room joins,
// rate-limited messaging, typing relays and disconnect cleanup.
type Hub struct {
	cfg   HubConfig
	auth  Authenticator
	store HubStore
	clock clock.Clock
	log   *zerolog.Logger
	newID func() string

	guard       *MembershipGuard
	registry    *SessionRegistry
	broadcaster *Broadcaster
	limiter     *RateLimiter
}

// NewHub creates a new chat hub instance.
func NewHub(cfg HubConfig, authn Authenticator, st HubStore, opts ...Option) *Hub {
	if cfg.AuthTimeout <= 0 {
		cfg.AuthTimeout = defaultAuthTimeout
	}
	if cfg.HistoryPageSize <= 0 {
		cfg.HistoryPageSize = defaultHistoryPageSize
	}
	if cfg.WarnThreshold < 0 {
		cfg.WarnThreshold = defaultWarnThreshold
	}

	nop := zerolog.Nop()
	h := &Hub{
		cfg:   cfg,
		auth:  authn,
		store: st,
		clock: clock.New(),
		log:   &nop,
		newID: utils.NewID,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.guard = NewMembershipGuard(st)
	h.registry = NewSessionRegistry()
	h.broadcaster = NewBroadcaster(h.log)
	h.limiter = NewRateLimiter(cfg.RateLimit, h.clock)
	return h
}

// Sessions returns the number of authenticated connections.
func (h *Hub) Sessions() int {
	return h.registry.Len()
}

// Run performs background maintenance until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.limiter.Run(ctx)
}

type authResult struct {
	identity Identity
	err      error
}

// Connect authenticates a token and registers a new client for it.
// Any failure is reported as ErrAuthentication and leaves no state behind.
func (h *Hub) Connect(ctx context.Context, token string) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: missing token", ErrAuthentication)
	}

	authCtx, cancel := context.WithTimeout(ctx, h.cfg.AuthTimeout)
	defer cancel()

	resCh := make(chan authResult, 1)
	go func() {
		identity, err := h.auth.Authenticate(authCtx, token)
		resCh <- authResult{identity: identity, err: err}
	}()

	var identity Identity
	select {
	case res := <-resCh:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAuthentication, res.err)
		}
		identity = res.identity
	case <-authCtx.Done():
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, authCtx.Err())
	}

	client := NewClient(h.newID(), identity, h.cfg.ClientBuffer)
	if err := h.registry.Register(client.ID, identity); err != nil {
		return nil, err
	}

	now := h.clock.Now()
	if err := h.store.UpdateLastSeen(ctx, identity.UserID, now); err != nil {
		h.log.Warn().Err(err).Int64("user_id", identity.UserID).Msg("update last seen on connect")
	}

	client.Deliver(&Event{
		Kind:      EventUserStatus,
		User:      identity,
		Status:    StatusOnline,
		Timestamp: now,
	})

	h.log.Info().
		Str("conn_id", client.ID).
		Int64("user_id", identity.UserID).
		Str("username", identity.Username).
		Msg("client connected")
	return client, nil
}

// Serve processes the client's commands in order until the command queue
// closes or ctx ends, then disconnects the client.
func (h *Hub) Serve(ctx context.Context, c *Client) {
	defer h.Disconnect(context.WithoutCancel(ctx), c)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			h.handleCommand(ctx, c, cmd)
		}
	}
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	if cmd == nil {
		return
	}

	var err error
	switch cmd.Kind {
	case CommandJoinRoom:
		err = h.joinRoom(ctx, c, cmd.RoomID)
	case CommandSendMessage:
		err = h.sendMessage(ctx, c, cmd.RoomID, cmd.Content)
	case CommandTyping:
		err = h.typing(c, cmd.RoomID, cmd.IsTyping)
	default:
		err = coreError(ErrCodeBadRequest, "unknown command")
	}
	if err == nil {
		return
	}

	var ce *CoreError
	if !errors.As(err, &ce) {
		h.log.Error().Err(err).Str("conn_id", c.ID).Stringer("command", cmd.Kind).Msg("command failed")
		ce = coreError(ErrCodeInternal, "Internal server error")
	}
	h.sendError(c, ce)
}

func (h *Hub) sendError(c *Client, ce *CoreError) {
	c.Deliver(&Event{
		Kind:      EventError,
		Error:     ce,
		Timestamp: h.clock.Now(),
	})
}

func (h *Hub) joinRoom(ctx context.Context, c *Client, roomID int64) error {
	member, err := h.guard.IsMember(ctx, c.Identity.UserID, roomID)
	if err != nil {
		h.log.Error().Err(err).Str("conn_id", c.ID).Int64("room_id", roomID).Msg("join room")
		return coreError(ErrCodeInternal, "Failed to join room")
	}
	if !member {
		return coreError(ErrCodeAccessDenied, "Access denied to this room")
	}

	h.broadcaster.Subscribe(roomID, c)
	if err := h.registry.AddRoom(c.ID, roomID); err != nil {
		h.broadcaster.Unsubscribe(roomID, c.ID)
		return err
	}

	h.broadcaster.Broadcast(roomID, &Event{
		Kind:      EventUserJoined,
		RoomID:    roomID,
		User:      c.Identity,
		Timestamp: h.clock.Now(),
	}, c.ID)

	history, err := h.store.ListMessages(ctx, roomID, h.cfg.HistoryPageSize, nil)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("load room history")
		return coreError(ErrCodeInternal, "Failed to load room history")
	}
	c.Deliver(&Event{
		Kind:     EventRoomMessages,
		RoomID:   roomID,
		Messages: lo.Map(history, func(m *store.Message, _ int) Message { return messageFromStore(m) }),
	})
	c.Deliver(&Event{
		Kind:      EventRoomJoined,
		RoomID:    roomID,
		Text:      msgJoined,
		Timestamp: h.clock.Now(),
	})

	h.log.Debug().Str("conn_id", c.ID).Int64("room_id", roomID).Msg("joined room")
	return nil
}

func (h *Hub) sendMessage(ctx context.Context, c *Client, roomID int64, content string) error {
	userID := c.Identity.UserID
	if !h.limiter.Permit(userID) {
		return h.rateLimitError(userID)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return coreError(ErrCodeValidation, "Message content cannot be empty")
	}

	member, err := h.guard.IsMember(ctx, userID, roomID)
	if err != nil {
		h.log.Error().Err(err).Str("conn_id", c.ID).Int64("room_id", roomID).Msg("send message")
		return coreError(ErrCodeInternal, "Failed to send message")
	}
	if !member {
		return coreError(ErrCodeAccessDenied, "User is not a member of this room")
	}

	msg := &store.Message{
		RoomID:         roomID,
		UserID:         userID,
		SenderUsername: c.Identity.Username,
		Body:           content,
		CreatedAt:      h.clock.Now(),
	}
	if err := h.store.SaveMessage(ctx, msg); err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Int64("user_id", userID).Msg("save message")
		return coreError(ErrCodeInternal, "Failed to send message")
	}

	delivered := messageFromStore(msg)
	h.broadcaster.BroadcastAll(roomID, &Event{
		Kind:      EventReceiveMessage,
		RoomID:    roomID,
		User:      c.Identity,
		Message:   &delivered,
		Timestamp: h.clock.Now(),
	})

	if remaining := h.limiter.Remaining(userID); remaining <= h.cfg.WarnThreshold {
		c.Deliver(&Event{
			Kind:      EventRateLimitWarning,
			Remaining: remaining,
			ResetAt:   h.limiter.ResetAt(userID),
			Timestamp: h.clock.Now(),
		})
	}
	return nil
}

func (h *Hub) rateLimitError(userID int64) *CoreError {
	cfg := h.limiter.Config()
	resetAt := h.limiter.ResetAt(userID)
	wait := max(0, resetAt.Sub(h.clock.Now()))

	return &CoreError{
		Code: ErrCodeRateLimited,
		Message: fmt.Sprintf(
			"Rate limit exceeded. Maximum %d messages per %s. Try again in %d seconds.",
			cfg.MaxMessages, cfg.Window, int(math.Ceil(wait.Seconds())),
		),
		Type:    ErrTypeRateLimitExceeded,
		Limit:   cfg.MaxMessages,
		ResetAt: resetAt,
		Wait:    wait,
	}
}

func (h *Hub) typing(c *Client, roomID int64, isTyping bool) error {
	if !h.registry.InRoom(c.ID, roomID) {
		return coreError(ErrCodeNotInRoom, "Join the room before sending typing updates")
	}

	h.broadcaster.Broadcast(roomID, &Event{
		Kind:      EventUserTyping,
		RoomID:    roomID,
		User:      c.Identity,
		IsTyping:  isTyping,
		Timestamp: h.clock.Now(),
	}, c.ID)
	return nil
}

// Disconnect removes the client from every room it joined and tells the
// remaining subscribers it went offline. Only the first call has an effect.
func (h *Hub) Disconnect(ctx context.Context, c *Client) {
	defer c.Close()

	rooms, ok := h.registry.Unregister(c.ID)
	if !ok {
		return
	}

	now := h.clock.Now()
	for _, roomID := range rooms {
		h.broadcaster.Unsubscribe(roomID, c.ID)
		h.broadcaster.BroadcastAll(roomID, &Event{
			Kind:      EventUserStatus,
			RoomID:    roomID,
			User:      c.Identity,
			Status:    StatusOffline,
			Timestamp: now,
		})
	}

	if err := h.store.UpdateLastSeen(ctx, c.Identity.UserID, now); err != nil {
		h.log.Warn().Err(err).Int64("user_id", c.Identity.UserID).Msg("update last seen on disconnect")
	}

	h.log.Info().
		Str("conn_id", c.ID).
		Int64("user_id", c.Identity.UserID).
		Int("rooms", len(rooms)).
		Msg("client disconnected")
}

func messageFromStore(m *store.Message) Message {
	return Message{
		ID:             m.ID,
		RoomID:         m.RoomID,
		SenderID:       m.UserID,
		SenderUsername: m.SenderUsername,
		Content:        m.Body,
		CreatedAt:      m.CreatedAt,
	}
}
