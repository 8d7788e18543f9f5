package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/roomchat-server/internal/service/rooms"
	"github.com/vovakirdan/roomchat-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	rooms *rooms.Service
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(roomService *rooms.Service, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		rooms: roomService,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=64"`
	IsPrivate bool   `json:"isPrivate"`
}

// JoinRoomRequest represents the join room request body.
type JoinRoomRequest struct {
	InviteCode string `json:"inviteCode" binding:"required"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IsPrivate  bool   `json:"isPrivate"`
	InviteCode string `json:"inviteCode"`
	OwnerID    int64  `json:"ownerId"`
	CreatedAt  string `json:"createdAt"`
}

// JoinRoomResponse is returned after joining by invite code.
type JoinRoomResponse struct {
	Message string       `json:"message"`
	Room    RoomResponse `json:"room"`
}

// RoomMessagesResponse is a page of room history.
type RoomMessagesResponse struct {
	RoomID   int64             `json:"roomId"`
	Messages []MessageResponse `json:"messages"`
	Count    int               `json:"count"`
}

// MessageResponse represents a stored message in API responses.
type MessageResponse struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	SenderID  int64  `json:"senderId"`
	Sender    string `json:"sender"`
	RoomID    int64  `json:"roomId"`
	CreatedAt string `json:"createdAt"`
}

func roomResponse(r *store.Room) RoomResponse {
	return RoomResponse{
		ID:         r.ID,
		Name:       r.Name,
		IsPrivate:  r.IsPrivate,
		InviteCode: r.InviteCode,
		OwnerID:    r.OwnerID,
		CreatedAt:  formatTime(r.CreatedAt),
	}
}

func messageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Content:   m.Body,
		SenderID:  m.UserID,
		Sender:    m.SenderUsername,
		RoomID:    m.RoomID,
		CreatedAt: formatTime(m.CreatedAt),
	}
}

// CreateRoom handles room creation.
// POST /api/rooms/create
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "User not authenticated", "")
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		fail(c, http.StatusBadRequest, "Failed to create room", err.Error())
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), uid, req.Name, req.IsPrivate)
	if err != nil {
		if errors.Is(err, rooms.ErrInvalidRoomName) {
			fail(c, http.StatusBadRequest, "Failed to create room", err.Error())
			return
		}
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		fail(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	h.log.Info().Str("room_name", room.Name).Int64("room_id", room.ID).Int64("owner_id", uid).Msg("room created successfully")
	respond(c, http.StatusCreated, "Room created successfully", roomResponse(room))
}

// JoinRoom adds the caller to the room behind an invite code.
// POST /api/rooms/join
func (h *RoomHandlers) JoinRoom(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "User not authenticated", "")
		return
	}

	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Failed to join room", err.Error())
		return
	}

	room, err := h.rooms.JoinByInviteCode(c.Request.Context(), uid, req.InviteCode)
	if err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			fail(c, http.StatusNotFound, "Failed to join room", "Invalid invite code")
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to join room")
		fail(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	h.log.Info().Int64("room_id", room.ID).Int64("user_id", uid).Msg("user joined room")
	respond(c, http.StatusOK, "Successfully joined room", JoinRoomResponse{
		Message: "Successfully joined room",
		Room:    roomResponse(room),
	})
}

// ListRooms lists the rooms the caller is a member of.
// GET /api/rooms/my
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "User not authenticated", "")
		return
	}

	list, err := h.rooms.ListUserRooms(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list rooms")
		fail(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	h.log.Debug().Int64("user_id", uid).Int("room_count", len(list)).Msg("rooms listed successfully")
	respond(c, http.StatusOK, "Rooms retrieved successfully", lo.Map(list, func(r *store.Room, _ int) RoomResponse {
		return roomResponse(r)
	}))
}

// RoomMessages returns recent room history, oldest first.
// GET /api/rooms/:roomId/messages?limit=N
func (h *RoomHandlers) RoomMessages(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "User not authenticated", "")
		return
	}

	roomID, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		fail(c, http.StatusBadRequest, "Invalid room ID", "")
		return
	}

	limit := rooms.DefaultMessagePageSize
	if raw := c.Query("limit"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
			limit = n
		}
	}

	msgs, err := h.rooms.RoomMessages(c.Request.Context(), uid, roomID, limit)
	if err != nil {
		if errors.Is(err, rooms.ErrNotMember) {
			fail(c, http.StatusForbidden, "Access denied to this room", "")
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to list messages")
		fail(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	respond(c, http.StatusOK, "Messages retrieved successfully", RoomMessagesResponse{
		RoomID:   roomID,
		Messages: lo.Map(msgs, func(m *store.Message, _ int) MessageResponse { return messageResponse(m) }),
		Count:    len(msgs),
	})
}
