package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/store"
)

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	store store.UserStore
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		log:   logger,
	}
}

// UserResponse represents a user in API responses. The password hash is never exposed.
type UserResponse struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	LastSeen  *string `json:"lastSeen,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

func userResponse(u *store.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: formatTime(u.CreatedAt),
	}
	if u.LastSeen != nil {
		seen := formatTime(*u.LastSeen)
		resp.LastSeen = &seen
	}
	return resp
}

// Me returns the authenticated user's profile.
// GET /api/auth/me
func (h *UserHandlers) Me(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "User not authenticated", "")
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "User not found", "")
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to load user")
		fail(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	respond(c, http.StatusOK, "User retrieved successfully", userResponse(user))
}
