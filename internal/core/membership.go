package core

import (
	"context"
	"fmt"
)

// MembershipChecker is the storage capability the guard relies on.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, roomID int64) (bool, error)
}

// MembershipGuard answers whether a user may act in a room.
// Results are never cached so joins made through the REST API apply immediately.
type MembershipGuard struct {
	store MembershipChecker
}

// NewMembershipGuard wraps a membership store.
func NewMembershipGuard(store MembershipChecker) *MembershipGuard {
	return &MembershipGuard{store: store}
}

// IsMember reports whether the user is a persisted member of the room.
func (g *MembershipGuard) IsMember(ctx context.Context, userID, roomID int64) (bool, error) {
	ok, err := g.store.IsMember(ctx, userID, roomID)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return ok, nil
}
