package utils

import "github.com/google/uuid"

// NewID returns a random UUIDv4 string used as a connection identifier.
func NewID() string {
	return uuid.NewString()
}
