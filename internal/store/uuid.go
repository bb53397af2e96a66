package store

import "github.com/google/uuid"

// NewItemID generates a fresh random item identifier.
func NewItemID() ItemID {
	return uuid.NewString()
}
