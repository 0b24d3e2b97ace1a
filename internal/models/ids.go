package models

import "github.com/google/uuid"

// NewID returns a random identifier for quotes, clients, reminders and
// signatures. Quote IDs double as the public capability link, so they must
// not be guessable.
func NewID() string {
	return uuid.NewString()
}
