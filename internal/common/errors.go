// Package common defines the sentinel errors shared by the stores, the
// quote lifecycle engine, the reminder scheduler and the delivery layer.
// Callers match them with errors.Is.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers both a missing record and a record owned by
	// another artisan. The two cases are never distinguished.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when the current quote status does
	// not allow the requested operation.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrVersionConflict is returned by conditional writes that lost a race.
	ErrVersionConflict = errors.New("version conflict")

	// ErrAlreadyScheduled is returned when a quote already owns its reminder batch.
	ErrAlreadyScheduled = errors.New("reminders already scheduled")

	// ErrDeliveryFailure wraps provider errors from the email/SMS senders.
	ErrDeliveryFailure = errors.New("delivery failed")

	// ErrNoRecipient means the client has no address for the requested channel.
	ErrNoRecipient = errors.New("client has no contact for channel")

	// ErrConfigMissing means a collaborator (email, SMS, storage, payments)
	// is not configured.
	ErrConfigMissing = errors.New("configuration missing")

	// ErrDuplicate is returned by stores when a unique constraint rejects a write.
	ErrDuplicate = errors.New("already exists")

	// ErrInUse is returned when deleting a record that others still reference.
	ErrInUse = errors.New("still referenced")

	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError carries per-field violation codes.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError returns nil when fields is empty.
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
