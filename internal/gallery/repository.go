package gallery

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups for an absent identity or event.
var ErrNotFound = errors.New("record not found")

// Reader provides read access to enrolled identities.
type Reader interface {
	// ListActive returns active entries, optionally filtered by shift
	// ("" means all shifts). The slice is a snapshot; matching iterates
	// it without further store access.
	ListActive(ctx context.Context, shift string) ([]Entry, error)
	// Get retrieves an entry by RUT. Returns ErrNotFound when absent.
	Get(ctx context.Context, rut string) (*Entry, error)
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// Writer provides write access to enrolled identities.
type Writer interface {
	Reader

	// Upsert creates or replaces an entry keyed by RUT.
	Upsert(ctx context.Context, e Entry) error
	// SetReferenceVector stores a freshly aggregated reference vector and
	// profile photo for an existing entry.
	SetReferenceVector(ctx context.Context, rut string, vector []float32, photo []byte) error
	// SetActive toggles the active flag.
	SetActive(ctx context.Context, rut string, active bool) error
}

// AttendanceStore reads and writes attendance rows.
type AttendanceStore interface {
	// Append writes an attendance row. Duplicate (event, rut) pairs
	// return AttendanceExists without creating a second row.
	Append(ctx context.Context, rec Attendance) (AttendanceStatus, error)
	// ListByEvent returns attendance rows for one event.
	ListByEvent(ctx context.Context, eventID string) ([]Attendance, error)
}

// EventStore reads and writes events.
type EventStore interface {
	// GetEvent retrieves an event by ID. Returns ErrNotFound when absent.
	GetEvent(ctx context.Context, id string) (*Event, error)
	// ListEvents returns all events, newest first.
	ListEvents(ctx context.Context) ([]Event, error)
	// CreateEvent stores a new event.
	CreateEvent(ctx context.Context, e Event) error
}

// Store is the full storage surface consumed by the web layer and CLI.
type Store interface {
	Writer
	AttendanceStore
	EventStore
}
