// Package gallery defines the enrolled-identity store: user records
// with their reference vectors, attendance records, and events.
package gallery

import (
	"time"
)

// Shift values carried by user records.
const (
	ShiftDay     = "D"
	ShiftEvening = "V"
)

// Attendance methods.
const (
	MethodBiometric = "biometrico"
	MethodManual    = "manual"
)

// Entry is one enrolled identity. ReferenceVector is nil for users
// registered manually without biometrics; matching skips those entries.
type Entry struct {
	RUT             string
	Name            string
	Career          string
	Shift           string // "D" or "V"
	Active          bool
	ReferenceVector []float32 // 512 floats, nil when unenrolled
	PhotoJPEG       []byte    // profile photo captured at enrollment
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasReferenceVector reports whether the entry is usable for matching.
func (e *Entry) HasReferenceVector() bool {
	return len(e.ReferenceVector) > 0
}

// Attendance is one attendance row. Similarity is nil for manual records.
type Attendance struct {
	ID         string
	EventID    string
	RUT        string
	Method     string // "biometrico" or "manual"
	Similarity *float64
	CreatedAt  time.Time
}

// AttendanceStatus is the outcome of an attendance write.
type AttendanceStatus string

const (
	// AttendanceRegistered means a new row was created.
	AttendanceRegistered AttendanceStatus = "registrada"
	// AttendanceExists means the identity already had attendance for the
	// event; the write is a no-op.
	AttendanceExists AttendanceStatus = "existe"
)

// Event is an attendance event on a single date.
type Event struct {
	ID          string
	Name        string
	Description string
	Speaker     string
	Date        time.Time // date only, local midnight
	CreatedAt   time.Time
}

// Event statuses derived from the event date.
const (
	EventPending  = "pendiente"
	EventActive   = "activo"
	EventFinished = "finalizado"
)

// Status derives the event state from its date relative to now.
func (e *Event) Status(now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case day.After(today):
		return EventPending
	case day.Equal(today):
		return EventActive
	default:
		return EventFinished
	}
}

// IsActive reports whether the event runs today.
func (e *Event) IsActive(now time.Time) bool {
	return e.Status(now) == EventActive
}
