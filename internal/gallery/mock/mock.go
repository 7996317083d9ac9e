// Package mock provides an in-memory implementation of the gallery
// store interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rleal/face-attendance/internal/gallery"
)

// Store is an in-memory gallery.Store with error injection.
type Store struct {
	mu          sync.RWMutex
	entries     map[string]gallery.Entry
	attendance  []gallery.Attendance
	events      map[string]gallery.Event
	eventOrder  []string

	// Error injection
	ListActiveError   error
	GetError          error
	UpsertError       error
	SetVectorError    error
	AppendError       error
	GetEventError     error
	CreateEventError  error
	ListByEventError  error
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]gallery.Entry),
		events:  make(map[string]gallery.Event),
	}
}

// AddEntry seeds an entry directly, bypassing error injection.
func (s *Store) AddEntry(e gallery.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.RUT] = e
}

// AddEvent seeds an event directly.
func (s *Store) AddEvent(e gallery.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		s.eventOrder = append(s.eventOrder, e.ID)
	}
	s.events[e.ID] = e
}

// AttendanceCount returns the number of stored attendance rows.
func (s *Store) AttendanceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attendance)
}

// ListActive returns active entries, optionally filtered by shift.
func (s *Store) ListActive(ctx context.Context, shift string) ([]gallery.Entry, error) {
	if s.ListActiveError != nil {
		return nil, s.ListActiveError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []gallery.Entry
	for _, e := range s.entries {
		if !e.Active {
			continue
		}
		if shift != "" && e.Shift != shift {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RUT < out[j].RUT })
	return out, nil
}

// Get retrieves an entry by RUT.
func (s *Store) Get(ctx context.Context, rut string) (*gallery.Entry, error) {
	if s.GetError != nil {
		return nil, s.GetError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[rut]
	if !ok {
		return nil, gallery.ErrNotFound
	}
	return &e, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Upsert creates or replaces an entry.
func (s *Store) Upsert(ctx context.Context, e gallery.Entry) error {
	if s.UpsertError != nil {
		return s.UpsertError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[e.RUT]; ok {
		e.CreatedAt = existing.CreatedAt
	} else if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.UpdatedAt = time.Now()
	s.entries[e.RUT] = e
	return nil
}

// SetReferenceVector updates an entry's vector and photo.
func (s *Store) SetReferenceVector(ctx context.Context, rut string, vector []float32, photo []byte) error {
	if s.SetVectorError != nil {
		return s.SetVectorError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[rut]
	if !ok {
		return gallery.ErrNotFound
	}
	e.ReferenceVector = vector
	e.PhotoJPEG = photo
	e.UpdatedAt = time.Now()
	s.entries[rut] = e
	return nil
}

// SetActive toggles the active flag.
func (s *Store) SetActive(ctx context.Context, rut string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[rut]
	if !ok {
		return gallery.ErrNotFound
	}
	e.Active = active
	s.entries[rut] = e
	return nil
}

// Append writes an attendance row, idempotent per (event, rut).
func (s *Store) Append(ctx context.Context, rec gallery.Attendance) (gallery.AttendanceStatus, error) {
	if s.AppendError != nil {
		return "", s.AppendError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attendance {
		if a.EventID == rec.EventID && a.RUT == rec.RUT {
			return gallery.AttendanceExists, nil
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.attendance = append(s.attendance, rec)
	return gallery.AttendanceRegistered, nil
}

// ListByEvent returns attendance rows for one event.
func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]gallery.Attendance, error) {
	if s.ListByEventError != nil {
		return nil, s.ListByEventError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []gallery.Attendance
	for _, a := range s.attendance {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(ctx context.Context, id string) (*gallery.Event, error) {
	if s.GetEventError != nil {
		return nil, s.GetEventError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, gallery.ErrNotFound
	}
	return &e, nil
}

// ListEvents returns all events, newest first.
func (s *Store) ListEvents(ctx context.Context) ([]gallery.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]gallery.Event, 0, len(s.eventOrder))
	for i := len(s.eventOrder) - 1; i >= 0; i-- {
		out = append(out, s.events[s.eventOrder[i]])
	}
	return out, nil
}

// CreateEvent stores a new event.
func (s *Store) CreateEvent(ctx context.Context, e gallery.Event) error {
	if s.CreateEventError != nil {
		return s.CreateEventError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		s.eventOrder = append(s.eventOrder, e.ID)
	}
	s.events[e.ID] = e
	return nil
}
