package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rleal/face-attendance/internal/gallery"
)

// EventsStore is the storage surface the events handler needs.
type EventsStore interface {
	gallery.EventStore
	gallery.AttendanceStore
}

// EventsHandler serves events and their attendance lists.
type EventsHandler struct {
	store EventsStore
	now   func() time.Time
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(store EventsStore) *EventsHandler {
	return &EventsHandler{store: store, now: time.Now}
}

type eventView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Speaker     string `json:"speaker"`
	Date        string `json:"date"`
	Status      string `json:"status"`
}

func (h *EventsHandler) toEventView(e gallery.Event) eventView {
	return eventView{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Speaker:     e.Speaker,
		Date:        e.Date.Format("2006-01-02"),
		Status:      e.Status(h.now()),
	}
}

// List handles GET /api/v1/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListEvents(r.Context())
	if err != nil {
		log.Printf("listing events: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, h.toEventView(e))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"events": views,
		"count":  len(views),
	})
}

type createEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Speaker     string `json:"speaker"`
	Date        string `json:"date"` // YYYY-MM-DD
}

// Create handles POST /api/v1/events.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	event := gallery.Event{
		Name:        req.Name,
		Description: req.Description,
		Speaker:     req.Speaker,
		Date:        date,
	}
	if err := h.store.CreateEvent(r.Context(), event); err != nil {
		log.Printf("creating event: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create event")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

// Get handles GET /api/v1/events/{id}. The response carries the
// attendance totals broken down by registration method.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.store.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			respondError(w, http.StatusNotFound, "event not found")
			return
		}
		log.Printf("getting event %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get event")
		return
	}

	records, err := h.store.ListByEvent(r.Context(), id)
	if err != nil {
		log.Printf("listing attendance for %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}

	var biometric, manual int
	for _, rec := range records {
		switch rec.Method {
		case gallery.MethodBiometric:
			biometric++
		case gallery.MethodManual:
			manual++
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"event": h.toEventView(*event),
		"attendance_counts": map[string]int{
			"biometric": biometric,
			"manual":    manual,
			"total":     len(records),
		},
	})
}

// Attendance handles GET /api/v1/events/{id}/attendance.
func (h *EventsHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.store.GetEvent(r.Context(), id); err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			respondError(w, http.StatusNotFound, "event not found")
			return
		}
		log.Printf("getting event %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get event")
		return
	}

	records, err := h.store.ListByEvent(r.Context(), id)
	if err != nil {
		log.Printf("listing attendance for %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"event_id":   id,
		"attendance": records,
		"count":      len(records),
	})
}
