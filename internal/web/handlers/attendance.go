package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rleal/face-attendance/internal/gallery"
)

// AttendanceStore is the storage surface the manual-attendance handler needs.
type AttendanceStore interface {
	gallery.Writer
	gallery.AttendanceStore
	gallery.EventStore
}

// AttendanceHandler registers manual attendance for people the camera
// could not identify.
type AttendanceHandler struct {
	store AttendanceStore
}

// NewAttendanceHandler creates a manual-attendance handler.
func NewAttendanceHandler(store AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{store: store}
}

type manualAttendanceRequest struct {
	EventID string `json:"event_id"`
	RUT     string `json:"rut"`
	// Name/Career/Shift register the person on the fly when the RUT is
	// not in the gallery yet. The created entry carries no biometrics.
	Name   string `json:"name,omitempty"`
	Career string `json:"career,omitempty"`
	Shift  string `json:"shift,omitempty"`
}

// Manual handles POST /api/v1/attendance/manual.
func (h *AttendanceHandler) Manual(w http.ResponseWriter, r *http.Request) {
	var req manualAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	rut := gallery.NormalizeRUT(req.RUT)
	if req.EventID == "" || rut == "" {
		respondError(w, http.StatusBadRequest, "event_id and rut are required")
		return
	}

	if _, err := h.store.GetEvent(r.Context(), req.EventID); err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			respondError(w, http.StatusNotFound, "event not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	entry, err := h.store.Get(r.Context(), rut)
	if errors.Is(err, gallery.ErrNotFound) {
		if req.Name == "" {
			respondError(w, http.StatusNotFound, "user not found; provide name to register")
			return
		}
		entry, err = h.registerUnenrolled(r, rut, req)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get user")
		return
	}

	status, err := h.store.Append(r.Context(), gallery.Attendance{
		EventID: req.EventID,
		RUT:     rut,
		Method:  gallery.MethodManual,
	})
	if err != nil {
		log.Printf("manual attendance for %s: %v", sanitizeForLog(rut), err)
		respondError(w, http.StatusInternalServerError, "failed to register attendance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"rut":    entry.RUT,
		"name":   entry.Name,
		"status": status,
	})
}

// registerUnenrolled creates a gallery entry without biometrics so the
// attendance row has someone to point at.
func (h *AttendanceHandler) registerUnenrolled(r *http.Request, rut string, req manualAttendanceRequest) (*gallery.Entry, error) {
	shift := req.Shift
	if shift != gallery.ShiftDay && shift != gallery.ShiftEvening {
		shift = gallery.ShiftDay
	}
	entry := gallery.Entry{
		RUT:    rut,
		Name:   gallery.NormalizeName(req.Name),
		Career: req.Career,
		Shift:  shift,
		Active: true,
	}
	if err := h.store.Upsert(r.Context(), entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
