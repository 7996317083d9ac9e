package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/rleal/face-attendance/internal/enroll"
	"github.com/rleal/face-attendance/internal/gallery"
	"github.com/rleal/face-attendance/internal/video"
)

// CaptureRunner runs one biometric capture session.
type CaptureRunner interface {
	Run(ctx context.Context) (*enroll.CaptureResult, error)
}

// EnrollHandler handles biometric enrollment and progress polling.
type EnrollHandler struct {
	session CaptureRunner
	tracker *enroll.Tracker
	store   gallery.Writer
	dedup   *gallery.DedupIndex

	// Duplicate-identity guard: cosine distance below this between the
	// new vector and another person's vector triggers a warning.
	dedupMaxDistance float64

	// Only one live capture session at a time; concurrent requests
	// would fight over the camera and the progress tracker.
	busy sync.Mutex
}

// NewEnrollHandler creates an enrollment handler.
func NewEnrollHandler(session CaptureRunner, tracker *enroll.Tracker, store gallery.Writer, dedup *gallery.DedupIndex, dedupMaxDistance float64) *EnrollHandler {
	return &EnrollHandler{
		session:          session,
		tracker:          tracker,
		store:            store,
		dedup:            dedup,
		dedupMaxDistance: dedupMaxDistance,
	}
}

type enrollRequest struct {
	RUT    string `json:"rut"`
	Name   string `json:"name"`
	Career string `json:"career"`
	Shift  string `json:"shift"`
}

type enrollResponse struct {
	RUT         string `json:"rut"`
	SamplesUsed int    `json:"samples_used"`
	Duplicate   *struct {
		RUT      string  `json:"rut"`
		Name     string  `json:"name"`
		Distance float64 `json:"distance"`
	} `json:"duplicate_warning,omitempty"`
}

// Enroll handles POST /api/v1/enroll. The capture runs synchronously in
// the request; GET /enroll/progress is polled from a second connection.
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	rut := gallery.NormalizeRUT(req.RUT)
	if rut == "" {
		respondError(w, http.StatusBadRequest, "rut is required")
		return
	}
	name := gallery.NormalizeName(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	shift := req.Shift
	if shift == "" {
		shift = gallery.ShiftDay
	}
	if shift != gallery.ShiftDay && shift != gallery.ShiftEvening {
		respondError(w, http.StatusBadRequest, "shift must be D or V")
		return
	}

	if !h.busy.TryLock() {
		respondError(w, http.StatusConflict, "another enrollment is in progress")
		return
	}
	defer h.busy.Unlock()

	result, err := h.session.Run(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, enroll.ErrInsufficientSamples):
			respondError(w, http.StatusUnprocessableEntity, "not enough valid captures, try again")
		case errors.Is(err, video.ErrUnavailable):
			respondError(w, http.StatusServiceUnavailable, "camera unavailable")
		default:
			log.Printf("enrollment capture for %s failed: %v", sanitizeForLog(rut), err)
			respondError(w, http.StatusInternalServerError, "capture failed")
		}
		return
	}

	entry := gallery.Entry{
		RUT:    rut,
		Name:   name,
		Career: req.Career,
		Shift:  shift,
		Active: true,
	}
	if err := h.store.Upsert(r.Context(), entry); err != nil {
		log.Printf("saving user %s: %v", sanitizeForLog(rut), err)
		respondError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	if err := h.store.SetReferenceVector(r.Context(), rut, result.ReferenceVector, result.ProfileFrame); err != nil {
		log.Printf("saving reference vector for %s: %v", sanitizeForLog(rut), err)
		respondError(w, http.StatusInternalServerError, "failed to save enrollment")
		return
	}

	resp := enrollResponse{RUT: rut, SamplesUsed: result.SamplesUsed}

	if h.dedup != nil {
		if hit := h.dedup.FindDuplicate(rut, result.ReferenceVector, h.dedupMaxDistance); hit != nil {
			log.Printf("enrollment %s looks like existing user %s (distance %.3f)",
				sanitizeForLog(rut), hit.RUT, hit.Distance)
			resp.Duplicate = &struct {
				RUT      string  `json:"rut"`
				Name     string  `json:"name"`
				Distance float64 `json:"distance"`
			}{RUT: hit.RUT, Name: hit.Name, Distance: hit.Distance}
		}
		h.dedup.Add(rut, name, result.ReferenceVector)
	}

	respondJSON(w, http.StatusOK, resp)
}

// Progress handles GET /api/v1/enroll/progress.
func (h *EnrollHandler) Progress(w http.ResponseWriter, r *http.Request) {
	snap := h.tracker.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"active":     snap.Active,
		"current":    snap.Current,
		"total":      snap.Total,
		"status":     snap.Status,
		"message":    snap.Message,
		"percentage": snap.Percentage(),
	})
}
