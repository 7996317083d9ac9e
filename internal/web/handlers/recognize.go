package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rleal/face-attendance/internal/matching"
	"github.com/rleal/face-attendance/internal/recognition"
)

// Recognizer runs one recognition pass.
type Recognizer interface {
	Recognize(ctx context.Context, req recognition.Request) (*recognition.Response, error)
}

// RecognizeHandler handles live recognition and 1:1 verification.
type RecognizeHandler struct {
	service Recognizer
}

// NewRecognizeHandler creates a recognition handler.
func NewRecognizeHandler(service Recognizer) *RecognizeHandler {
	return &RecognizeHandler{service: service}
}

type recognizeRequest struct {
	EventID   string `json:"event_id"`
	Shift     string `json:"shift"`
	VerifyRUT string `json:"verify_rut"`
	DryRun    bool   `json:"dry_run"`
}

// Recognize handles POST /api/v1/recognize.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req recognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.EventID == "" && req.VerifyRUT == "" && !req.DryRun {
		respondError(w, http.StatusBadRequest, "event_id is required")
		return
	}

	resp, err := h.service.Recognize(r.Context(), recognition.Request{
		EventID:   req.EventID,
		Shift:     req.Shift,
		VerifyRUT: req.VerifyRUT,
		DryRun:    req.DryRun,
	})
	if err != nil {
		switch {
		case errors.Is(err, matching.ErrIdentityNotFound):
			respondError(w, http.StatusNotFound, "identity not found")
		case errors.Is(err, matching.ErrNoReferenceVector):
			respondError(w, http.StatusConflict, "identity has no enrollment")
		default:
			log.Printf("recognition failed: %v", err)
			respondError(w, http.StatusInternalServerError, "recognition failed")
		}
		return
	}

	if resp.State == recognition.StateConnectFailed {
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
