package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rleal/face-attendance/internal/gallery"
)

// UsersHandler serves the enrolled-user roster.
type UsersHandler struct {
	store gallery.Writer
}

// NewUsersHandler creates a users handler.
func NewUsersHandler(store gallery.Writer) *UsersHandler {
	return &UsersHandler{store: store}
}

type userView struct {
	RUT      string `json:"rut"`
	Name     string `json:"name"`
	Career   string `json:"career"`
	Shift    string `json:"shift"`
	Active   bool   `json:"active"`
	Enrolled bool   `json:"enrolled"`
}

func toUserView(e gallery.Entry) userView {
	return userView{
		RUT:      e.RUT,
		Name:     e.Name,
		Career:   e.Career,
		Shift:    e.Shift,
		Active:   e.Active,
		Enrolled: e.HasReferenceVector(),
	}
}

// List handles GET /api/v1/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListActive(r.Context(), r.URL.Query().Get("shift"))
	if err != nil {
		log.Printf("listing users: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	views := make([]userView, 0, len(entries))
	for _, e := range entries {
		views = append(views, toUserView(e))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"users": views,
		"count": len(views),
	})
}

// Get handles GET /api/v1/users/{rut}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	rut := gallery.NormalizeRUT(chi.URLParam(r, "rut"))

	entry, err := h.store.Get(r.Context(), rut)
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("getting user %s: %v", sanitizeForLog(rut), err)
		respondError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	respondJSON(w, http.StatusOK, toUserView(*entry))
}

// Photo handles GET /api/v1/users/{rut}/photo.
func (h *UsersHandler) Photo(w http.ResponseWriter, r *http.Request) {
	rut := gallery.NormalizeRUT(chi.URLParam(r, "rut"))

	entry, err := h.store.Get(r.Context(), rut)
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if len(entry.PhotoJPEG) == 0 {
		respondError(w, http.StatusNotFound, "user has no photo")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(entry.PhotoJPEG)
}

type upsertUserRequest struct {
	RUT    string `json:"rut"`
	Name   string `json:"name"`
	Career string `json:"career"`
	Shift  string `json:"shift"`
	Active *bool  `json:"active"`
}

// Upsert handles POST /api/v1/users. Profile data only; enrollment goes
// through the capture endpoint.
func (h *UsersHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	rut := gallery.NormalizeRUT(req.RUT)
	name := gallery.NormalizeName(req.Name)
	if rut == "" || name == "" {
		respondError(w, http.StatusBadRequest, "rut and name are required")
		return
	}
	shift := req.Shift
	if shift == "" {
		shift = gallery.ShiftDay
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	err := h.store.Upsert(r.Context(), gallery.Entry{
		RUT:    rut,
		Name:   name,
		Career: req.Career,
		Shift:  shift,
		Active: active,
	})
	if err != nil {
		log.Printf("upserting user %s: %v", sanitizeForLog(rut), err)
		respondError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"rut": rut})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive handles POST /api/v1/users/{rut}/active.
func (h *UsersHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	rut := gallery.NormalizeRUT(chi.URLParam(r, "rut"))

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := h.store.SetActive(r.Context(), rut, req.Active); err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("setting active for %s: %v", sanitizeForLog(rut), err)
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"rut": rut, "active": req.Active})
}
