package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rleal/face-attendance/internal/gallery"
)

func TestAttendanceHandler_Manual(t *testing.T) {
	store := seededStore(t)
	handler := NewAttendanceHandler(store)

	req := jsonRequest(t, "POST", "/api/v1/attendance/manual", map[string]any{
		"event_id": "ev-1",
		"rut":      "12.345.678-9",
	})
	recorder := httptest.NewRecorder()
	handler.Manual(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		RUT    string `json:"rut"`
		Status string `json:"status"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.RUT != "12345678-9" {
		t.Errorf("expected normalized rut, got %s", resp.RUT)
	}
	if resp.Status != "registrada" {
		t.Errorf("expected registrada, got %s", resp.Status)
	}

	// Registering again reports the existing record.
	recorder = httptest.NewRecorder()
	handler.Manual(recorder, jsonRequest(t, "POST", "/api/v1/attendance/manual", map[string]any{
		"event_id": "ev-1",
		"rut":      "12345678-9",
	}))
	parseJSONResponse(t, recorder, &resp)
	if resp.Status != "existe" {
		t.Errorf("expected existe, got %s", resp.Status)
	}
}

func TestAttendanceHandler_UnknownUserWithoutName(t *testing.T) {
	handler := NewAttendanceHandler(seededStore(t))

	recorder := httptest.NewRecorder()
	handler.Manual(recorder, jsonRequest(t, "POST", "/api/v1/attendance/manual", map[string]any{
		"event_id": "ev-1",
		"rut":      "99999999-9",
	}))
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestAttendanceHandler_RegistersUnknownUser(t *testing.T) {
	store := seededStore(t)
	handler := NewAttendanceHandler(store)

	recorder := httptest.NewRecorder()
	handler.Manual(recorder, jsonRequest(t, "POST", "/api/v1/attendance/manual", map[string]any{
		"event_id": "ev-1",
		"rut":      "99.999.999-9",
		"name":     "Sofía Díaz",
		"shift":    "V",
	}))
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		RUT    string `json:"rut"`
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Status != "registrada" {
		t.Errorf("expected registrada, got %s", resp.Status)
	}
	if resp.Name != "sofia diaz" {
		t.Errorf("expected normalized name, got %q", resp.Name)
	}

	entry, err := store.Get(context.Background(), "99999999-9")
	if err != nil {
		t.Fatalf("expected user to be created: %v", err)
	}
	if entry.Shift != gallery.ShiftEvening {
		t.Errorf("expected shift V, got %s", entry.Shift)
	}
	if entry.HasReferenceVector() {
		t.Error("expected entry without biometrics")
	}
}

func TestAttendanceHandler_UnknownEvent(t *testing.T) {
	handler := NewAttendanceHandler(seededStore(t))

	recorder := httptest.NewRecorder()
	handler.Manual(recorder, jsonRequest(t, "POST", "/api/v1/attendance/manual", map[string]any{
		"event_id": "nope",
		"rut":      "12345678-9",
	}))
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestAttendanceHandler_Validation(t *testing.T) {
	handler := NewAttendanceHandler(seededStore(t))

	recorder := httptest.NewRecorder()
	handler.Manual(recorder, jsonRequest(t, "POST", "/api/v1/attendance/manual", map[string]any{}))
	assertStatusCode(t, recorder, http.StatusBadRequest)
}
