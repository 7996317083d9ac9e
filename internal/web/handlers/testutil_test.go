package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rleal/face-attendance/internal/gallery"
	"github.com/rleal/face-attendance/internal/gallery/mock"
)

// jsonRequest creates a request with a JSON-encoded body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// seededStore returns a mock store with one enrolled user and one event.
func seededStore(t *testing.T) *mock.Store {
	t.Helper()
	store := mock.NewStore()
	store.AddEntry(gallery.Entry{
		RUT:             "12345678-9",
		Name:            "maria gonzalez",
		Career:          "informatica",
		Shift:           gallery.ShiftDay,
		Active:          true,
		ReferenceVector: []float32{1, 0, 0, 0},
	})
	store.AddEvent(gallery.Event{
		ID:   "ev-1",
		Name: "charla seguridad",
		Date: time.Now(),
	})
	return store
}
