package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rleal/face-attendance/internal/enroll"
	"github.com/rleal/face-attendance/internal/gallery"
	"github.com/rleal/face-attendance/internal/video"
)

type fakeCapture struct {
	result  *enroll.CaptureResult
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeCapture) Run(ctx context.Context) (*enroll.CaptureResult, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func captureResult() *enroll.CaptureResult {
	return &enroll.CaptureResult{
		ReferenceVector: []float32{0.1, 0.2, 0.3, 0.4},
		ProfileFrame:    []byte{0xff, 0xd8},
		SamplesUsed:     10,
	}
}

func TestEnrollHandler_Success(t *testing.T) {
	store := seededStore(t)
	capture := &fakeCapture{result: captureResult()}
	handler := NewEnrollHandler(capture, enroll.NewTracker(), store, nil, 0.4)

	req := jsonRequest(t, "POST", "/api/v1/enroll", map[string]any{
		"rut":    "11.111.111-1",
		"name":   "  Pedro   Rojas ",
		"career": "mecanica",
		"shift":  "V",
	})
	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		RUT         string `json:"rut"`
		SamplesUsed int    `json:"samples_used"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.RUT != "11111111-1" {
		t.Errorf("expected normalized rut, got %s", resp.RUT)
	}
	if resp.SamplesUsed != 10 {
		t.Errorf("expected 10 samples, got %d", resp.SamplesUsed)
	}

	saved, err := store.Get(context.Background(), "11111111-1")
	if err != nil {
		t.Fatalf("user not saved: %v", err)
	}
	if saved.Name != "pedro rojas" {
		t.Errorf("expected normalized name, got %q", saved.Name)
	}
	if !saved.HasReferenceVector() {
		t.Error("expected reference vector saved")
	}
	if len(saved.PhotoJPEG) == 0 {
		t.Error("expected profile photo saved")
	}
}

func TestEnrollHandler_DuplicateWarning(t *testing.T) {
	store := seededStore(t)

	dedup := gallery.NewDedupIndex()
	dedup.Add("12345678-9", "maria gonzalez", []float32{0.1, 0.2, 0.3, 0.4})

	capture := &fakeCapture{result: captureResult()}
	handler := NewEnrollHandler(capture, enroll.NewTracker(), store, dedup, 0.4)

	req := jsonRequest(t, "POST", "/api/v1/enroll", map[string]any{
		"rut":  "11111111-1",
		"name": "pedro rojas",
	})
	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Duplicate *struct {
			RUT string `json:"rut"`
		} `json:"duplicate_warning"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Duplicate == nil {
		t.Fatal("expected duplicate warning")
	}
	if resp.Duplicate.RUT != "12345678-9" {
		t.Errorf("expected duplicate of maria, got %s", resp.Duplicate.RUT)
	}
}

func TestEnrollHandler_InsufficientSamples(t *testing.T) {
	store := seededStore(t)
	capture := &fakeCapture{err: enroll.ErrInsufficientSamples}
	handler := NewEnrollHandler(capture, enroll.NewTracker(), store, nil, 0.4)

	req := jsonRequest(t, "POST", "/api/v1/enroll", map[string]any{
		"rut": "11111111-1", "name": "pedro",
	})
	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)

	// Nothing may be written on a failed capture.
	if _, err := store.Get(context.Background(), "11111111-1"); err == nil {
		t.Error("expected no user written after failed capture")
	}
}

func TestEnrollHandler_CameraUnavailable(t *testing.T) {
	capture := &fakeCapture{err: video.ErrUnavailable}
	handler := NewEnrollHandler(capture, enroll.NewTracker(), seededStore(t), nil, 0.4)

	req := jsonRequest(t, "POST", "/api/v1/enroll", map[string]any{
		"rut": "11111111-1", "name": "pedro",
	})
	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
}

func TestEnrollHandler_Validation(t *testing.T) {
	handler := NewEnrollHandler(&fakeCapture{result: captureResult()}, enroll.NewTracker(), seededStore(t), nil, 0.4)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing rut", map[string]any{"name": "pedro"}},
		{"missing name", map[string]any{"rut": "11111111-1"}},
		{"bad shift", map[string]any{"rut": "11111111-1", "name": "pedro", "shift": "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.Enroll(recorder, jsonRequest(t, "POST", "/api/v1/enroll", tt.body))
			assertStatusCode(t, recorder, http.StatusBadRequest)
		})
	}
}

func TestEnrollHandler_RejectsConcurrentSessions(t *testing.T) {
	capture := &fakeCapture{
		result:  captureResult(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	handler := NewEnrollHandler(capture, enroll.NewTracker(), seededStore(t), nil, 0.4)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		recorder := httptest.NewRecorder()
		handler.Enroll(recorder, jsonRequest(t, "POST", "/api/v1/enroll", map[string]any{
			"rut": "11111111-1", "name": "pedro",
		}))
	}()

	<-capture.started // first session is now inside the capture

	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, jsonRequest(t, "POST", "/api/v1/enroll", map[string]any{
		"rut": "22222222-2", "name": "ana",
	}))
	assertStatusCode(t, recorder, http.StatusConflict)

	close(capture.release)
	wg.Wait()
}

func TestEnrollHandler_Progress(t *testing.T) {
	tracker := enroll.NewTracker()
	tracker.Reset(10)
	tracker.Increment()
	tracker.Increment()

	handler := NewEnrollHandler(&fakeCapture{}, tracker, seededStore(t), nil, 0.4)

	recorder := httptest.NewRecorder()
	handler.Progress(recorder, httptest.NewRequest("GET", "/api/v1/enroll/progress", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Active     bool   `json:"active"`
		Current    int    `json:"current"`
		Total      int    `json:"total"`
		Status     string `json:"status"`
		Percentage int    `json:"percentage"`
	}
	parseJSONResponse(t, recorder, &resp)
	if !resp.Active || resp.Current != 2 || resp.Total != 10 || resp.Status != "capturing" {
		t.Errorf("unexpected progress: %+v", resp)
	}
	if resp.Percentage != 20 {
		t.Errorf("expected 20%%, got %d", resp.Percentage)
	}
}
