package video

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSnapshotOpener_OpenAndRead(t *testing.T) {
	frame := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(frame)
	}))
	defer server.Close()

	opener := &SnapshotOpener{
		URL:            server.URL,
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
	}

	source, err := opener.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	defer source.Close()

	got, err := source.ReadFrame(context.Background())
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if len(got) != len(frame) {
		t.Errorf("expected %d frame bytes, got %d", len(frame), len(got))
	}
}

func TestSnapshotOpener_UnreachableCamera(t *testing.T) {
	opener := &SnapshotOpener{
		URL:            "http://127.0.0.1:1", // nothing listens here
		ConnectTimeout: 200 * time.Millisecond,
		ReadTimeout:    200 * time.Millisecond,
	}

	_, err := opener.Open(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestSnapshotOpener_MissingURL(t *testing.T) {
	opener := &SnapshotOpener{ConnectTimeout: time.Second, ReadTimeout: time.Second}
	_, err := opener.Open(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestSnapshotSource_BadStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte{0xFF, 0xD8}) // probe succeeds
			return
		}
		http.Error(w, "camera busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	opener := &SnapshotOpener{
		URL:            server.URL,
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
	}
	source, err := opener.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	defer source.Close()

	if _, err := source.ReadFrame(context.Background()); err == nil {
		t.Error("expected error for non-200 frame response")
	}
}
