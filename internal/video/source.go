// Package video abstracts the camera frame source. A Source hands out
// one frame per pull; pulls may fail transiently and callers are
// expected to poll in a tight loop.
package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable is returned when the source cannot be opened at all.
// It is fatal for the invocation; the caller surfaces it without retrying.
var ErrUnavailable = errors.New("video source unavailable")

// Source produces frames one pull at a time. The handle is exclusively
// owned by the invocation that opened it and must be closed on every
// exit path.
type Source interface {
	// ReadFrame returns one encoded frame (JPEG). A transient failure
	// returns an error; the caller decides whether to keep polling.
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
}

// Opener acquires a Source. Injected into the recognition loop and the
// enrollment session so tests can substitute fakes.
type Opener interface {
	Open(ctx context.Context) (Source, error)
}

// SnapshotOpener opens snapshot-endpoint cameras: each HTTP GET to the
// URL returns one fresh JPEG frame.
type SnapshotOpener struct {
	URL            string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// Open probes the camera once and returns a Source on success. A camera
// that cannot be reached yields ErrUnavailable.
func (o *SnapshotOpener) Open(ctx context.Context) (Source, error) {
	if o.URL == "" {
		return nil, fmt.Errorf("%w: camera URL not configured", ErrUnavailable)
	}

	client := &http.Client{Timeout: o.ReadTimeout}

	probeCtx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, o.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: camera returned status %d", ErrUnavailable, resp.StatusCode)
	}

	return &snapshotSource{url: o.URL, client: client}, nil
}

type snapshotSource struct {
	url    string
	client *http.Client
}

func (s *snapshotSource) ReadFrame(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating frame request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera returned status %d", resp.StatusCode)
	}

	frame, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading frame body: %w", err)
	}
	if len(frame) == 0 {
		return nil, errors.New("empty frame")
	}

	return frame, nil
}

func (s *snapshotSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
