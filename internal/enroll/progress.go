// Package enroll implements biometric enrollment: frame capture,
// robust aggregation of per-frame embeddings, and progress reporting.
package enroll

import "sync"

// Status describes the state of the current enrollment session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusCapturing Status = "capturing"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Progress is a point-in-time snapshot of the capture session,
// safe to hand out to polling requests.
type Progress struct {
	Active  bool   `json:"active"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Percentage returns capture completion in [0,100].
func (p Progress) Percentage() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Current * 100 / p.Total
}

// Tracker tracks the single live enrollment session. One instance is
// shared between the capture loop and the progress endpoint.
type Tracker struct {
	mu       sync.Mutex
	progress Progress
}

// NewTracker creates a tracker in the idle state.
func NewTracker() *Tracker {
	return &Tracker{progress: Progress{Status: StatusIdle}}
}

// Reset starts a new session with the given sample target.
func (t *Tracker) Reset(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = Progress{
		Active: true,
		Total:  total,
		Status: StatusCapturing,
	}
}

// Increment records one captured sample. Current never exceeds Total.
func (t *Tracker) Increment() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.progress.Current < t.progress.Total {
		t.progress.Current++
	}
}

// SetStatus finishes the session with a terminal status.
func (t *Tracker) SetStatus(status Status, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.Status = status
	t.progress.Message = message
	if status == StatusCompleted || status == StatusError || status == StatusIdle {
		t.progress.Active = false
	}
}

// Snapshot returns a copy of the current progress.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}
