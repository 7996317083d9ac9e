// Package recognition implements the time-bounded live recognition
// loop: sample frames from the camera, extract embeddings, and rank
// them against a gallery snapshot until a match clears the threshold
// or the wall-clock budget runs out.
package recognition

import (
	"context"
	"time"

	"github.com/rleal/face-attendance/internal/engine"
	"github.com/rleal/face-attendance/internal/gallery"
	"github.com/rleal/face-attendance/internal/matching"
	"github.com/rleal/face-attendance/internal/video"
)

// State is the terminal state of one recognition pass.
type State string

const (
	StateConfirmed     State = "confirmed"      // a frame cleared the threshold
	StateExhausted     State = "exhausted"      // deadline elapsed without a match
	StateConnectFailed State = "connect_failed" // video source could not be opened
)

// Embedder extracts face embeddings from a frame.
type Embedder interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]engine.Detection, error)
}

// Pass is the outcome of one recognition loop invocation.
type Pass struct {
	State State
	// Best carries the best-seen match result. On StateConfirmed it is
	// the qualifying result; on StateExhausted it is diagnostic only
	// and may have no candidates at all.
	Best       matching.Result
	Frames     int    // frames pulled
	Detections int    // frames with a detected face
	Frame      []byte // frame that produced the confirmed match
}

// Loop runs recognition passes. One Loop is safe for concurrent use;
// each Run opens and releases its own video source handle.
type Loop struct {
	opener   video.Opener
	embedder Embedder
	deadline time.Duration
}

// NewLoop creates a recognition loop with the given wall-clock budget.
func NewLoop(opener video.Opener, embedder Embedder, deadline time.Duration) *Loop {
	return &Loop{opener: opener, embedder: embedder, deadline: deadline}
}

// Run samples frames until a match clears the threshold or the deadline
// elapses. The gallery snapshot is taken by the caller once and reused
// for the whole pass. Frame read failures and detection misses are
// absorbed; the first qualifying frame confirms immediately.
func (l *Loop) Run(ctx context.Context, snapshot []gallery.Entry, opts matching.Options) Pass {
	source, err := l.opener.Open(ctx)
	if err != nil {
		return Pass{State: StateConnectFailed}
	}
	defer source.Close()

	pass := Pass{State: StateExhausted}
	started := time.Now()

	for time.Since(started) < l.deadline {
		if ctx.Err() != nil {
			break
		}

		frame, err := source.ReadFrame(ctx)
		if err != nil {
			continue
		}
		pass.Frames++

		detections, err := l.embedder.DetectFaces(ctx, frame)
		if err != nil {
			continue
		}
		best := engine.BestDetection(detections)
		if best == nil {
			continue
		}
		pass.Detections++

		result := matching.FindMatch(best.Embedding, snapshot, opts)
		if result.Matched {
			pass.State = StateConfirmed
			pass.Best = result
			pass.Frame = frame
			return pass
		}
		if result.Similarity > pass.Best.Similarity || pass.Best.Best == nil {
			pass.Best = result
		}
	}

	return pass
}
