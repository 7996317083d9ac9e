package enroll

import (
	"context"
	"fmt"
	"log"

	"github.com/rleal/face-attendance/internal/config"
	"github.com/rleal/face-attendance/internal/engine"
	"github.com/rleal/face-attendance/internal/video"
)

// maxAttemptsPerSample bounds how many frames are pulled for each
// wanted sample before the session gives up on reaching the target.
const maxAttemptsPerSample = 10

// Embedder extracts face embeddings from a frame.
type Embedder interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]engine.Detection, error)
}

// CaptureResult is the output of one completed capture session.
type CaptureResult struct {
	ReferenceVector []float32
	ProfileFrame    []byte // last frame with a detected face
	SamplesUsed     int
}

// Session runs one biometric capture: it pulls frames from the video
// source, extracts embeddings, and aggregates them into a reference
// vector. Progress is published through the shared tracker.
type Session struct {
	opener   video.Opener
	embedder Embedder
	tracker  *Tracker
	cfg      config.CaptureConfig
}

// NewSession creates a capture session.
func NewSession(opener video.Opener, embedder Embedder, tracker *Tracker, cfg config.CaptureConfig) *Session {
	return &Session{
		opener:   opener,
		embedder: embedder,
		tracker:  tracker,
		cfg:      cfg,
	}
}

// Run captures frames until the sample target is reached or the frame
// budget runs out, then aggregates. Per-frame failures (bad read, no
// face) are absorbed; only source failure and a sample shortfall abort.
func (s *Session) Run(ctx context.Context) (*CaptureResult, error) {
	s.tracker.Reset(s.cfg.TargetSamples)

	source, err := s.opener.Open(ctx)
	if err != nil {
		s.tracker.SetStatus(StatusError, "camera unavailable")
		return nil, fmt.Errorf("opening video source: %w", err)
	}
	defer source.Close()

	// Let the camera stabilize exposure before sampling.
	for i := 0; i < s.cfg.WarmupFrames; i++ {
		if _, err := source.ReadFrame(ctx); err != nil {
			if ctx.Err() != nil {
				s.tracker.SetStatus(StatusError, "capture cancelled")
				return nil, ctx.Err()
			}
		}
	}

	var samples []Sample
	var lastFaceFrame []byte

	budget := s.cfg.TargetSamples * maxAttemptsPerSample
	for attempt := 0; attempt < budget && len(samples) < s.cfg.TargetSamples; attempt++ {
		if ctx.Err() != nil {
			s.tracker.SetStatus(StatusError, "capture cancelled")
			return nil, ctx.Err()
		}

		frame, err := source.ReadFrame(ctx)
		if err != nil {
			continue
		}

		detections, err := s.embedder.DetectFaces(ctx, frame)
		if err != nil {
			log.Printf("enrollment frame %d: detection request failed: %v", attempt, err)
			continue
		}

		best := engine.BestDetection(detections)
		if best == nil {
			continue
		}

		lastFaceFrame = frame
		samples = append(samples, Sample{Embedding: best.Embedding, Frame: frame})
		s.tracker.Increment()
	}

	if len(samples) < s.cfg.MinSamples {
		s.tracker.SetStatus(StatusError, "not enough valid captures")
		return nil, fmt.Errorf("%w: got %d, need %d", ErrInsufficientSamples, len(samples), s.cfg.MinSamples)
	}

	vector, err := Aggregate(samples, AggregateOptions{
		MinSamples:       s.cfg.MinSamples,
		MADMultiplier:    s.cfg.MADMultiplier,
		StdDevMultiplier: s.cfg.StdDevMultiplier,
	})
	if err != nil {
		s.tracker.SetStatus(StatusError, "aggregation failed")
		return nil, err
	}

	s.tracker.SetStatus(StatusCompleted, "")
	return &CaptureResult{
		ReferenceVector: vector,
		ProfileFrame:    lastFaceFrame,
		SamplesUsed:     len(samples),
	}, nil
}
