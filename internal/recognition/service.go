package recognition

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rleal/face-attendance/internal/device"
	"github.com/rleal/face-attendance/internal/gallery"
	"github.com/rleal/face-attendance/internal/matching"
)

// Confirmer performs the device confirmation handshake.
type Confirmer interface {
	Confirm(ctx context.Context, imageJPEG []byte) device.Outcome
}

// Service drives a full recognition flow: live loop, device
// confirmation, and the attendance write.
type Service struct {
	loop      *Loop
	store     gallery.Store
	confirmer Confirmer
	threshold float64
	verifyThr float64
}

// NewService creates a recognition service. The confirmer may be nil
// when no display device is configured; matches are then committed
// without a handshake.
func NewService(loop *Loop, store gallery.Store, confirmer Confirmer, threshold, verifyThreshold float64) *Service {
	return &Service{
		loop:      loop,
		store:     store,
		confirmer: confirmer,
		threshold: threshold,
		verifyThr: verifyThreshold,
	}
}

// Request selects the mode of one recognition call.
type Request struct {
	EventID   string // event to register attendance against
	Shift     string // optional gallery shift filter
	VerifyRUT string // 1:1 verification against this identity, skips the device
	DryRun    bool   // diagnostic mode: match but never write attendance
}

// Response is the definite verdict of one recognition call.
type Response struct {
	State         State                    `json:"state"`
	Matched       bool                     `json:"matched"`
	RUT           string                   `json:"rut,omitempty"`
	Name          string                   `json:"name,omitempty"`
	Similarity    float64                  `json:"similarity"`
	Device        string                   `json:"device,omitempty"`
	Attendance    gallery.AttendanceStatus `json:"attendance,omitempty"`
	TotalCompared int                      `json:"total_compared"`
	FramesSampled int                      `json:"frames_sampled"`
}

// Recognize runs one recognition pass and, when a match is confirmed,
// registers attendance. The gallery snapshot is fetched once up front.
func (s *Service) Recognize(ctx context.Context, req Request) (*Response, error) {
	if req.VerifyRUT != "" {
		return s.verify(ctx, req.VerifyRUT)
	}

	snapshot, err := s.store.ListActive(ctx, req.Shift)
	if err != nil {
		return nil, fmt.Errorf("loading gallery snapshot: %w", err)
	}

	pass := s.loop.Run(ctx, snapshot, matching.Options{
		Threshold: s.threshold,
		Shift:     req.Shift,
	})

	resp := &Response{
		State:         pass.State,
		Similarity:    pass.Best.Similarity,
		TotalCompared: pass.Best.TotalCompared,
		FramesSampled: pass.Frames,
	}
	if pass.Best.Best != nil {
		resp.RUT = pass.Best.Best.Entry.RUT
		resp.Name = pass.Best.Best.Entry.Name
	}
	if pass.State != StateConfirmed {
		return resp, nil
	}

	entry := pass.Best.Best.Entry

	outcome := s.confirmMatch(ctx, entry)
	resp.Device = outcome.String()
	if !outcome.Accepted() {
		return resp, nil
	}
	resp.Matched = true

	if req.DryRun || req.EventID == "" {
		return resp, nil
	}

	similarity := pass.Best.Similarity
	status, err := s.store.Append(ctx, gallery.Attendance{
		EventID:    req.EventID,
		RUT:        entry.RUT,
		Method:     gallery.MethodBiometric,
		Similarity: &similarity,
	})
	if err != nil {
		return nil, fmt.Errorf("registering attendance: %w", err)
	}
	resp.Attendance = status
	return resp, nil
}

// confirmMatch runs the device handshake for a confirmed match. Without
// a configured device the match stands on its own.
func (s *Service) confirmMatch(ctx context.Context, entry *gallery.Entry) device.Outcome {
	if s.confirmer == nil {
		return device.Confirmed
	}

	credential, err := device.RenderCredential(entry)
	if err != nil {
		log.Printf("rendering credential for %s: %v", entry.RUT, err)
		return device.Rejected
	}
	return s.confirmer.Confirm(ctx, credential)
}

// verify runs a 1:1 check against one enrolled identity. The device
// handshake is skipped and no attendance is written.
func (s *Service) verify(ctx context.Context, rut string) (*Response, error) {
	entry, err := s.store.Get(ctx, rut)
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			return nil, matching.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("loading identity %s: %w", rut, err)
	}
	if !entry.HasReferenceVector() {
		return nil, matching.ErrNoReferenceVector
	}

	pass := s.loop.Run(ctx, []gallery.Entry{*entry}, matching.Options{
		Threshold: s.verifyThr,
	})

	resp := &Response{
		State:         pass.State,
		Similarity:    pass.Best.Similarity,
		TotalCompared: pass.Best.TotalCompared,
		FramesSampled: pass.Frames,
		RUT:           entry.RUT,
		Name:          entry.Name,
	}
	resp.Matched = pass.State == StateConfirmed
	return resp, nil
}
