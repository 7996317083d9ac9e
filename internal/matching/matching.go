// Package matching implements similarity scoring and ranking of a
// query embedding against the gallery of enrolled identities.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rleal/face-attendance/internal/gallery"
)

var (
	// ErrIdentityNotFound is returned by Verify when the expected RUT is
	// absent from the gallery.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrNoReferenceVector is returned by Verify when the identity exists
	// but was never enrolled biometrically.
	ErrNoReferenceVector = errors.New("identity has no reference vector")
)

// Candidate is one scored gallery entry.
type Candidate struct {
	Entry      *gallery.Entry
	Similarity float64 // cosine similarity, clamped to [0, 1]
	Distance   float64 // Euclidean distance, diagnostic only
}

// Result is the terminal output of one matching pass. Candidates always
// holds the top entries (at most MaxCandidates) regardless of outcome.
type Result struct {
	Matched       bool
	Best          *Candidate
	Similarity    float64
	Distance      float64
	Candidates    []Candidate
	TotalCompared int
}

// MaxCandidates is how many ranked candidates a Result reports.
const MaxCandidates = 5

// CosineSimilarity computes the cosine similarity between two vectors,
// clamped into [0, 1]. A zero-norm or mismatched pair scores 0; that is
// a defined degenerate value, not an error.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return similarity
}

// EuclideanDistance computes the L2 distance between two vectors.
// Returns +Inf for mismatched lengths; a valid pair never yields +Inf.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Options controls one FindMatch pass.
type Options struct {
	// Threshold is the minimum similarity for a match; the boundary is
	// inclusive (similarity == threshold counts as a match).
	Threshold float64
	// Shift optionally restricts the gallery to one shift ("D"/"V").
	// Empty means no filter.
	Shift string
}

// FindMatch ranks the query against a gallery snapshot. Inactive
// entries, entries outside the shift filter, and entries without a
// reference vector are skipped rather than scored as zero.
func FindMatch(query []float32, entries []gallery.Entry, opts Options) Result {
	candidates := make([]Candidate, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if !e.Active {
			continue
		}
		if opts.Shift != "" && e.Shift != opts.Shift {
			continue
		}
		if !e.HasReferenceVector() {
			continue
		}
		candidates = append(candidates, Candidate{
			Entry:      e,
			Similarity: CosineSimilarity(query, e.ReferenceVector),
			Distance:   EuclideanDistance(query, e.ReferenceVector),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})

	total := len(candidates)
	top := candidates
	if len(top) > MaxCandidates {
		top = top[:MaxCandidates]
	}

	if total == 0 {
		return Result{
			Matched:       false,
			Similarity:    0,
			Distance:      math.Inf(1),
			Candidates:    []Candidate{},
			TotalCompared: 0,
		}
	}

	best := candidates[0]
	if best.Similarity >= opts.Threshold {
		return Result{
			Matched:       true,
			Best:          &best,
			Similarity:    best.Similarity,
			Distance:      best.Distance,
			Candidates:    top,
			TotalCompared: total,
		}
	}

	return Result{
		Matched:       false,
		Similarity:    best.Similarity,
		Distance:      best.Distance,
		Candidates:    top,
		TotalCompared: total,
	}
}

// Verification is the outcome of a 1:1 check.
type Verification struct {
	Verified   bool
	Similarity float64
	Name       string
}

// Verify runs a 1:1 check of the query against one specific identity.
func Verify(ctx context.Context, reader gallery.Reader, query []float32, rut string, threshold float64) (*Verification, error) {
	entry, err := reader.Get(ctx, rut)
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, rut)
		}
		return nil, fmt.Errorf("loading identity %s: %w", rut, err)
	}
	if !entry.HasReferenceVector() {
		return nil, fmt.Errorf("%w: %s", ErrNoReferenceVector, rut)
	}

	similarity := CosineSimilarity(query, entry.ReferenceVector)
	return &Verification{
		Verified:   similarity >= threshold,
		Similarity: similarity,
		Name:       entry.Name,
	}, nil
}
