package matching

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rleal/face-attendance/internal/gallery"
	"github.com/rleal/face-attendance/internal/gallery/mock"
)

func vec(dim int, values ...float32) []float32 {
	v := make([]float32, dim)
	copy(v, values)
	return v
}

func uniformVec(dim int, fill float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestCosineSimilarity_Identity(t *testing.T) {
	v := uniformVec(512, 0.25)
	got := CosineSimilarity(v, v)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected similarity 1.0 for identical vectors, got %f", got)
	}
}

func TestCosineSimilarity_OppositeClampsToZero(t *testing.T) {
	v := uniformVec(512, 0.25)
	neg := make([]float32, len(v))
	for i := range v {
		neg[i] = -v[i]
	}
	if got := CosineSimilarity(v, neg); got != 0 {
		t.Errorf("expected clamp to 0 for opposite vectors, got %f", got)
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := vec(512, 0.5, 0.1, 0.9, 0.3)
	b := vec(512, 0.2, 0.8, 0.4, 0.6)
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Error("expected symmetric similarity")
	}
}

func TestCosineSimilarity_ZeroNorm(t *testing.T) {
	zero := make([]float32, 512)
	v := uniformVec(512, 0.3)

	got := CosineSimilarity(zero, v)
	if got != 0 {
		t.Errorf("expected exactly 0 for zero-norm input, got %f", got)
	}
	if math.IsNaN(got) {
		t.Error("zero-norm input must not produce NaN")
	}
}

func TestCosineSimilarity_MismatchedLengths(t *testing.T) {
	if got := CosineSimilarity(make([]float32, 512), make([]float32, 128)); got != 0 {
		t.Errorf("expected 0 for mismatched lengths, got %f", got)
	}
}

func TestEuclideanDistance(t *testing.T) {
	a := vec(512, 3)
	b := vec(512, 0, 4)
	got := EuclideanDistance(a, b)
	if math.Abs(got-5.0) > 1e-9 {
		t.Errorf("expected distance 5, got %f", got)
	}

	if !math.IsInf(EuclideanDistance(make([]float32, 512), make([]float32, 10)), 1) {
		t.Error("expected +Inf for mismatched lengths")
	}

	zero := make([]float32, 512)
	if math.IsInf(EuclideanDistance(zero, zero), 1) {
		t.Error("degenerate-but-valid pair must not yield +Inf")
	}
}

func galleryEntries() []gallery.Entry {
	return []gallery.Entry{
		{RUT: "11111111-1", Name: "Ana Rojas", Shift: gallery.ShiftDay, Active: true, ReferenceVector: uniformVec(512, 0.1)},
		{RUT: "22222222-2", Name: "Luis Soto", Shift: gallery.ShiftEvening, Active: true, ReferenceVector: vec(512, 1, 0, 0)},
		{RUT: "33333333-3", Name: "Inactivo", Shift: gallery.ShiftDay, Active: false, ReferenceVector: uniformVec(512, 0.1)},
		{RUT: "44444444-4", Name: "Sin Vector", Shift: gallery.ShiftDay, Active: true},
	}
}

func TestFindMatch_ExactMatch(t *testing.T) {
	entries := galleryEntries()
	query := uniformVec(512, 0.1)

	result := FindMatch(query, entries, Options{Threshold: 0.48})

	if !result.Matched {
		t.Fatal("expected a match")
	}
	if result.Best == nil || result.Best.Entry.RUT != "11111111-1" {
		t.Fatalf("expected best candidate 11111111-1, got %+v", result.Best)
	}
	if math.Abs(result.Similarity-1.0) > 1e-9 {
		t.Errorf("expected similarity 1.0, got %f", result.Similarity)
	}
	// Inactive and vectorless entries are skipped, not scored.
	if result.TotalCompared != 2 {
		t.Errorf("expected 2 comparisons, got %d", result.TotalCompared)
	}
}

func TestFindMatch_InclusiveBoundary(t *testing.T) {
	entries := []gallery.Entry{
		{RUT: "11111111-1", Name: "Ana", Active: true, ReferenceVector: uniformVec(512, 0.1)},
	}
	query := uniformVec(512, 0.1)

	// Similarity is exactly 1.0; threshold 1.0 must still match.
	result := FindMatch(query, entries, Options{Threshold: 1.0})
	if !result.Matched {
		t.Error("similarity equal to threshold must count as a match")
	}
}

func TestFindMatch_BelowThreshold(t *testing.T) {
	entries := []gallery.Entry{
		{RUT: "22222222-2", Name: "Luis", Active: true, ReferenceVector: vec(512, 1)},
	}
	query := vec(512, 0, 1) // orthogonal, similarity 0

	result := FindMatch(query, entries, Options{Threshold: 0.48})
	if result.Matched {
		t.Error("expected no match below threshold")
	}
	if result.Best != nil {
		t.Error("unmatched result must not carry a best candidate")
	}
	if result.TotalCompared != 1 {
		t.Errorf("expected 1 comparison, got %d", result.TotalCompared)
	}
	if len(result.Candidates) != 1 {
		t.Errorf("expected candidates reported for diagnostics, got %d", len(result.Candidates))
	}
}

func TestFindMatch_EmptyGallery(t *testing.T) {
	result := FindMatch(uniformVec(512, 0.1), nil, Options{Threshold: 0.48})

	if result.Matched {
		t.Error("expected no match against empty gallery")
	}
	if len(result.Candidates) != 0 {
		t.Errorf("expected empty candidate list, got %d", len(result.Candidates))
	}
	if result.TotalCompared != 0 {
		t.Errorf("expected 0 comparisons, got %d", result.TotalCompared)
	}
	if !math.IsInf(result.Distance, 1) {
		t.Errorf("expected +Inf distance, got %f", result.Distance)
	}
}

func TestFindMatch_ShiftFilter(t *testing.T) {
	entries := galleryEntries()
	query := vec(512, 1)

	result := FindMatch(query, entries, Options{Threshold: 0.48, Shift: gallery.ShiftEvening})
	if !result.Matched {
		t.Fatal("expected match within evening shift")
	}
	if result.Best.Entry.RUT != "22222222-2" {
		t.Errorf("expected evening entry, got %s", result.Best.Entry.RUT)
	}
	if result.TotalCompared != 1 {
		t.Errorf("expected shift filter to reduce comparisons to 1, got %d", result.TotalCompared)
	}
}

func TestFindMatch_CandidatesSortedDescending(t *testing.T) {
	entries := make([]gallery.Entry, 0, 8)
	for i := 0; i < 8; i++ {
		v := make([]float32, 512)
		v[0] = 1
		v[1] = float32(i) * 0.3 // increasing angle from the query
		entries = append(entries, gallery.Entry{
			RUT:             gallery.NormalizeRUT("1111111" + string(rune('0'+i)) + "1"),
			Name:            "User",
			Active:          true,
			ReferenceVector: v,
		})
	}
	query := vec(512, 1)

	result := FindMatch(query, entries, Options{Threshold: 0.99})

	if len(result.Candidates) != MaxCandidates {
		t.Fatalf("expected top %d candidates, got %d", MaxCandidates, len(result.Candidates))
	}
	for i := 1; i < len(result.Candidates); i++ {
		if result.Candidates[i].Similarity > result.Candidates[i-1].Similarity {
			t.Fatalf("candidates not sorted descending at position %d", i)
		}
	}
	if result.TotalCompared != 8 {
		t.Errorf("expected 8 comparisons, got %d", result.TotalCompared)
	}
}

func TestVerify(t *testing.T) {
	store := mock.NewStore()
	store.AddEntry(gallery.Entry{
		RUT: "11111111-1", Name: "Ana Rojas", Active: true,
		ReferenceVector: uniformVec(512, 0.1),
	})
	store.AddEntry(gallery.Entry{RUT: "44444444-4", Name: "Sin Vector", Active: true})

	ctx := context.Background()

	v, err := Verify(ctx, store, uniformVec(512, 0.1), "11111111-1", 0.70)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Verified {
		t.Error("expected verification to pass for identical vector")
	}
	if v.Name != "Ana Rojas" {
		t.Errorf("expected name Ana Rojas, got %s", v.Name)
	}

	if _, err := Verify(ctx, store, uniformVec(512, 0.1), "00000000-0", 0.70); !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}

	if _, err := Verify(ctx, store, uniformVec(512, 0.1), "44444444-4", 0.70); !errors.Is(err, ErrNoReferenceVector) {
		t.Errorf("expected ErrNoReferenceVector, got %v", err)
	}
}

func TestVerify_BelowThreshold(t *testing.T) {
	store := mock.NewStore()
	store.AddEntry(gallery.Entry{
		RUT: "11111111-1", Name: "Ana Rojas", Active: true,
		ReferenceVector: vec(512, 1),
	})

	v, err := Verify(context.Background(), store, vec(512, 0, 1), "11111111-1", 0.70)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Verified {
		t.Error("expected verification to fail for orthogonal vector")
	}
}
