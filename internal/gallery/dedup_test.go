package gallery

import (
	"testing"
)

func dedupVector(dim int, fill float32, spike int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = fill
	}
	if spike >= 0 && spike < dim {
		v[spike] = 1.0
	}
	return v
}

func TestDedupIndex_FindDuplicate(t *testing.T) {
	index := NewDedupIndex()
	index.Build([]Entry{
		{RUT: "11111111-1", Name: "Ana Rojas", ReferenceVector: dedupVector(512, 0.1, 0)},
		{RUT: "22222222-2", Name: "Luis Soto", ReferenceVector: dedupVector(512, 0.1, 100)},
		{RUT: "33333333-3", Name: "Sin Vector"},
	})

	if index.Len() != 2 {
		t.Fatalf("expected 2 indexed identities, got %d", index.Len())
	}

	// A query identical to Ana's vector, enrolled under a new RUT,
	// should flag Ana as a duplicate.
	hit := index.FindDuplicate("99999999-9", dedupVector(512, 0.1, 0), 0.01)
	if hit == nil {
		t.Fatal("expected a duplicate hit")
	}
	if hit.RUT != "11111111-1" {
		t.Errorf("expected duplicate RUT 11111111-1, got %s", hit.RUT)
	}
	if hit.Name != "Ana Rojas" {
		t.Errorf("expected duplicate name Ana Rojas, got %s", hit.Name)
	}
}

func TestDedupIndex_OwnIdentityIgnored(t *testing.T) {
	index := NewDedupIndex()
	index.Build([]Entry{
		{RUT: "11111111-1", Name: "Ana Rojas", ReferenceVector: dedupVector(512, 0.1, 0)},
	})

	// Re-enrolling the same RUT with the same face is not a duplicate.
	if hit := index.FindDuplicate("11111111-1", dedupVector(512, 0.1, 0), 0.01); hit != nil {
		t.Errorf("expected no duplicate for own identity, got %+v", hit)
	}
}

func TestDedupIndex_DistinctFacesNotFlagged(t *testing.T) {
	index := NewDedupIndex()
	index.Build([]Entry{
		{RUT: "11111111-1", Name: "Ana Rojas", ReferenceVector: dedupVector(512, 0.1, 0)},
	})

	// An orthogonal-ish vector is far in cosine distance.
	query := dedupVector(512, 0, 5)
	if hit := index.FindDuplicate("22222222-2", query, 0.01); hit != nil {
		t.Errorf("expected no duplicate for distinct face, got %+v", hit)
	}
}

func TestDedupIndex_EmptyIndex(t *testing.T) {
	index := NewDedupIndex()
	if hit := index.FindDuplicate("11111111-1", dedupVector(512, 0.1, 0), 0.5); hit != nil {
		t.Errorf("expected nil on empty index, got %+v", hit)
	}
}

func TestDedupIndex_Add(t *testing.T) {
	index := NewDedupIndex()
	index.Add("11111111-1", "Ana Rojas", dedupVector(512, 0.1, 0))
	index.Add("00000000-0", "No Vector", nil) // ignored

	if index.Len() != 1 {
		t.Fatalf("expected 1 indexed identity, got %d", index.Len())
	}

	hit := index.FindDuplicate("22222222-2", dedupVector(512, 0.1, 0), 0.01)
	if hit == nil || hit.RUT != "11111111-1" {
		t.Fatalf("expected duplicate hit for added identity, got %+v", hit)
	}
}
