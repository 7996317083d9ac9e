package gallery

import (
	"sync"

	"github.com/coder/hnsw"
)

// hnswMaxNeighbors is the M parameter of the HNSW graph.
const hnswMaxNeighbors = 16

// DedupIndex is an in-memory nearest-neighbor index over enrolled
// reference vectors. It backs the duplicate-identity guard consulted at
// enrollment time: a new reference vector nearly identical to a
// different RUT's vector usually means the same person was enrolled
// twice under two identities.
type DedupIndex struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[string]
	entries map[string]string // RUT -> display name, for reporting
}

// NewDedupIndex creates an empty index.
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{entries: make(map[string]string)}
}

// Build replaces the index contents with the given entries. Entries
// without a reference vector are skipped.
func (d *DedupIndex) Build(entries []Entry) {
	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.CosineDistance

	names := make(map[string]string, len(entries))
	for i := range entries {
		e := &entries[i]
		if !e.HasReferenceVector() {
			continue
		}
		g.Add(hnsw.MakeNode(e.RUT, e.ReferenceVector))
		names[e.RUT] = e.Name
	}

	d.mu.Lock()
	d.graph = g
	d.entries = names
	d.mu.Unlock()
}

// Add inserts or replaces one identity's vector.
func (d *DedupIndex) Add(rut, name string, vector []float32) {
	if len(vector) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.graph == nil {
		g := hnsw.NewGraph[string]()
		g.M = hnswMaxNeighbors
		g.Ml = 1.0 / float64(hnswMaxNeighbors)
		g.Distance = hnsw.CosineDistance
		d.graph = g
	}
	d.graph.Add(hnsw.MakeNode(rut, vector))
	d.entries[rut] = name
}

// Len returns the number of indexed identities.
func (d *DedupIndex) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// DuplicateHit describes a near-identical enrolled identity.
type DuplicateHit struct {
	RUT      string
	Name     string
	Distance float64 // cosine distance, lower is closer
}

// FindDuplicate searches for an enrolled identity other than rut whose
// vector sits within maxDistance (cosine) of the query. Returns nil
// when no such neighbor exists.
func (d *DedupIndex) FindDuplicate(rut string, vector []float32, maxDistance float64) *DuplicateHit {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.graph == nil || len(vector) == 0 {
		return nil
	}

	// Ask for a couple of neighbors so the identity's own node does not
	// mask a genuine duplicate.
	neighbors := d.graph.Search(vector, 2)
	for _, n := range neighbors {
		if n.Key == rut {
			continue
		}
		dist := float64(hnsw.CosineDistance(vector, n.Value))
		if dist <= maxDistance {
			return &DuplicateHit{
				RUT:      n.Key,
				Name:     d.entries[n.Key],
				Distance: dist,
			}
		}
	}
	return nil
}
