package database

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tieubaoca/finsight-be/types"
)

type indexedSegment struct {
	segment types.Segment
	vector  []float32
	norm    float64
}

// MemoryIndex is a process-local vector index ranking by cosine similarity.
type MemoryIndex struct {
	mu        sync.RWMutex
	documents map[string][]indexedSegment
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{documents: make(map[string][]indexedSegment)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, documentID string, segments []types.Segment, vectors [][]float32) error {
	if len(segments) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d segments", len(vectors), len(segments))
	}
	entries := make([]indexedSegment, len(segments))
	for i := range segments {
		entries[i] = indexedSegment{
			segment: segments[i],
			vector:  vectors[i],
			norm:    norm(vectors[i]),
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[documentID] = entries
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, documentID string, vector []float32, limit int) ([]types.Segment, error) {
	m.mu.RLock()
	entries, ok := m.documents[documentID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("index for %s: %w", documentID, types.ErrNotFound)
	}

	type scored struct {
		segment types.Segment
		score   float64
	}
	qnorm := norm(vector)
	results := make([]scored, 0, len(entries))
	for _, e := range entries {
		results = append(results, scored{segment: e.segment, score: cosine(vector, qnorm, e.vector, e.norm)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	out := make([]types.Segment, len(results))
	for i, r := range results {
		out[i] = r.segment
	}
	return out, nil
}

func (m *MemoryIndex) Delete(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, documentID)
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	n := min(len(a), len(b))
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
