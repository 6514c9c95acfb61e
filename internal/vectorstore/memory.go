package vectorstore

import (
	"context"
	"fmt"
	"maps"
	"math"
	"sort"
	"sync"

	"github.com/ogloszenia/opportunity-board/internal/models"
)

// Memory keeps records in process memory. Distances are cosine distances,
// matching the Postgres backend.
type Memory struct {
	mu      sync.RWMutex
	records []models.StoredRecord
	ids     map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{ids: make(map[string]struct{})}
}

func (m *Memory) Add(ctx context.Context, rec models.StoredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.ids[rec.ID]; exists {
		return fmt.Errorf("record %s already exists", rec.ID)
	}
	m.ids[rec.ID] = struct{}{}
	m.records = append(m.records, clone(rec))
	return nil
}

func (m *Memory) QueryByVector(ctx context.Context, embedding []float32, k int) ([]Hit, error) {
	if k < 1 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.records))
	for _, rec := range m.records {
		hits = append(hits, Hit{Record: clone(rec), Distance: CosineDistance(embedding, rec.Embedding)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *Memory) GetAll(ctx context.Context) ([]models.StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.StoredRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, clone(rec))
	}
	return out, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// CosineDistance returns 1 - cosine similarity. Vectors of different length
// or zero norm are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func clone(rec models.StoredRecord) models.StoredRecord {
	out := rec
	out.Metadata = maps.Clone(rec.Metadata)
	out.Embedding = append([]float32(nil), rec.Embedding...)
	return out
}
