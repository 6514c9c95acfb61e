// Package vectorstore defines the narrow contract the pipelines need from a
// vector database, plus an in-memory implementation for development and
// tests. The chroma and db packages provide the networked backends.
package vectorstore

import (
	"context"

	"github.com/ogloszenia/opportunity-board/internal/models"
)

// Hit is a nearest-neighbour result. Smaller Distance means closer.
type Hit struct {
	Record   models.StoredRecord
	Distance float64
}

// Store is the collection of opportunity records.
type Store interface {
	// Add writes one record. Ids are generated by the caller.
	Add(ctx context.Context, rec models.StoredRecord) error
	// QueryByVector returns up to k records ordered by ascending distance.
	QueryByVector(ctx context.Context, embedding []float32, k int) ([]Hit, error)
	// GetAll returns every record in insertion order.
	GetAll(ctx context.Context) ([]models.StoredRecord, error)
}
