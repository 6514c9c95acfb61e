package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/ogloszenia/opportunity-board/internal/models"
	"github.com/ogloszenia/opportunity-board/internal/vectorstore"
)

// Store keeps one named collection of opportunity records in Postgres,
// searched with pgvector cosine distance.
type Store struct {
	pool       *pgxpool.Pool
	collection string
}

var _ vectorstore.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, collection string) *Store {
	return &Store{pool: pool, collection: collection}
}

const insertRecordSQL = `
	INSERT INTO opportunity_records (id, collection, document, metadata, embedding)
	VALUES ($1, $2, $3, $4::jsonb, $5)
`

func (s *Store) Add(ctx context.Context, rec models.StoredRecord) error {
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if _, err := s.pool.Exec(ctx, insertRecordSQL,
		rec.ID,
		s.collection,
		rec.Document,
		string(metaJSON),
		pgvector.NewVector(rec.Embedding),
	); err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}

const queryByVectorSQL = `
	SELECT id, document, metadata, embedding <=> $2 AS distance
	FROM opportunity_records
	WHERE collection = $1
	ORDER BY embedding <=> $2, seq
	LIMIT $3
`

func (s *Store) QueryByVector(ctx context.Context, embedding []float32, k int) ([]vectorstore.Hit, error) {
	if k < 1 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, queryByVectorSQL, s.collection, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var hits []vectorstore.Hit
	for rows.Next() {
		var hit vectorstore.Hit
		var metaRaw []byte
		if err := rows.Scan(&hit.Record.ID, &hit.Record.Document, &metaRaw, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if hit.Record.Metadata, err = decodeMetadata(hit.Record.ID, metaRaw); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return hits, nil
}

const getAllSQL = `
	SELECT id, document, metadata
	FROM opportunity_records
	WHERE collection = $1
	ORDER BY seq
`

func (s *Store) GetAll(ctx context.Context) ([]models.StoredRecord, error) {
	rows, err := s.pool.Query(ctx, getAllSQL, s.collection)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	records := []models.StoredRecord{}
	for rows.Next() {
		var rec models.StoredRecord
		var metaRaw []byte
		if err := rows.Scan(&rec.ID, &rec.Document, &metaRaw); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if rec.Metadata, err = decodeMetadata(rec.ID, metaRaw); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return records, nil
}

func decodeMetadata(id string, raw []byte) (map[string]any, error) {
	meta := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", id, err)
		}
	}
	return meta, nil
}
