package db

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogloszenia/opportunity-board/internal/models"
)

func TestQueriesAreScopedToCollection(t *testing.T) {
	for _, sql := range []string{queryByVectorSQL, getAllSQL} {
		assert.Contains(t, sql, "WHERE collection = $1")
	}
	assert.Contains(t, queryByVectorSQL, "ORDER BY embedding <=> $2")
	assert.True(t, strings.Contains(getAllSQL, "ORDER BY seq"), "browse must keep insertion order")
}

func TestDecodeMetadata(t *testing.T) {
	meta, err := decodeMetadata("a", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, meta)

	meta, err = decodeMetadata("b", []byte(`{"Tags":"Zwierzęta"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Tags": "Zwierzęta"}, meta)

	_, err = decodeMetadata("c", []byte("not json"))
	assert.ErrorContains(t, err, "decode metadata of c")
}

// TestStoreRoundTrip needs a Postgres with pgvector; it is skipped unless
// DATABASE_URL is set.
func TestStoreRoundTrip(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	defer pool.Close()
	require.NoError(t, ApplyMigrations(ctx, pool))

	store := NewStore(pool, "test-"+uuid.NewString())
	first := models.StoredRecord{
		ID:        uuid.NewString(),
		Document:  "Sprzątanie parku",
		Metadata:  map[string]any{models.MetaTags: "Zwierzęta"},
		Embedding: []float32{1, 0, 0},
	}
	second := models.StoredRecord{
		ID:        uuid.NewString(),
		Document:  "Koncert charytatywny",
		Metadata:  map[string]any{models.MetaTags: "Zdrowie"},
		Embedding: []float32{0, 1, 0},
	}
	require.NoError(t, store.Add(ctx, first))
	require.NoError(t, store.Add(ctx, second))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, "Zwierzęta", all[0].Metadata[models.MetaTags])

	hits, err := store.QueryByVector(ctx, []float32{0, 1, 0}, 25)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, second.ID, hits[0].Record.ID)
	assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
}
