package ingest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogloszenia/opportunity-board/internal/models"
	"github.com/ogloszenia/opportunity-board/internal/schema"
	"github.com/ogloszenia/opportunity-board/internal/vectorstore"
)

// syncEmbedder is safe for the concurrent calls SubmitAll makes.
type syncEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *syncEmbedder) GenerateEmbedding(context.Context, string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return []float32{1, 0}, nil
}

func TestSubmitAll(t *testing.T) {
	store := vectorstore.NewMemory()
	embedder := &syncEmbedder{}
	p := NewPipeline(nil, embedder, store, nil)

	bad := submission()
	delete(bad, "title")
	items := []map[string]any{submission(), bad, submission(), submission()}

	results, err := p.SubmitAll(context.Background(), items, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, res := range results {
		assert.Equal(t, i, res.Index)
	}
	assert.NoError(t, results[0].Err)
	assert.NotEmpty(t, results[0].ID)
	var verr *schema.ValidationError
	assert.ErrorAs(t, results[1].Err, &verr)
	assert.Empty(t, results[1].ID)

	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 3, embedder.calls)
}

func TestSubmitAll_CancelledContext(t *testing.T) {
	store := vectorstore.NewMemory()
	p := NewPipeline(nil, &syncEmbedder{}, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := p.SubmitAll(ctx, []map[string]any{submission()}, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Zero(t, store.Len())
}

func TestDecodeSubmissions(t *testing.T) {
	yamlInput := `
- title: Sprzątanie parku
  tags: [Zwierzęta, Zdrowie]
  lat: 52.1
- title: Koncert
`
	items, err := DecodeSubmissions(strings.NewReader(yamlInput))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Sprzątanie parku", items[0]["title"])
	assert.Equal(t, []any{"Zwierzęta", "Zdrowie"}, items[0]["tags"])

	jsonInput := `[{"title": "Zbiórka", "workload": ["Mini - Zaangażowanie do 1 godziny tygodniowo"]}]`
	items, err = DecodeSubmissions(strings.NewReader(jsonInput))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Zbiórka", items[0]["title"])

	items, err = DecodeSubmissions(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = DecodeSubmissions(strings.NewReader("title: not a list"))
	assert.Error(t, err)
}

func TestDecodedYAMLSubmissionIsValid(t *testing.T) {
	input := `
- title: Sprzątanie parku
  description: Wspólne sprzątanie
  tags: [Zwierzęta]
  thumbnail: https://example.org/p.jpg
  lat: 52
  lon: "21.01"
  start_date: 2025-09-01
  end_date: "30:09:2025"
  workload: [Mini - Zaangażowanie do 1 godziny tygodniowo]
  form: [Zostań aktywistą online]
  organizer: Fundacja
`
	items, err := DecodeSubmissions(strings.NewReader(input))
	require.NoError(t, err)

	store := vectorstore.NewMemory()
	p := NewPipeline(nil, &syncEmbedder{}, store, &fakeGeocoder{name: "Warszawa"})
	_, err = p.Submit(context.Background(), items[0])
	require.NoError(t, err)

	records, _ := store.GetAll(context.Background())
	assert.Equal(t, "Warszawa", records[0].Metadata[models.MetaLocation])
	assert.Equal(t, "2025-09-01", records[0].Metadata[models.MetaStartDate])
}
