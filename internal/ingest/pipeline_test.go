package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogloszenia/opportunity-board/internal/models"
	"github.com/ogloszenia/opportunity-board/internal/schema"
	"github.com/ogloszenia/opportunity-board/internal/vectorstore"
)

type fakeEmbedder struct {
	calls int
	texts []string
	err   error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.calls++
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

type failingStore struct {
	vectorstore.Store
	calls int
}

func (s *failingStore) Add(context.Context, models.StoredRecord) error {
	s.calls++
	return errors.New("collection is read-only")
}

type fakeGeocoder struct {
	calls int
	name  string
}

func (g *fakeGeocoder) ReverseGeocode(context.Context, float64, float64) string {
	g.calls++
	return g.name
}

func submission() map[string]any {
	return map[string]any{
		"title":       "Sprzątanie parku",
		"description": "Wspólne sprzątanie Parku Skaryszewskiego & okolic",
		"tags":        []any{"Zieleń i klimat", "Zwierzęta"},
		"thumbnail":   "https://example.org/park.jpg",
		"location":    "Warszawa",
		"start_date":  "2025-09-01",
		"end_date":    "30:09:2025",
		"workload":    []any{"Mini - Zaangażowanie do 1 godziny tygodniowo"},
		"form":        []any{"Weź udział w akcjach bezpośrednich", "Zostań aktywistą online"},
		"organizer":   "Fundacja Zielona",
	}
}

func newTestPipeline(embedder *fakeEmbedder, store vectorstore.Store, geocoder *fakeGeocoder) *Pipeline {
	p := NewPipeline(schema.NewValidator(nil), embedder, store, geocoder)
	p.NewID = func() string { return "rec-1" }
	return p
}

func TestSubmit_StoresRecord(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := vectorstore.NewMemory()
	p := newTestPipeline(embedder, store, &fakeGeocoder{})

	id, err := p.Submit(context.Background(), submission())
	require.NoError(t, err)
	assert.Equal(t, "rec-1", id)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, "Wspólne sprzątanie Parku Skaryszewskiego & okolic", embedder.texts[0])

	records, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "Wspólne sprzątanie Parku Skaryszewskiego & okolic", rec.Document)
	assert.Equal(t, map[string]any{
		models.MetaTitle:     "Sprzątanie parku",
		models.MetaTags:      "Zieleń i klimat, Zwierzęta",
		models.MetaThumbnail: "https://example.org/park.jpg",
		models.MetaLocation:  "Warszawa",
		models.MetaStartDate: "2025-09-01",
		models.MetaEndDate:   "30:09:2025",
		models.MetaWorkload:  "Mini - Zaangażowanie do 1 godziny tygodniowo",
		models.MetaForm:      "Weź udział w akcjach bezpośrednich, Zostań aktywistą online",
		models.MetaOrganizer: "Fundacja Zielona",
	}, rec.Metadata)
}

func TestSubmit_DefaultIDsAreUnique(t *testing.T) {
	store := vectorstore.NewMemory()
	p := NewPipeline(nil, &fakeEmbedder{}, store, nil)

	first, err := p.Submit(context.Background(), submission())
	require.NoError(t, err)
	second, err := p.Submit(context.Background(), submission())
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, store.Len())
}

func TestSubmit_ValidationFailureSkipsCollaborators(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &failingStore{}
	geocoder := &fakeGeocoder{}
	p := newTestPipeline(embedder, store, geocoder)

	data := submission()
	data["tags"] = []any{"Kosmos"}
	data["lat"] = 50.06
	data["lon"] = 19.94

	_, err := p.Submit(context.Background(), data)
	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has(schema.InvalidEnumValue))
	assert.Zero(t, embedder.calls)
	assert.Zero(t, store.calls)
	assert.Zero(t, geocoder.calls)
}

func TestSubmit_CoordinatesOverrideLocation(t *testing.T) {
	store := vectorstore.NewMemory()
	geocoder := &fakeGeocoder{name: "Kraków"}
	p := newTestPipeline(&fakeEmbedder{}, store, geocoder)

	data := submission()
	delete(data, "location")
	data["lat"] = 50.06
	data["lon"] = 19.94

	_, err := p.Submit(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 1, geocoder.calls)

	records, _ := store.GetAll(context.Background())
	assert.Equal(t, "Kraków", records[0].Metadata[models.MetaLocation])
}

func TestSubmit_UnresolvedCoordinatesStoreUnknown(t *testing.T) {
	store := vectorstore.NewMemory()
	p := newTestPipeline(&fakeEmbedder{}, store, &fakeGeocoder{name: models.UnknownLocation})

	data := submission()
	delete(data, "location")
	data["lat"] = 0.0
	data["lon"] = 0.0

	_, err := p.Submit(context.Background(), data)
	require.NoError(t, err)

	records, _ := store.GetAll(context.Background())
	assert.Equal(t, models.UnknownLocation, records[0].Metadata[models.MetaLocation])
}

func TestSubmit_EmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	store := &failingStore{}
	p := newTestPipeline(embedder, store, &fakeGeocoder{})

	_, err := p.Submit(context.Background(), submission())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmbedding)
	assert.Equal(t, "quota exceeded", err.Error())
	assert.Zero(t, store.calls)
}

func TestSubmit_StoreWriteFailure(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &failingStore{}
	p := newTestPipeline(embedder, store, &fakeGeocoder{})

	_, err := p.Submit(context.Background(), submission())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStoreWrite)
	assert.NotErrorIs(t, err, models.ErrEmbedding)
	assert.Equal(t, "collection is read-only", err.Error())
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 1, embedder.calls)
}

func TestSubmit_DescriptionStoredVerbatim(t *testing.T) {
	descriptions := []string{
		"Jedzenie & napoje <dla> seniorów",
		"Wiek uczestników a<b oraz c>d",
		"Kontakt: <jan@example.org>",
		`<b>Ważne</b> "od serca"`,
	}
	for _, desc := range descriptions {
		t.Run(desc, func(t *testing.T) {
			embedder := &fakeEmbedder{}
			store := vectorstore.NewMemory()
			p := newTestPipeline(embedder, store, &fakeGeocoder{})

			data := submission()
			data["description"] = desc
			_, err := p.Submit(context.Background(), data)
			require.NoError(t, err)

			records, err := store.GetAll(context.Background())
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, desc, records[0].Document)
			assert.Equal(t, []string{desc}, embedder.texts)
		})
	}
}
