// Package search answers opportunity queries, semantically when free text is
// given and by listing the whole collection otherwise.
package search

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ogloszenia/opportunity-board/internal/ai"
	"github.com/ogloszenia/opportunity-board/internal/filter"
	"github.com/ogloszenia/opportunity-board/internal/models"
	"github.com/ogloszenia/opportunity-board/internal/schema"
	"github.com/ogloszenia/opportunity-board/internal/vectorstore"
)

// DefaultTopK is the number of nearest neighbours fetched in semantic mode,
// before filtering.
const DefaultTopK = 25

var tracer = otel.Tracer("github.com/ogloszenia/opportunity-board/internal/search")

type Request struct {
	// Text switches on semantic mode when non-empty.
	Text     string
	Criteria filter.Criteria
}

type Result struct {
	Count   int            `json:"count"`
	Results []models.Match `json:"results"`
}

type Pipeline struct {
	Vocabulary *schema.Vocabulary
	Embedder   ai.Embedder
	Store      vectorstore.Store
	TopK       int

	logger *slog.Logger
}

func NewPipeline(vocab *schema.Vocabulary, embedder ai.Embedder, store vectorstore.Store) *Pipeline {
	if vocab == nil {
		vocab = schema.DefaultVocabulary()
	}
	return &Pipeline{
		Vocabulary: vocab,
		Embedder:   embedder,
		Store:      store,
		TopK:       DefaultTopK,
		logger:     slog.Default().With("component", "search"),
	}
}

// Run validates the criteria, fetches candidates and filters them in the
// order the store returned them. Invalid criteria yield a
// *filter.InvalidFilterValueError before any collaborator is called.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "search.Run")
	defer span.End()

	if err := req.Criteria.Validate(p.Vocabulary); err != nil {
		span.SetStatus(codes.Error, "invalid filter")
		return nil, err
	}

	semantic := req.Text != ""
	span.SetAttributes(attribute.Bool("search.semantic", semantic))

	var (
		candidates []models.Match
		err        error
	)
	if semantic {
		candidates, err = p.nearest(ctx, req.Text)
	} else {
		candidates, err = p.browse(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	results := filter.Apply(candidates, req.Criteria)
	if results == nil {
		results = []models.Match{}
	}
	span.SetAttributes(
		attribute.Int("search.candidates", len(candidates)),
		attribute.Int("search.results", len(results)),
	)
	p.log().Debug("query served", "semantic", semantic, "candidates", len(candidates), "results", len(results))

	return &Result{Count: len(results), Results: results}, nil
}

func (p *Pipeline) nearest(ctx context.Context, text string) ([]models.Match, error) {
	embedding, err := p.Embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, models.NewCollaboratorError(models.ErrEmbedding, err)
	}

	k := p.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	hits, err := p.Store.QueryByVector(ctx, embedding, k)
	if err != nil {
		return nil, models.NewCollaboratorError(models.ErrStoreRead, err)
	}

	matches := make([]models.Match, 0, len(hits))
	for _, hit := range hits {
		distance := hit.Distance
		matches = append(matches, models.Match{
			ID:       hit.Record.ID,
			Document: hit.Record.Document,
			Metadata: hit.Record.Metadata,
			Distance: &distance,
		})
	}
	return matches, nil
}

func (p *Pipeline) browse(ctx context.Context) ([]models.Match, error) {
	records, err := p.Store.GetAll(ctx)
	if err != nil {
		return nil, models.NewCollaboratorError(models.ErrStoreRead, err)
	}

	matches := make([]models.Match, 0, len(records))
	for _, rec := range records {
		matches = append(matches, models.Match{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: rec.Metadata,
		})
	}
	return matches, nil
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}
