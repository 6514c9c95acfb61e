// Package ingest turns validated submissions into stored, embedded records.
package ingest

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ogloszenia/opportunity-board/internal/ai"
	"github.com/ogloszenia/opportunity-board/internal/geo"
	"github.com/ogloszenia/opportunity-board/internal/models"
	"github.com/ogloszenia/opportunity-board/internal/schema"
	"github.com/ogloszenia/opportunity-board/internal/vectorstore"
)

var tracer = otel.Tracer("github.com/ogloszenia/opportunity-board/internal/ingest")

type Pipeline struct {
	Validator *schema.Validator
	Embedder  ai.Embedder
	Store     vectorstore.Store
	Geocoder  geo.Geocoder
	// NewID generates record identifiers. Defaults to random UUIDs.
	NewID func() string

	logger *slog.Logger
}

func NewPipeline(validator *schema.Validator, embedder ai.Embedder, store vectorstore.Store, geocoder geo.Geocoder) *Pipeline {
	if validator == nil {
		validator = schema.NewValidator(nil)
	}
	if geocoder == nil {
		geocoder = geo.Static(models.UnknownLocation)
	}
	return &Pipeline{
		Validator: validator,
		Embedder:  embedder,
		Store:     store,
		Geocoder:  geocoder,
		NewID:     uuid.NewString,
		logger:    slog.Default().With("component", "ingest"),
	}
}

// Submit validates a raw submission, embeds its description and writes it
// to the store. It returns the new record's id.
//
// Validation failures come back as *schema.ValidationError before any
// collaborator is called. Embedding and store failures come back as
// *models.CollaboratorError and are not retried.
func (p *Pipeline) Submit(ctx context.Context, data map[string]any) (string, error) {
	ctx, span := tracer.Start(ctx, "ingest.Submit")
	defer span.End()

	opp, err := p.Validator.Decode(data)
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return "", err
	}

	id := p.newID()
	span.SetAttributes(attribute.String("record.id", id))

	if opp.HasCoordinates() {
		opp.Location = p.Geocoder.ReverseGeocode(ctx, *opp.Lat, *opp.Lon)
		p.log().Debug("resolved coordinates", "id", id, "location", opp.Location)
	}

	embedding, err := p.Embedder.GenerateEmbedding(ctx, opp.Description)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return "", models.NewCollaboratorError(models.ErrEmbedding, err)
	}

	rec := models.StoredRecord{
		ID:        id,
		Document:  opp.Description,
		Metadata:  BuildMetadata(opp),
		Embedding: embedding,
	}
	if err := p.Store.Add(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store write failed")
		return "", models.NewCollaboratorError(models.ErrStoreWrite, err)
	}

	p.log().Info("stored opportunity", "id", id, "title", opp.Title)
	return id, nil
}

func (p *Pipeline) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}
