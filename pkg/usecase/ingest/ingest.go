package ingest

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/adapter"
	"github.com/tkumagai/cinexpert/pkg/model"
	"github.com/tkumagai/cinexpert/pkg/repository"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
)

// Pipeline turns the raw CSV corpus into the catalog: description text,
// confidence-adjusted ratings, embeddings, then a full table replacement.
// The corpus is assumed to fit in memory.
type Pipeline struct {
	repo        repository.Repository
	gemini      adapter.Gemini
	dims        int
	minCount    int64
	priorWeight float64
}

// Input contains parameters for creating a Pipeline.
type Input struct {
	Repo        repository.Repository
	Gemini      adapter.Gemini
	Dims        int
	MinCount    int64   // minimum rating count for the global-mean filter
	PriorWeight float64 // shrinkage strength of the rating prior
}

func New(input Input) *Pipeline {
	p := &Pipeline{
		repo:        input.Repo,
		gemini:      input.Gemini,
		dims:        input.Dims,
		minCount:    input.MinCount,
		priorWeight: input.PriorWeight,
	}
	if p.minCount <= 0 {
		p.minCount = 1
	}
	if p.priorWeight <= 0 {
		p.priorWeight = 0.5
	}
	return p
}

// Run ingests the CSVs under dataDir and replaces the catalog and rating
// tables. Movies without any rating are excluded from the catalog: they have
// no mean to adjust and can never pass a search filter.
func (p *Pipeline) Run(ctx context.Context, dataDir string) error {
	logger := logging.From(ctx)

	movies, err := loadMovies(dataDir)
	if err != nil {
		return goerr.Wrap(err, "failed to load movies")
	}
	ratings, err := loadRatings(dataDir)
	if err != nil {
		return goerr.Wrap(err, "failed to load ratings")
	}
	tags, err := loadTags(dataDir)
	if err != nil {
		return goerr.Wrap(err, "failed to load tags")
	}
	links, err := loadLinks(dataDir)
	if err != nil {
		return goerr.Wrap(err, "failed to load links")
	}
	logger.Info("loaded corpus",
		"movies", len(movies), "ratings", len(ratings),
		"tagged_movies", len(tags), "links", len(links))

	stats := aggregateRatings(ratings)
	adjusted, err := bayesianAverage(stats, p.minCount, p.priorWeight)
	if err != nil {
		return goerr.Wrap(err, "failed to compute adjusted ratings")
	}

	items := make([]model.CatalogItem, 0, len(stats))
	for _, movie := range movies {
		s, ok := stats[movie.ID]
		if !ok {
			continue
		}

		description := buildDescription(movie.Title, movie.Genres, tags[movie.ID])
		embedding, err := p.gemini.Embedding(ctx, description, p.dims)
		if err != nil {
			return goerr.Wrap(err, "failed to embed description", goerr.V("item_id", movie.ID))
		}

		link := links[movie.ID]
		items = append(items, model.CatalogItem{
			ID:             movie.ID,
			Title:          movie.Title,
			ImdbID:         link.ImdbID,
			TmdbID:         link.TmdbID,
			Description:    description,
			Embedding:      embedding,
			MeanRating:     s.Mean,
			RatingCount:    s.Count,
			AdjustedRating: adjusted[movie.ID],
		})
	}
	logger.Info("scored embeddings", "items", len(items))

	if err := p.repo.ReplaceCatalog(ctx, items); err != nil {
		return goerr.Wrap(err, "failed to store catalog")
	}
	if err := p.repo.ReplaceRatings(ctx, ratings); err != nil {
		return goerr.Wrap(err, "failed to store ratings")
	}

	logger.Info("ingestion completed", "catalog_size", len(items))
	return nil
}
