package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/model"
)

// ErrItemNotFound is returned when a catalog item does not exist.
var ErrItemNotFound = goerr.New("catalog item not found")

// SearchHit is one result of a similarity search.
type SearchHit struct {
	ItemID         model.ItemID
	Title          string
	AdjustedRating float64
	RatingCount    int64
	Similarity     float64
}

// SearchInput is the filter set for a similarity search. MinAdjusted and
// MinCount are hard pre-filters applied before the ranking.
type SearchInput struct {
	Embedding   []float32
	MinAdjusted float64
	MinCount    int64
	Limit       int
}

// Repository defines the interface for the catalog/history analytic store.
// The catalog is immutable during serving; ReplaceCatalog and ReplaceRatings
// swap whole tables and are only called by the ingestion pipeline.
type Repository interface {
	// ReplaceCatalog replaces the whole catalog table with the given items
	ReplaceCatalog(ctx context.Context, items []model.CatalogItem) error

	// ReplaceRatings replaces the whole rating history table
	ReplaceRatings(ctx context.Context, records []model.UserHistoryRecord) error

	// SearchSimilar ranks catalog items by cosine similarity to the query
	// embedding, restricted to items passing both filters. Results are
	// ordered by descending similarity; ties break by ascending item ID so
	// that identical queries always return identical lists.
	SearchSimilar(ctx context.Context, input *SearchInput) ([]SearchHit, error)

	// GetVector returns the stored embedding of an item, or ErrItemNotFound
	GetVector(ctx context.Context, id model.ItemID) ([]float32, error)

	// GetItem returns a catalog item without its embedding
	GetItem(ctx context.Context, id model.ItemID) (*model.CatalogItem, error)

	// ListRaters returns the IDs of users with at least minRatings ratings
	ListRaters(ctx context.Context, minRatings int) ([]model.UserID, error)

	// UserHistory returns a user's ratings joined to catalog titles
	UserHistory(ctx context.Context, id model.UserID) ([]model.RatedTitle, error)

	// Close releases the underlying store
	Close() error
}
