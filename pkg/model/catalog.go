package model

// ItemID identifies a catalog item (movieId in the MovieLens CSVs).
type ItemID int64

// UserID identifies a rating user.
type UserID int64

// CatalogItem is one movie in the analytic store. Items are written once per
// ingestion run and never mutated; re-ingestion replaces the whole table.
type CatalogItem struct {
	ID          ItemID
	Title       string
	ImdbID      string // zero-padded IMDb identifier, kept as text
	TmdbID      int64  // 0 when the corpus has no TMDB mapping
	Description string // title + genres + deduplicated tags, embedding input
	Embedding   []float32
	MeanRating  float64
	RatingCount int64
	// AdjustedRating is the confidence-adjusted (Bayesian) rating: pulled
	// toward the corpus mean when RatingCount is small, converging to
	// MeanRating as RatingCount grows.
	AdjustedRating float64
}

// UserHistoryRecord is a single historical rating. Read-only source of truth
// for both the rating prior and held-out evaluation sampling.
type UserHistoryRecord struct {
	UserID UserID
	ItemID ItemID
	Rating float64 // half-star ordinal, 0.5-5.0
}

// RatedTitle is a history record joined to its catalog title.
type RatedTitle struct {
	ItemID ItemID
	Title  string
	Rating float64
}

// HeldOutSample is one evaluation sample: a single withheld rating plus a
// text summary of the user's remaining liked titles. Regenerated per
// evaluation run, never persisted.
type HeldOutSample struct {
	UserID     UserID
	ItemID     ItemID
	Title      string
	Rating     float64
	LikedText  string
	LikedCount int
}
