package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/model"
)

// Memory is a brute-force in-memory Repository. It exists for tests and for
// the evaluation harness when no DuckDB file is wanted; the ranking contract
// (similarity DESC, item ID ASC) is identical to the DuckDB implementation.
type Memory struct {
	mu      sync.RWMutex
	items   map[model.ItemID]model.CatalogItem
	ratings []model.UserHistoryRecord
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		items: make(map[model.ItemID]model.CatalogItem),
	}
}

func (r *Memory) Close() error { return nil }

func (r *Memory) ReplaceCatalog(ctx context.Context, items []model.CatalogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[model.ItemID]model.CatalogItem, len(items))
	for _, item := range items {
		r.items[item.ID] = item
	}
	return nil
}

func (r *Memory) ReplaceRatings(ctx context.Context, records []model.UserHistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ratings = append([]model.UserHistoryRecord(nil), records...)
	return nil
}

func (r *Memory) SearchSimilar(ctx context.Context, input *SearchInput) ([]SearchHit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var hits []SearchHit
	for _, item := range r.items {
		if item.AdjustedRating < input.MinAdjusted || item.RatingCount < input.MinCount {
			continue
		}
		sim, err := CosineSimilarity(input.Embedding, item.Embedding)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to score item", goerr.V("item_id", item.ID))
		}
		hits = append(hits, SearchHit{
			ItemID:         item.ID,
			Title:          item.Title,
			AdjustedRating: item.AdjustedRating,
			RatingCount:    item.RatingCount,
			Similarity:     sim,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ItemID < hits[j].ItemID
	})

	if input.Limit > 0 && len(hits) > input.Limit {
		hits = hits[:input.Limit]
	}
	return hits, nil
}

func (r *Memory) GetVector(ctx context.Context, id model.ItemID) ([]float32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, goerr.Wrap(ErrItemNotFound, "no embedding stored", goerr.V("item_id", id))
	}
	return item.Embedding, nil
}

func (r *Memory) GetItem(ctx context.Context, id model.ItemID) (*model.CatalogItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, goerr.Wrap(ErrItemNotFound, "no such item", goerr.V("item_id", id))
	}
	item.Embedding = nil
	return &item, nil
}

func (r *Memory) ListRaters(ctx context.Context, minRatings int) ([]model.UserID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.UserID]int)
	for _, rec := range r.ratings {
		counts[rec.UserID]++
	}

	var users []model.UserID
	for id, n := range counts {
		if n >= minRatings {
			users = append(users, id)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

func (r *Memory) UserHistory(ctx context.Context, id model.UserID) ([]model.RatedTitle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var history []model.RatedTitle
	for _, rec := range r.ratings {
		if rec.UserID != id {
			continue
		}
		item, ok := r.items[rec.ItemID]
		if !ok {
			// rating for an item outside the catalog, same as a failed join
			continue
		}
		history = append(history, model.RatedTitle{
			ItemID: rec.ItemID,
			Title:  item.Title,
			Rating: rec.Rating,
		})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].ItemID < history[j].ItemID })
	return history, nil
}

// CosineSimilarity returns the normalized dot product of two equal-length
// vectors, in [-1, 1].
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, goerr.New("vector length mismatch",
			goerr.V("len_a", len(a)), goerr.V("len_b", len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
