package ingest

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/model"
)

// RatingStats is the per-item aggregate over the rating history.
type RatingStats struct {
	Mean  float64
	Count int64
}

// aggregateRatings folds the rating history into per-item mean and count.
func aggregateRatings(records []model.UserHistoryRecord) map[model.ItemID]RatingStats {
	sums := make(map[model.ItemID]float64)
	counts := make(map[model.ItemID]int64)
	for _, rec := range records {
		sums[rec.ItemID] += rec.Rating
		counts[rec.ItemID]++
	}

	stats := make(map[model.ItemID]RatingStats, len(counts))
	for id, n := range counts {
		stats[id] = RatingStats{Mean: sums[id] / float64(n), Count: n}
	}
	return stats
}

// bayesianAverage shrinks each item's mean rating toward the corpus mean in
// proportion to how little evidence backs it:
//
//	adj = (mean*n + globalMean*w) / (n + w)
//
// The global mean is computed only over items with at least minCount ratings;
// the formula is still applied to every item, including those below the
// filter, so a sparse item lands close to the corpus mean rather than at its
// own noisy extreme. With n=0 the result is exactly the global mean; as n
// grows the adjustment vanishes.
func bayesianAverage(stats map[model.ItemID]RatingStats, minCount int64, priorWeight float64) (map[model.ItemID]float64, error) {
	if priorWeight <= 0 {
		return nil, goerr.New("prior weight must be positive", goerr.V("weight", priorWeight))
	}

	var sum float64
	var n int64
	for _, s := range stats {
		if s.Count >= minCount {
			sum += s.Mean
			n++
		}
	}
	if n == 0 {
		return nil, goerr.New("no items pass the minimum rating count filter",
			goerr.V("min_count", minCount))
	}
	globalMean := sum / float64(n)

	adjusted := make(map[model.ItemID]float64, len(stats))
	for id, s := range stats {
		adjusted[id] = (s.Mean*float64(s.Count) + globalMean*priorWeight) / (float64(s.Count) + priorWeight)
	}
	return adjusted, nil
}
