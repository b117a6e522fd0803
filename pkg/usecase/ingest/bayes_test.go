package ingest

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/tkumagai/cinexpert/pkg/model"
)

func TestAggregateRatings(t *testing.T) {
	records := []model.UserHistoryRecord{
		{UserID: 1, ItemID: 10, Rating: 4.0},
		{UserID: 2, ItemID: 10, Rating: 5.0},
		{UserID: 1, ItemID: 20, Rating: 2.0},
	}

	stats := aggregateRatings(records)

	gt.Equal(t, stats[10].Count, int64(2))
	gt.Equal(t, stats[10].Mean, 4.5)
	gt.Equal(t, stats[20].Count, int64(1))
	gt.Equal(t, stats[20].Mean, 2.0)
}

func TestBayesianShrinkageVanishesWithEvidence(t *testing.T) {
	stats := map[model.ItemID]RatingStats{
		1: {Mean: 5.0, Count: 1_000_000},
		2: {Mean: 2.0, Count: 3},
	}

	adjusted, err := bayesianAverage(stats, 1, 0.5)
	gt.NoError(t, err)

	// heavily rated item stays at its own mean
	gt.True(t, math.Abs(adjusted[1]-5.0) < 1e-4)
}

func TestBayesianZeroCountIsPurePrior(t *testing.T) {
	stats := map[model.ItemID]RatingStats{
		1: {Mean: 4.0, Count: 10},
		2: {Mean: 2.0, Count: 10},
		3: {Mean: 0.0, Count: 0},
	}

	adjusted, err := bayesianAverage(stats, 1, 0.5)
	gt.NoError(t, err)

	// global mean over filtered items is (4+2)/2 = 3; an item with no
	// evidence lands exactly on it
	gt.Equal(t, adjusted[3], 3.0)
}

func TestBayesianPullsSparseItemsTowardMean(t *testing.T) {
	stats := map[model.ItemID]RatingStats{
		1: {Mean: 3.0, Count: 100},
		2: {Mean: 3.0, Count: 100},
		3: {Mean: 5.0, Count: 1}, // single five-star rating
	}

	adjusted, err := bayesianAverage(stats, 1, 0.5)
	gt.NoError(t, err)

	// the lone perfect score gets pulled down toward the corpus
	gt.True(t, adjusted[3] < 5.0)
	gt.True(t, adjusted[3] > stats[1].Mean)

	// stronger prior pulls harder
	stronger, err := bayesianAverage(stats, 1, 5.0)
	gt.NoError(t, err)
	gt.True(t, stronger[3] < adjusted[3])
}

func TestBayesianBelowFilterStillAdjusted(t *testing.T) {
	// global mean comes only from items passing the count filter, but the
	// formula applies to every item
	stats := map[model.ItemID]RatingStats{
		1: {Mean: 4.0, Count: 50},
		2: {Mean: 1.0, Count: 2}, // below filter
	}

	adjusted, err := bayesianAverage(stats, 10, 0.5)
	gt.NoError(t, err)

	globalMean := 4.0 // only item 1 passes
	want := (1.0*2 + globalMean*0.5) / 2.5
	gt.True(t, math.Abs(adjusted[2]-want) < 1e-9)
}

func TestBayesianRejectsBadInput(t *testing.T) {
	stats := map[model.ItemID]RatingStats{1: {Mean: 4.0, Count: 1}}

	_, err := bayesianAverage(stats, 1, 0)
	gt.Error(t, err)

	_, err = bayesianAverage(stats, 100, 0.5)
	gt.Error(t, err)
}
