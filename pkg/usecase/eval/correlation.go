package eval

import (
	"context"
	"errors"
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/adapter"
	"github.com/tkumagai/cinexpert/pkg/model"
	"github.com/tkumagai/cinexpert/pkg/repository"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNoRatingVariance is returned when the held-out ratings (or similarities)
// are all identical, leaving the correlation coefficient undefined.
var ErrNoRatingVariance = goerr.New("ratings have no variance, correlation is undefined")

// CorrelationResult reports how well cosine similarity between a user's
// taste description and a withheld item's embedding tracks the rating the
// user actually gave that item.
type CorrelationResult struct {
	PearsonR float64 `json:"pearson_r"`
	PValue   float64 `json:"p_value"`
	Samples  int     `json:"samples"`
}

// RunCorrelation encodes each sample's liked-titles text, fetches the
// held-out item's stored embedding and correlates cosine similarity with the
// held-out rating. Samples whose held-out item has no embedding row are
// skipped.
func RunCorrelation(ctx context.Context, repo repository.Repository, gemini adapter.Gemini, dims int, samples []model.HeldOutSample) (*CorrelationResult, error) {
	logger := logging.From(ctx)

	var sims, ratings []float64
	for _, sample := range samples {
		itemVec, err := repo.GetVector(ctx, sample.ItemID)
		if err != nil {
			if errors.Is(err, repository.ErrItemNotFound) {
				logger.Warn("held-out item has no embedding, skipping",
					"user_id", sample.UserID, "item_id", sample.ItemID)
				continue
			}
			return nil, goerr.Wrap(err, "failed to fetch held-out embedding",
				goerr.V("item_id", sample.ItemID))
		}

		tasteVec, err := gemini.Embedding(ctx, sample.LikedText, dims)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode taste description",
				goerr.V("user_id", sample.UserID))
		}

		sim, err := repository.CosineSimilarity(tasteVec, itemVec)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to compute similarity",
				goerr.V("item_id", sample.ItemID))
		}

		sims = append(sims, sim)
		ratings = append(ratings, sample.Rating)
	}

	if len(sims) < 3 {
		return nil, goerr.New("not enough samples for correlation", goerr.V("samples", len(sims)))
	}

	r := stat.Correlation(sims, ratings, nil)
	if math.IsNaN(r) {
		// a degenerate draw, e.g. every held-out rating identical
		return nil, goerr.Wrap(ErrNoRatingVariance, "cannot correlate samples",
			goerr.V("samples", len(sims)))
	}
	p := pearsonPValue(r, len(sims))

	logger.Info("correlation test completed",
		"samples", len(sims), "pearson_r", r, "p_value", p)

	return &CorrelationResult{PearsonR: r, PValue: p, Samples: len(sims)}, nil
}

// pearsonPValue is the two-sided p-value of a Pearson coefficient under the
// null hypothesis of no correlation, via the exact t-distribution with n-2
// degrees of freedom.
func pearsonPValue(r float64, n int) float64 {
	if math.IsNaN(r) {
		return math.NaN()
	}
	if 1-r*r <= 0 {
		return 0
	}

	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * dist.CDF(-math.Abs(t))
}
