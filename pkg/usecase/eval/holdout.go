package eval

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/model"
	"github.com/tkumagai/cinexpert/pkg/repository"
)

const (
	// minHistory is the least number of ratings a user needs before one can
	// be withheld and the rest still describe a taste.
	minHistory = 5

	// likeThreshold marks a rating as a positive preference when building
	// the liked-titles summary.
	likeThreshold = 4.0
)

// sampler draws held-out user/item pairs. The random source is seeded
// explicitly so an evaluation run can be reproduced exactly.
type sampler struct {
	repo repository.Repository
	rng  *rand.Rand
}

func newSampler(repo repository.Repository, seed uint64) *sampler {
	return &sampler{
		repo: repo,
		rng:  rand.New(rand.NewPCG(seed, seed)),
	}
}

// sample draws up to n users with sufficient history; for each it withholds
// exactly one rated item uniformly at random and summarizes the remaining
// liked titles.
func (s *sampler) sample(ctx context.Context, n int) ([]model.HeldOutSample, error) {
	if n <= 0 {
		return nil, goerr.New("sample count must be positive", goerr.V("n", n))
	}

	users, err := s.repo.ListRaters(ctx, minHistory)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list raters")
	}
	if len(users) == 0 {
		return nil, goerr.New("no users with sufficient history", goerr.V("min_history", minHistory))
	}

	s.rng.Shuffle(len(users), func(i, j int) {
		users[i], users[j] = users[j], users[i]
	})
	if n < len(users) {
		users = users[:n]
	}

	samples := make([]model.HeldOutSample, 0, len(users))
	for _, userID := range users {
		history, err := s.repo.UserHistory(ctx, userID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to fetch user history", goerr.V("user_id", userID))
		}
		if len(history) < minHistory {
			// ratings on items outside the catalog shrink the usable history
			continue
		}

		heldOut := history[s.rng.IntN(len(history))]

		var liked []string
		for _, rt := range history {
			if rt.ItemID == heldOut.ItemID {
				continue
			}
			if rt.Rating >= likeThreshold {
				liked = append(liked, rt.Title)
			}
		}
		if len(liked) == 0 {
			// nothing to describe this user's taste with
			continue
		}

		samples = append(samples, model.HeldOutSample{
			UserID:     userID,
			ItemID:     heldOut.ItemID,
			Title:      heldOut.Title,
			Rating:     heldOut.Rating,
			LikedText:  fmt.Sprintf("Movies I like: %s", strings.Join(liked, ", ")),
			LikedCount: len(liked),
		})
	}

	if len(samples) == 0 {
		return nil, goerr.New("no usable held-out samples")
	}
	return samples, nil
}
