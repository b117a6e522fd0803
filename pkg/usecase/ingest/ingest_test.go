package ingest_test

import (
	"context"
	"hash/fnv"
	"math"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/tkumagai/cinexpert/pkg/repository"
	"github.com/tkumagai/cinexpert/pkg/usecase/ingest"
	"google.golang.org/genai"
)

// hashEmbedder is a deterministic stand-in for the embedding encoder:
// identical text always maps to the identical unit vector.
type hashEmbedder struct {
	dims int
}

func (m *hashEmbedder) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, goerr.New("not implemented")
}

func (m *hashEmbedder) Embedding(ctx context.Context, text string, dimensions int) ([]float32, error) {
	vec := make([]float32, m.dims)
	for i := 0; i+2 < len(text); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(text[i : i+3]))
		vec[h.Sum32()%uint32(m.dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func TestPipelineRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	embedder := &hashEmbedder{dims: 32}

	pipeline := ingest.New(ingest.Input{
		Repo:        repo,
		Gemini:      embedder,
		Dims:        32,
		MinCount:    1,
		PriorWeight: 0.5,
	})
	gt.NoError(t, pipeline.Run(ctx, "testdata"))

	// a movie with no ratings never enters the catalog
	_, err := repo.GetItem(ctx, 4)
	gt.Error(t, err)

	item, err := repo.GetItem(ctx, 3)
	gt.NoError(t, err)
	gt.Equal(t, item.Title, "Heat (1995)")
	gt.Equal(t, item.ImdbID, "0113277")
	gt.Equal(t, item.TmdbID, int64(949))
	gt.Equal(t, item.RatingCount, int64(3))
	gt.S(t, item.Description).Contains("heist")

	// querying an item's own description text returns it at rank 1
	queryVec, err := embedder.Embedding(ctx, item.Description, 32)
	gt.NoError(t, err)

	hits, err := repo.SearchSimilar(ctx, &repository.SearchInput{
		Embedding:   queryVec,
		MinAdjusted: 0,
		MinCount:    1,
		Limit:       3,
	})
	gt.NoError(t, err)
	gt.A(t, hits).Longer(0)
	gt.Equal(t, hits[0].Title, "Heat (1995)")
	gt.True(t, hits[0].Similarity > 0.99)
}

func TestPipelineStoresRatings(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	pipeline := ingest.New(ingest.Input{
		Repo:   repo,
		Gemini: &hashEmbedder{dims: 16},
		Dims:   16,
	})
	gt.NoError(t, pipeline.Run(ctx, "testdata"))

	users, err := repo.ListRaters(ctx, 2)
	gt.NoError(t, err)
	gt.A(t, users).Length(3)

	history, err := repo.UserHistory(ctx, 1)
	gt.NoError(t, err)
	gt.A(t, history).Length(3)
	gt.Equal(t, history[2].Rating, 4.5)
}

func TestPipelineMissingDataDir(t *testing.T) {
	pipeline := ingest.New(ingest.Input{
		Repo:   repository.NewMemory(),
		Gemini: &hashEmbedder{dims: 16},
		Dims:   16,
	})
	gt.Error(t, pipeline.Run(context.Background(), "no-such-dir"))
}
