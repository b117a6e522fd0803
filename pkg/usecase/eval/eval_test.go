package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/tkumagai/cinexpert/pkg/model"
	"github.com/tkumagai/cinexpert/pkg/repository"
	"google.golang.org/genai"
)

// scriptedInvoker answers each prompt through a lookup function.
type scriptedInvoker struct {
	answer  func(prompt string) string
	prompts []string
}

func (m *scriptedInvoker) Invoke(ctx context.Context, req model.ExpertRequest) (*model.ExpertResponse, error) {
	m.prompts = append(m.prompts, req.UserInput)
	return &model.ExpertResponse{
		GeneratedResponse: m.answer(req.UserInput),
		UserInput:         req.UserInput,
		ResponseID:        uuid.New(),
		ConversationID:    req.ConversationID,
	}, nil
}

// fixedEmbedder always encodes to the same vector.
type fixedEmbedder struct {
	vec []float32
}

func (m *fixedEmbedder) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, goerr.New("not implemented")
}

func (m *fixedEmbedder) Embedding(ctx context.Context, text string, dimensions int) ([]float32, error) {
	return m.vec, nil
}

func TestTestsAny(t *testing.T) {
	gt.True(t, !Tests{}.Any())
	gt.True(t, Tests{Quiz: true}.Any())
	gt.True(t, Tests{Classification: true}.Any())
}

func TestRunnerRejectsEmptySelection(t *testing.T) {
	runner := New(Input{})
	_, err := runner.Run(context.Background())
	gt.Error(t, err)
}

func TestRunnerSkipsUndefinedCorrelation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	items := make([]model.CatalogItem, 0, 6)
	ratings := make([]model.UserHistoryRecord, 0, 18)
	for i := int64(1); i <= 6; i++ {
		items = append(items, model.CatalogItem{
			ID:        model.ItemID(i),
			Title:     fmt.Sprintf("Movie %d", i),
			Embedding: []float32{float32(i), 1},
		})
	}
	// every rating identical: the held-out ratings have no variance
	for user := int64(1); user <= 3; user++ {
		for item := int64(1); item <= 6; item++ {
			ratings = append(ratings, model.UserHistoryRecord{
				UserID: model.UserID(user),
				ItemID: model.ItemID(item),
				Rating: 4.0,
			})
		}
	}
	gt.NoError(t, repo.ReplaceCatalog(ctx, items))
	gt.NoError(t, repo.ReplaceRatings(ctx, ratings))

	invoker := &scriptedInvoker{answer: func(string) string { return "yes" }}
	runner := New(Input{
		Repo:    repo,
		Gemini:  &fixedEmbedder{vec: []float32{1, 0}},
		Invoker: invoker,
		Dims:    2,
		Tests:   Tests{Correlation: true, Classification: true},
		Samples: 10,
		Seed:    1,
	})

	results, err := runner.Run(ctx)
	gt.NoError(t, err)

	// the undefined metric is omitted, the rest of the run survives
	_, ok := results["recommendation_correlation"]
	gt.True(t, !ok)
	gt.Map(t, results).HasKey("taste_classification")

	// and the results document still serializes
	path := filepath.Join(t.TempDir(), "results.json")
	gt.NoError(t, WriteResults(path, results))
}

func TestWriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	gt.NoError(t, WriteResults(path, map[string]any{
		"domain_knowledge": &QuizResult{Accuracy: 0.8, Correct: 4, Questions: 5},
	}))

	data, err := os.ReadFile(path)
	gt.NoError(t, err)

	var doc map[string]map[string]any
	gt.NoError(t, json.Unmarshal(data, &doc))
	gt.Equal(t, doc["domain_knowledge"]["accuracy"], 0.8)
	gt.True(t, strings.HasSuffix(string(data), "\n"))
}
