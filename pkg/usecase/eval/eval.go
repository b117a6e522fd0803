package eval

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/adapter"
	"github.com/tkumagai/cinexpert/pkg/repository"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
)

// Tests selects which measurement procedures a run executes.
type Tests struct {
	Quiz           bool
	Correlation    bool
	Classification bool
}

// Any reports whether at least one test is selected.
func (t Tests) Any() bool {
	return t.Quiz || t.Correlation || t.Classification
}

// Runner executes the selected tests against the agent and the catalog. All
// procedures are read-only with respect to the stored data.
type Runner struct {
	repo    repository.Repository
	gemini  adapter.Gemini
	invoker Invoker
	dims    int

	tests    Tests
	samples  int
	seed     uint64
	quizPath string
}

// Input contains parameters for creating a Runner.
type Input struct {
	Repo    repository.Repository
	Gemini  adapter.Gemini
	Invoker Invoker
	Dims    int

	Tests    Tests
	Samples  int
	Seed     uint64
	QuizPath string
}

func New(input Input) *Runner {
	return &Runner{
		repo:     input.Repo,
		gemini:   input.Gemini,
		invoker:  input.Invoker,
		dims:     input.Dims,
		tests:    input.Tests,
		samples:  input.Samples,
		seed:     input.Seed,
		quizPath: input.QuizPath,
	}
}

// Run executes the selected tests and returns a results document keyed by
// test name.
func (r *Runner) Run(ctx context.Context) (map[string]any, error) {
	if !r.tests.Any() {
		return nil, goerr.New("no tests selected")
	}

	results := make(map[string]any)

	if r.tests.Quiz {
		quiz, err := LoadQuiz(r.quizPath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load quiz")
		}
		quizResult, err := RunQuiz(ctx, r.invoker, quiz)
		if err != nil {
			return nil, goerr.Wrap(err, "domain knowledge test failed")
		}
		results["domain_knowledge"] = quizResult
	}

	if r.tests.Correlation || r.tests.Classification {
		// both tests share one sample draw so they measure the same users
		samples, err := newSampler(r.repo, r.seed).sample(ctx, r.samples)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to draw held-out samples")
		}

		if r.tests.Correlation {
			corr, err := RunCorrelation(ctx, r.repo, r.gemini, r.dims, samples)
			switch {
			case errors.Is(err, ErrNoRatingVariance):
				// the other tests still count; omit the undefined metric
				logging.From(ctx).Warn("skipping correlation result", "error", err)
			case err != nil:
				return nil, goerr.Wrap(err, "recommendation correlation test failed")
			default:
				results["recommendation_correlation"] = corr
			}
		}

		if r.tests.Classification {
			class, err := RunClassification(ctx, r.invoker, samples)
			if err != nil {
				return nil, goerr.Wrap(err, "taste classification test failed")
			}
			results["taste_classification"] = class
		}
	}

	return results, nil
}

// WriteResults writes the results document as indented JSON.
func WriteResults(path string, results map[string]any) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal results")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return goerr.Wrap(err, "failed to write results", goerr.V("path", path))
	}
	return nil
}
