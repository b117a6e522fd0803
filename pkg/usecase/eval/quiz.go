package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/model"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
)

// Invoker is the agent surface the harness exercises. It bypasses the HTTP
// boundary on purpose: evaluation measures the orchestration loop, not the
// transport.
type Invoker interface {
	Invoke(ctx context.Context, req model.ExpertRequest) (*model.ExpertResponse, error)
}

// LoadQuiz reads a multiple-choice quiz document from a JSON file.
func LoadQuiz(path string) (*model.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read quiz file", goerr.V("path", path))
	}

	var quiz model.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, goerr.Wrap(err, "failed to parse quiz file", goerr.V("path", path))
	}
	if len(quiz.Questions) == 0 {
		return nil, goerr.New("quiz has no questions", goerr.V("path", path))
	}
	return &quiz, nil
}

// QuizResult is the domain-knowledge test outcome.
type QuizResult struct {
	Accuracy  float64 `json:"accuracy"`
	Correct   int     `json:"correct"`
	Questions int     `json:"questions"`
}

// RunQuiz asks the expert every question with a constrained instruction and
// scores a case-insensitive substring match of the expected answer.
func RunQuiz(ctx context.Context, invoker Invoker, quiz *model.Quiz) (*QuizResult, error) {
	logger := logging.From(ctx)

	correct := 0
	for i, q := range quiz.Questions {
		prompt := fmt.Sprintf(
			"Please fill in the blank with the correct option. Only respond with the option. Question: %s Options: %s",
			q.Question, strings.Join(q.Options, ", "))

		resp, err := invoker.Invoke(ctx, model.NewExpertRequest(prompt))
		if err != nil {
			return nil, goerr.Wrap(err, "quiz question failed", goerr.V("question", q.Question))
		}

		if strings.Contains(strings.ToLower(resp.GeneratedResponse), strings.ToLower(q.Answer)) {
			correct++
		}
		logger.Debug("scored quiz question", "index", i, "correct_so_far", correct)
	}

	return &QuizResult{
		Accuracy:  float64(correct) / float64(len(quiz.Questions)),
		Correct:   correct,
		Questions: len(quiz.Questions),
	}, nil
}
