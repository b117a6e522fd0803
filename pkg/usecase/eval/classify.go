package eval

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/model"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
)

// yesThreshold splits held-out ratings into would-like / would-not-like
// ground truth.
const yesThreshold = 3.0

// ClassificationResult reports the binary would-like test. Samples whose
// answer cannot be parsed as yes/no are excluded from the denominator; with
// zero parseable answers the accuracy is 0, not an error.
type ClassificationResult struct {
	Accuracy float64 `json:"accuracy"`
	Correct  int     `json:"correct"`
	Answered int     `json:"answered"`
	Samples  int     `json:"samples"`
}

// RunClassification asks the expert a strict yes/no preference question for
// each held-out sample and scores against the thresholded held-out rating.
func RunClassification(ctx context.Context, invoker Invoker, samples []model.HeldOutSample) (*ClassificationResult, error) {
	logger := logging.From(ctx)

	correct, answered := 0, 0
	for _, sample := range samples {
		prompt := fmt.Sprintf(
			"%s. Based on that, would I like the movie %q? Answer strictly with yes or no.",
			sample.LikedText, sample.Title)

		resp, err := invoker.Invoke(ctx, model.NewExpertRequest(prompt))
		if err != nil {
			return nil, goerr.Wrap(err, "classification question failed",
				goerr.V("user_id", sample.UserID), goerr.V("item_id", sample.ItemID))
		}

		predicted, ok := parseYesNo(resp.GeneratedResponse)
		if !ok {
			logger.Warn("unparseable yes/no answer, discarding sample",
				"user_id", sample.UserID, "answer", resp.GeneratedResponse)
			continue
		}
		answered++

		if predicted == (sample.Rating >= yesThreshold) {
			correct++
		}
	}

	result := &ClassificationResult{
		Correct:  correct,
		Answered: answered,
		Samples:  len(samples),
	}
	if answered > 0 {
		result.Accuracy = float64(correct) / float64(answered)
	}

	logger.Info("classification test completed",
		"samples", len(samples), "answered", answered, "accuracy", result.Accuracy)

	return result, nil
}

// parseYesNo accepts an answer whose first word is yes or no, ignoring case
// and trailing punctuation. Anything else is unparseable.
func parseYesNo(answer string) (bool, bool) {
	fields := strings.Fields(strings.ToLower(answer))
	if len(fields) == 0 {
		return false, false
	}

	first := strings.Trim(fields[0], ".,!:;\"'")
	switch first {
	case "yes":
		return true, true
	case "no":
		return false, true
	default:
		return false, false
	}
}
