package eval

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/tkumagai/cinexpert/pkg/model"
)

func TestParseYesNo(t *testing.T) {
	cases := []struct {
		answer string
		want   bool
		ok     bool
	}{
		{"yes", true, true},
		{"Yes.", true, true},
		{"YES!", true, true},
		{"no", false, true},
		{"No, I would not.", false, true},
		{`"yes"`, true, true},
		{"probably yes", false, false}, // only the first word counts
		{"maybe", false, false},
		{"", false, false},
	}

	for _, c := range cases {
		got, ok := parseYesNo(c.answer)
		gt.Equal(t, ok, c.ok)
		if ok {
			gt.Equal(t, got, c.want)
		}
	}
}

func TestRunClassification(t *testing.T) {
	samples := []model.HeldOutSample{
		{UserID: 1, ItemID: 10, Title: "Heat (1995)", Rating: 4.5, LikedText: "Movies I like: Ronin (1998)"},
		{UserID: 2, ItemID: 20, Title: "Gigli (2003)", Rating: 2.0, LikedText: "Movies I like: Chinatown (1974)"},
		{UserID: 3, ItemID: 30, Title: "Alien (1979)", Rating: 5.0, LikedText: "Movies I like: The Thing (1982)"},
	}

	invoker := &scriptedInvoker{answer: func(prompt string) string {
		switch {
		case strings.Contains(prompt, "Heat"):
			return "Yes." // rating 4.5 >= 3.0, correct
		case strings.Contains(prompt, "Gigli"):
			return "Yes, definitely!" // rating 2.0 < 3.0, wrong
		default:
			return "no" // rating 5.0 >= 3.0, wrong
		}
	}}

	result, err := RunClassification(context.Background(), invoker, samples)
	gt.NoError(t, err)
	gt.Equal(t, result.Correct, 1)
	gt.Equal(t, result.Answered, 3)
	gt.Equal(t, result.Samples, 3)
	gt.True(t, result.Accuracy > 0.33 && result.Accuracy < 0.34)

	gt.S(t, invoker.prompts[0]).Contains("Movies I like: Ronin (1998)")
	gt.S(t, invoker.prompts[0]).Contains("Answer strictly with yes or no.")
}

func TestRunClassificationDiscardsUnparseable(t *testing.T) {
	samples := []model.HeldOutSample{
		{UserID: 1, ItemID: 10, Title: "Heat (1995)", Rating: 4.5, LikedText: "Movies I like: Ronin (1998)"},
		{UserID: 2, ItemID: 20, Title: "Gigli (2003)", Rating: 2.0, LikedText: "Movies I like: Chinatown (1974)"},
	}

	invoker := &scriptedInvoker{answer: func(prompt string) string {
		if strings.Contains(prompt, "Heat") {
			return "It depends on your mood."
		}
		return "No."
	}}

	result, err := RunClassification(context.Background(), invoker, samples)
	gt.NoError(t, err)
	gt.Equal(t, result.Answered, 1)
	gt.Equal(t, result.Correct, 1)
	gt.Equal(t, result.Samples, 2)
	gt.Equal(t, result.Accuracy, 1.0)
}

func TestRunClassificationZeroAnswered(t *testing.T) {
	samples := []model.HeldOutSample{
		{UserID: 1, ItemID: 10, Title: "Heat (1995)", Rating: 4.5, LikedText: "Movies I like: Ronin (1998)"},
	}

	invoker := &scriptedInvoker{answer: func(string) string { return "unsure" }}

	result, err := RunClassification(context.Background(), invoker, samples)
	gt.NoError(t, err)
	gt.Equal(t, result.Answered, 0)
	gt.Equal(t, result.Accuracy, 0.0)
}
