package eval

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
)

func writeQuizFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quiz.json")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadQuiz(t *testing.T) {
	path := writeQuizFile(t, `{
		"questions": [
			{
				"question": "___ directed Jaws.",
				"options": ["Steven Spielberg", "George Lucas", "Martin Scorsese"],
				"answer": "Steven Spielberg"
			}
		]
	}`)

	quiz, err := LoadQuiz(path)
	gt.NoError(t, err)
	gt.A(t, quiz.Questions).Length(1)
	gt.Equal(t, quiz.Questions[0].Answer, "Steven Spielberg")
}

func TestLoadQuizRejectsEmpty(t *testing.T) {
	path := writeQuizFile(t, `{"questions": []}`)
	_, err := LoadQuiz(path)
	gt.Error(t, err)

	_, err = LoadQuiz(filepath.Join(t.TempDir(), "missing.json"))
	gt.Error(t, err)
}

func TestRunQuizScoresSubstringCaseInsensitive(t *testing.T) {
	path := writeQuizFile(t, `{
		"questions": [
			{
				"question": "___ directed Jaws.",
				"options": ["Steven Spielberg", "George Lucas"],
				"answer": "Steven Spielberg"
			},
			{
				"question": "Psycho was released in ___.",
				"options": ["1960", "1975"],
				"answer": "1960"
			},
			{
				"question": "___ directed Vertigo.",
				"options": ["Alfred Hitchcock", "Orson Welles"],
				"answer": "Alfred Hitchcock"
			}
		]
	}`)
	quiz, err := LoadQuiz(path)
	gt.NoError(t, err)

	invoker := &scriptedInvoker{answer: func(prompt string) string {
		switch {
		case strings.Contains(prompt, "Jaws"):
			// verbose answer with different casing still counts
			return "The answer is steven spielberg, of course."
		case strings.Contains(prompt, "Psycho"):
			return "1960"
		default:
			return "Orson Welles" // wrong
		}
	}}

	result, err := RunQuiz(context.Background(), invoker, quiz)
	gt.NoError(t, err)
	gt.Equal(t, result.Correct, 2)
	gt.Equal(t, result.Questions, 3)
	gt.True(t, result.Accuracy > 0.66 && result.Accuracy < 0.67)

	// every prompt carries the question and all options
	gt.A(t, invoker.prompts).Length(3)
	gt.S(t, invoker.prompts[0]).Contains("Only respond with the option.")
	gt.S(t, invoker.prompts[0]).Contains("Steven Spielberg, George Lucas")
}
