package model

// Quiz is a multiple-choice trivia file used by the evaluation harness.
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

// QuizQuestion is a fill-in-the-blank question with a known answer.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}
