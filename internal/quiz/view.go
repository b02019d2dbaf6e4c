package quiz

// QuestionView is the question as a session consumer sees it before
// answering.
type QuestionView struct {
	ID         string       `json:"id"`
	Type       QuestionType `json:"type"`
	Category   string       `json:"category"`
	Difficulty int          `json:"difficulty"`
	Prompt     string       `json:"prompt"`
	Choices    []Choice     `json:"choices,omitempty"`
}

// Feedback is what a consumer learns after submitting an answer. For
// multiple choice it reveals the key and rationales; for free-form answers
// only the score and the judge's comment. Rubrics are never revealed.
type Feedback struct {
	QuestionID       string            `json:"questionId"`
	Type             QuestionType      `json:"type"`
	IsCorrect        *bool             `json:"isCorrect,omitempty"`
	Score            float64           `json:"score"`
	Feedback         string            `json:"feedback,omitempty"`
	CorrectAnswer    []string          `json:"correctAnswer,omitempty"`
	Rationales       map[string]string `json:"rationales,omitempty"`
	JudgeUnavailable bool              `json:"judgeUnavailable,omitempty"`
}
