package evaluate

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/abhisek/casequiz/internal/quiz"
)

type mcqStrategy struct{}

func (mcqStrategy) Evaluate(_ context.Context, q *quiz.Question, _ quiz.Facts, answer quiz.Answer) Evaluation {
	correct := SameKeys(SubmittedKeys(answer), q.CorrectAnswer)

	ev := Evaluation{IsCorrect: &correct}
	if correct {
		ev.Score = 1
		ev.Feedback = "Correct."
	} else {
		ev.Feedback = "Not quite. Correct answer: " + strings.Join(q.CorrectAnswer, ", ") + "."
	}
	return ev
}

// SubmittedKeys extracts choice keys from an answer. Text may be a JSON
// array or keys separated by commas, semicolons or whitespace.
func SubmittedKeys(a quiz.Answer) []string {
	if a.Keys != nil {
		return a.Keys
	}
	text := strings.TrimSpace(a.Text)
	if strings.HasPrefix(text, "[") {
		var keys []string
		if err := json.Unmarshal([]byte(text), &keys); err == nil {
			return keys
		}
	}
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
}

// SameKeys reports whether two key lists name the same set, ignoring case,
// surrounding space, order and repeats. Two empty lists are equal.
func SameKeys(submitted, correct []string) bool {
	a, b := keySet(submitted), keySet(correct)
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			set[k] = true
		}
	}
	return set
}
