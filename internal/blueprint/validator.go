package blueprint

import (
	"fmt"

	"github.com/abhisek/casequiz/internal/quiz"
)

// Draft is a parsed blueprint before it is accepted.
type Draft struct {
	Categories []quiz.CategoryWeight
	Questions  []quiz.Question
}

// Validator checks a parsed blueprint. Implementations are stateless.
type Validator interface {
	// Name identifies the validator in errors and logs.
	Name() string

	// Validate returns nil when the draft passes.
	Validate(d *Draft) *ValidationError
}

// ValidationError describes why a draft was rejected.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// MaxTargetCount caps a single category's weight.
const MaxTargetCount = 20

// StructuralValidator checks field presence, ranges and per-type shape.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(d *Draft) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)}
	}

	if len(d.Categories) == 0 {
		return fail("no categories")
	}
	seen := make(map[string]bool, len(d.Categories))
	for i, c := range d.Categories {
		if c.Key == "" {
			return fail("category %d has an empty key", i)
		}
		if seen[c.Key] {
			return fail("category %q listed twice", c.Key)
		}
		seen[c.Key] = true
		if c.TargetCount < 1 || c.TargetCount > MaxTargetCount {
			return fail("category %q target count %d outside 1..%d", c.Key, c.TargetCount, MaxTargetCount)
		}
	}

	if len(d.Questions) == 0 {
		return fail("no questions")
	}
	for i := range d.Questions {
		if msg := checkQuestion(&d.Questions[i]); msg != "" {
			return fail("question %d: %s", i, msg)
		}
	}
	return nil
}

func checkQuestion(q *quiz.Question) string {
	if !q.Type.Valid() {
		return fmt.Sprintf("unknown type %q", q.Type)
	}
	if q.Difficulty < quiz.MinDifficulty || q.Difficulty > quiz.MaxDifficulty {
		return fmt.Sprintf("difficulty %d outside %d..%d", q.Difficulty, quiz.MinDifficulty, quiz.MaxDifficulty)
	}
	if q.Prompt == "" {
		return "empty prompt"
	}

	if q.Type.FreeForm() {
		if len(q.Rubric) == 0 {
			return "free-form question without rubric"
		}
		return ""
	}

	if len(q.Choices) < 2 {
		return "mcq needs at least 2 choices"
	}
	keys := make(map[string]bool, len(q.Choices))
	for _, c := range q.Choices {
		if c.Key == "" || c.Text == "" {
			return "mcq choice with empty key or text"
		}
		if keys[c.Key] {
			return fmt.Sprintf("duplicate choice key %q", c.Key)
		}
		keys[c.Key] = true
	}
	if len(q.CorrectAnswer) == 0 {
		return "mcq without correct answer"
	}
	for _, k := range q.CorrectAnswer {
		if !keys[k] {
			return fmt.Sprintf("correct answer %q is not a choice", k)
		}
	}
	return ""
}

// ReferenceValidator checks that every question points at a declared
// category.
type ReferenceValidator struct{}

func (v *ReferenceValidator) Name() string { return "reference" }

func (v *ReferenceValidator) Validate(d *Draft) *ValidationError {
	declared := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		declared[c.Key] = true
	}
	for i, q := range d.Questions {
		if !declared[q.Category] {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("question %d uses undeclared category %q", i, q.Category),
			}
		}
	}
	return nil
}
