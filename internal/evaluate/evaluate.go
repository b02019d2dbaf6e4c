// Package evaluate scores submitted answers: exact key sets for multiple
// choice, an LLM judge with a length heuristic fallback for free text.
package evaluate

import (
	"context"
	"errors"

	"github.com/abhisek/casequiz/internal/llm"
	"github.com/abhisek/casequiz/internal/logger"
	"github.com/abhisek/casequiz/internal/quiz"
)

// ErrJudgeUnavailable marks a free-form evaluation scored by the length
// heuristic because the judge could not be used.
var ErrJudgeUnavailable = errors.New("answer judge unavailable")

// Evaluation is the outcome of scoring one answer.
type Evaluation struct {
	// IsCorrect is set for multiple choice only.
	IsCorrect *bool

	// Score is in [0,1]: 0 or 1 for multiple choice, a multiple of 0.25
	// for free-form answers.
	Score float64

	Feedback string

	// JudgeUnavailable is true when the heuristic replaced the judge;
	// Err then wraps ErrJudgeUnavailable with the cause.
	JudgeUnavailable bool
	Err              error
}

// Strategy scores answers for one question type. Implementations never
// fail; degraded paths are reported on the Evaluation.
type Strategy interface {
	Evaluate(ctx context.Context, q *quiz.Question, facts quiz.Facts, answer quiz.Answer) Evaluation
}

// Evaluator routes by question type to the matching Strategy.
type Evaluator struct {
	strategies map[quiz.QuestionType]Strategy
}

// New installs the built-in strategies. A nil provider grades every
// free-form answer with the heuristic.
func New(provider llm.Provider, cfg JudgeConfig) *Evaluator {
	judge := newJudgeStrategy(provider, cfg, logger.OrNop(cfg.Logger).With("component", "evaluate"))
	return &Evaluator{
		strategies: map[quiz.QuestionType]Strategy{
			quiz.TypeMCQ:      mcqStrategy{},
			quiz.TypeShort:    judge,
			quiz.TypeScenario: judge,
		},
	}
}

// Evaluate scores answer against q.
func (e *Evaluator) Evaluate(ctx context.Context, q *quiz.Question, facts quiz.Facts, answer quiz.Answer) Evaluation {
	s, ok := e.strategies[q.Type]
	if !ok {
		return Evaluation{Feedback: "This question type cannot be scored."}
	}
	return s.Evaluate(ctx, q, facts, answer)
}

// Feedback turns an evaluation into the consumer payload. Multiple choice
// reveals the key and rationales; free-form reveals only score and comment.
func Feedback(q *quiz.Question, ev Evaluation) quiz.Feedback {
	fb := quiz.Feedback{
		QuestionID:       q.ID,
		Type:             q.Type,
		IsCorrect:        ev.IsCorrect,
		Score:            ev.Score,
		Feedback:         ev.Feedback,
		JudgeUnavailable: ev.JudgeUnavailable,
	}
	if q.Type == quiz.TypeMCQ {
		fb.CorrectAnswer = append([]string(nil), q.CorrectAnswer...)
		if len(q.Rationales) > 0 {
			fb.Rationales = make(map[string]string, len(q.Rationales))
			for k, v := range q.Rationales {
				fb.Rationales[k] = v
			}
		}
	}
	return fb
}
