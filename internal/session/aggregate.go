package session

import (
	"math"
	"time"

	"github.com/abhisek/casequiz/internal/quiz"
)

type tally struct {
	sum   float64
	count int
}

func (t *tally) add(v float64) {
	t.sum += v
	t.count++
}

func (t tally) percent() int {
	if t.count == 0 {
		return 0
	}
	return int(math.Round(100 * t.sum / float64(t.count)))
}

// Finish folds a session's results into its outcome. It is pure: the
// caller decides whether the session may be closed and persists the
// outcome.
//
// Results from other sessions and results whose question is unknown are
// ignored. Categories without a scored result are left out of the
// competency map, which is different from a score of 0.
func Finish(s *quiz.Session, results []quiz.Result, questions map[string]quiz.Question, now time.Time) quiz.Outcome {
	latest := make(map[string]quiz.Result, len(results))
	for _, r := range results {
		if r.SessionID != s.ID {
			continue
		}
		if prev, ok := latest[r.QuestionID]; ok && prev.UpdatedAt.After(r.UpdatedAt) {
			continue
		}
		latest[r.QuestionID] = r
	}

	var overall tally
	byCategory := make(map[string]*tally)
	for qid, r := range latest {
		q, ok := questions[qid]
		if !ok {
			continue
		}
		v, ok := contribution(q, r)
		if !ok {
			continue
		}
		overall.add(v)
		t := byCategory[q.Category]
		if t == nil {
			t = &tally{}
			byCategory[q.Category] = t
		}
		t.add(v)
	}

	competency := make(map[string]int, len(byCategory))
	for cat, t := range byCategory {
		competency[cat] = t.percent()
	}

	return quiz.Outcome{
		SessionID:        s.ID,
		Score:            overall.percent(),
		CompetencyScores: competency,
		DurationSec:      max(0, int(now.Sub(s.StartedAt)/time.Second)),
		FinishedAt:       now,
	}
}

// contribution is a result's value in [0,1]. Multiple choice counts as
// 0 or 1 by correctness; free-form uses the quantized score.
func contribution(q quiz.Question, r quiz.Result) (float64, bool) {
	if q.Type == quiz.TypeMCQ && r.IsCorrect != nil {
		if *r.IsCorrect {
			return 1, true
		}
		return 0, true
	}
	if r.Score == nil {
		return 0, false
	}
	return min(max(*r.Score, 0), 1), true
}

// StoredOutcome rebuilds the outcome of an already closed session.
func StoredOutcome(s *quiz.Session) (quiz.Outcome, bool) {
	if s.FinishedAt == nil {
		return quiz.Outcome{}, false
	}
	out := quiz.Outcome{
		SessionID:        s.ID,
		CompetencyScores: s.CompetencyScores,
		DurationSec:      max(0, int(s.FinishedAt.Sub(s.StartedAt)/time.Second)),
		FinishedAt:       *s.FinishedAt,
	}
	if s.Score != nil {
		out.Score = *s.Score
	}
	if out.CompetencyScores == nil {
		out.CompetencyScores = map[string]int{}
	}
	return out, true
}
