// Package session assembles practice sessions from a question bank and
// folds their results into scores.
package session

import (
	"math"
	"math/rand/v2"

	"github.com/abhisek/casequiz/internal/quiz"
)

// Session size bounds and default.
const (
	MinQuestions     = 1
	MaxQuestions     = 20
	DefaultQuestions = 12
)

// ClampCount forces a requested session size into [MinQuestions, MaxQuestions].
func ClampCount(n int) int {
	return min(max(n, MinQuestions), MaxQuestions)
}

// Builder samples sessions with per-category quotas.
type Builder struct {
	rng *rand.Rand
}

// NewBuilder creates a Builder. A nil rng uses the global source.
func NewBuilder(rng *rand.Rand) *Builder {
	return &Builder{rng: rng}
}

func (b *Builder) shuffle(n int, swap func(i, j int)) {
	if b.rng != nil {
		b.rng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

// Build picks an ordered, duplicate-free list of question IDs.
//
// Each category gets max(1, round(desired*weight/totalWeight)) questions
// drawn from its shuffled partition, in category order, until desired is
// reached. Any shortfall is filled uniformly from the rest of the bank.
// A bank smaller than desired is returned whole.
func (b *Builder) Build(categories []quiz.CategoryWeight, bank []quiz.Question, desired int) []string {
	desired = ClampCount(desired)

	partitions := make(map[string][]string)
	seen := make(map[string]bool, len(bank))
	var all []string
	for _, q := range bank {
		if q.ID == "" || seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		all = append(all, q.ID)
		partitions[q.Category] = append(partitions[q.Category], q.ID)
	}
	for _, ids := range partitions {
		b.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	}

	totalWeight := 0
	for _, c := range categories {
		totalWeight += c.TargetCount
	}
	totalWeight = max(totalWeight, 1)

	selected := make([]string, 0, desired)
	picked := make(map[string]bool, desired)

	for _, c := range categories {
		if len(selected) >= desired {
			break
		}
		target := max(1, int(math.Round(float64(desired*c.TargetCount)/float64(totalWeight))))
		pool := partitions[c.Key]
		for i := 0; i < target && len(pool) > 0 && len(selected) < desired; i++ {
			id := pool[0]
			pool = pool[1:]
			selected = append(selected, id)
			picked[id] = true
		}
		partitions[c.Key] = pool
	}

	if len(selected) < desired {
		var rest []string
		for _, id := range all {
			if !picked[id] {
				rest = append(rest, id)
			}
		}
		b.shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		need := min(desired-len(selected), len(rest))
		selected = append(selected, rest[:need]...)
	}

	return selected
}

// Redact strips everything that would give an answer away.
func Redact(q quiz.Question) quiz.QuestionView {
	v := quiz.QuestionView{
		ID:         q.ID,
		Type:       q.Type,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Prompt:     q.Prompt,
	}
	if q.Type == quiz.TypeMCQ && len(q.Choices) > 0 {
		v.Choices = append([]quiz.Choice(nil), q.Choices...)
	}
	return v
}

// RedactAll redacts questions in order.
func RedactAll(qs []quiz.Question) []quiz.QuestionView {
	out := make([]quiz.QuestionView, len(qs))
	for i, q := range qs {
		out[i] = Redact(q)
	}
	return out
}
