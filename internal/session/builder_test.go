package session

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/abhisek/casequiz/internal/quiz"
)

func makeBank(perCategory map[string]int) []quiz.Question {
	var bank []quiz.Question
	for _, cat := range []string{"a", "b", "c", "d"} {
		for i := range perCategory[cat] {
			bank = append(bank, quiz.Question{
				ID:       fmt.Sprintf("%s-%d", cat, i),
				Type:     quiz.TypeShort,
				Category: cat,
				Prompt:   "q",
				Rubric:   []string{"r"},
			})
		}
	}
	return bank
}

func seeded(seed uint64) *Builder {
	return NewBuilder(rand.New(rand.NewPCG(seed, seed^0x9e3779b9)))
}

func categoryOf(id string) string {
	return strings.SplitN(id, "-", 2)[0]
}

func assertUnique(t *testing.T, ids []string) {
	t.Helper()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q in %v", id, ids)
		}
		seen[id] = true
	}
}

func TestClampCount(t *testing.T) {
	tests := []struct{ in, want int }{
		{-3, 1}, {0, 1}, {1, 1}, {12, 12}, {20, 20}, {21, 20}, {500, 20},
	}
	for _, tt := range tests {
		if got := ClampCount(tt.in); got != tt.want {
			t.Errorf("ClampCount(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBuild_SizeContract(t *testing.T) {
	categories := []quiz.CategoryWeight{{Key: "a", TargetCount: 2}, {Key: "b", TargetCount: 2}, {Key: "c", TargetCount: 1}}

	tests := []struct {
		name    string
		bank    map[string]int
		desired int
		want    int
	}{
		{"exact", map[string]int{"a": 6, "b": 6, "c": 6}, 10, 10},
		{"clamped high", map[string]int{"a": 10, "b": 10, "c": 10}, 50, 20},
		{"clamped low", map[string]int{"a": 3}, 0, 1},
		{"small bank returned whole", map[string]int{"a": 2, "b": 1}, 10, 3},
		{"category exhausted, backfilled", map[string]int{"a": 1, "b": 1, "c": 12}, 10, 10},
		{"uncategorized bank", map[string]int{"d": 15}, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := uint64(0); seed < 20; seed++ {
				ids := seeded(seed).Build(categories, makeBank(tt.bank), tt.desired)
				if len(ids) != tt.want {
					t.Fatalf("seed %d: got %d ids, want %d", seed, len(ids), tt.want)
				}
				assertUnique(t, ids)
			}
		})
	}
}

func TestBuild_EmptyBank(t *testing.T) {
	ids := NewBuilder(nil).Build([]quiz.CategoryWeight{{Key: "a", TargetCount: 1}}, nil, 5)
	if len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
}

func TestBuild_DuplicateBankIDs(t *testing.T) {
	bank := makeBank(map[string]int{"a": 3})
	bank = append(bank, bank...)
	ids := NewBuilder(nil).Build([]quiz.CategoryWeight{{Key: "a", TargetCount: 1}}, bank, 10)
	if len(ids) != 3 {
		t.Fatalf("expected 3 unique ids, got %v", ids)
	}
	assertUnique(t, ids)
}

func TestBuild_ZeroWeights(t *testing.T) {
	categories := []quiz.CategoryWeight{{Key: "a", TargetCount: 0}, {Key: "b", TargetCount: 0}}
	ids := seeded(1).Build(categories, makeBank(map[string]int{"a": 5, "b": 5}), 4)
	if len(ids) != 4 {
		t.Fatalf("got %d ids, want 4", len(ids))
	}
}

func TestBuild_Proportionality(t *testing.T) {
	categories := []quiz.CategoryWeight{{Key: "a", TargetCount: 2}, {Key: "b", TargetCount: 2}, {Key: "c", TargetCount: 1}}
	bank := makeBank(map[string]int{"a": 8, "b": 8, "c": 8})
	want := map[string]int{"a": 4, "b": 4, "c": 2}

	for seed := uint64(0); seed < 200; seed++ {
		counts := make(map[string]int)
		for _, id := range seeded(seed).Build(categories, bank, 10) {
			counts[categoryOf(id)]++
		}
		for cat, w := range want {
			if diff := counts[cat] - w; diff < -1 || diff > 1 {
				t.Fatalf("seed %d: category %s got %d, want %d±1", seed, cat, counts[cat], w)
			}
		}
	}
}

func TestBuild_CategoryOrder(t *testing.T) {
	categories := []quiz.CategoryWeight{{Key: "b", TargetCount: 1}, {Key: "a", TargetCount: 1}}
	ids := seeded(7).Build(categories, makeBank(map[string]int{"a": 5, "b": 5}), 2)
	if categoryOf(ids[0]) != "b" || categoryOf(ids[1]) != "a" {
		t.Fatalf("selection should follow category order, got %v", ids)
	}
}

func TestBuild_StopsAtDesired(t *testing.T) {
	// Five categories each round to a target of 1, but only 3 are wanted.
	categories := []quiz.CategoryWeight{
		{Key: "a", TargetCount: 1}, {Key: "b", TargetCount: 1}, {Key: "c", TargetCount: 1}, {Key: "d", TargetCount: 1},
	}
	ids := seeded(3).Build(categories, makeBank(map[string]int{"a": 2, "b": 2, "c": 2, "d": 2}), 3)
	if len(ids) != 3 {
		t.Fatalf("got %d ids, want 3", len(ids))
	}
	for i, want := range []string{"a", "b", "c"} {
		if categoryOf(ids[i]) != want {
			t.Fatalf("ids[%d] = %s, want category %s", i, ids[i], want)
		}
	}
}

func TestBuild_ShufflesWithinCategory(t *testing.T) {
	categories := []quiz.CategoryWeight{{Key: "a", TargetCount: 1}}
	bank := makeBank(map[string]int{"a": 10})

	firsts := make(map[string]bool)
	for seed := uint64(0); seed < 30; seed++ {
		firsts[seeded(seed).Build(categories, bank, 1)[0]] = true
	}
	if len(firsts) < 3 {
		t.Fatalf("expected varied first picks, got %v", firsts)
	}
}

func TestRedact(t *testing.T) {
	mcq := quiz.Question{
		ID: "q1", Type: quiz.TypeMCQ, Category: "knowledge", Difficulty: 2, Prompt: "Pick",
		Choices:       []quiz.Choice{{Key: "A", Text: "x"}, {Key: "B", Text: "y"}},
		CorrectAnswer: []string{"A"},
		Rationales:    map[string]string{"A": "because"},
	}
	short := quiz.Question{
		ID: "q2", Type: quiz.TypeShort, Category: "insight", Difficulty: 1, Prompt: "Explain",
		Choices: []quiz.Choice{{Key: "A", Text: "stray"}},
		Rubric:  []string{"secret point"},
	}

	views := RedactAll([]quiz.Question{mcq, short})
	if len(views[0].Choices) != 2 {
		t.Fatalf("mcq choices lost: %+v", views[0])
	}
	if views[1].Choices != nil {
		t.Fatalf("free-form view should carry no choices: %+v", views[1])
	}

	raw, err := json.Marshal(views)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, leak := range []string{"correctAnswer", "rationales", "rubric", "because", "secret point"} {
		if strings.Contains(string(raw), leak) {
			t.Fatalf("redacted payload leaks %q: %s", leak, raw)
		}
	}

	views[0].Choices[0].Text = "changed"
	if mcq.Choices[0].Text != "x" {
		t.Fatal("Redact shares the choices slice with the question")
	}
}
