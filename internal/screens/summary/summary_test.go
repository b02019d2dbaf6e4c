package summary

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/router"
)

func testOutcome() quiz.Outcome {
	return quiz.Outcome{
		SessionID:        "s1",
		Score:            63,
		CompetencyScores: map[string]int{"insight": 40, "knowledge": 100, "strategy": 50},
		DurationSec:      95,
		FinishedAt:       time.Date(2026, 4, 1, 9, 1, 35, 0, time.UTC),
	}
}

func TestSummaryScreen_Title(t *testing.T) {
	s := New(testOutcome(), 3, 4)
	if s.Title() != "Session Summary" {
		t.Errorf("Title = %q, want %q", s.Title(), "Session Summary")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	view := New(testOutcome(), 3, 4).View(100, 30)
	for _, want := range []string{"63%", "Answered 3 of 4", "1:35", "insight", "knowledge", "Focus next on: insight"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSummaryScreen_NoCompetencies(t *testing.T) {
	out := testOutcome()
	out.CompetencyScores = map[string]int{}
	view := New(out, 0, 4).View(100, 30)
	if strings.Contains(view, "Competencies") {
		t.Error("competency section should be hidden when there are no scores")
	}
}

func TestWeakestArea(t *testing.T) {
	tests := []struct {
		scores map[string]int
		want   string
	}{
		{map[string]int{"a": 80, "b": 90}, ""},
		{map[string]int{"a": 60, "b": 30}, "b"},
		{map[string]int{"a": 30, "b": 30}, "a"},
	}
	for _, tt := range tests {
		keys := []string{"a", "b"}
		if got := weakestArea(tt.scores, keys); got != tt.want {
			t.Errorf("weakestArea(%v) = %q, want %q", tt.scores, got, tt.want)
		}
	}
}

func TestSummaryScreen_Navigation(t *testing.T) {
	for _, code := range []rune{tea.KeyEnter, tea.KeyEscape} {
		s := New(testOutcome(), 3, 4)
		_, cmd := s.Update(tea.KeyPressMsg{Code: code})
		if cmd == nil {
			t.Fatalf("expected a command for key %v", code)
		}
		if _, ok := cmd().(router.HomeMsg); !ok {
			t.Errorf("expected HomeMsg for key %v", code)
		}
	}
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	if n := len(New(testOutcome(), 3, 4).KeyHints()); n != 2 {
		t.Errorf("KeyHints length = %d, want 2", n)
	}
}
