package home

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/router"
	"github.com/abhisek/casequiz/internal/screen"
)

type fakeBackend struct {
	summary *engine.BlueprintSummary
	err     error
	loads   int
}

func (f *fakeBackend) Ingest(context.Context, string, string) (*engine.IngestResult, error) {
	return nil, nil
}
func (f *fakeBackend) Blueprint(context.Context, string) (*engine.BlueprintSummary, error) {
	f.loads++
	return f.summary, f.err
}
func (f *fakeBackend) StartSession(context.Context, string, int) (*engine.StartedSession, error) {
	return nil, nil
}
func (f *fakeBackend) Submit(context.Context, string, string, engine.Submission) (*quiz.Feedback, error) {
	return nil, nil
}
func (f *fakeBackend) Finish(context.Context, string, string) (*quiz.Outcome, error) {
	return nil, nil
}

func load(h *HomeScreen, cmd tea.Cmd) {
	h.Update(cmd())
}

func TestHome_NoBlueprintDisablesPractice(t *testing.T) {
	b := &fakeBackend{err: engine.ErrNoBlueprintFound}
	h := New(screen.Deps{Backend: b, UserID: "u1"})
	load(h, h.Init())

	if h.errMsg != "" {
		t.Errorf("a missing blueprint is not an error, got %q", h.errMsg)
	}
	if !h.menu.Items[0].Disabled {
		t.Error("practice should be disabled without a blueprint")
	}
	if h.menu.Selected != 1 {
		t.Errorf("Selected = %d, want the case entry item", h.menu.Selected)
	}
	if !strings.Contains(h.View(100, 30), "No case on file yet") {
		t.Error("expected the empty state")
	}

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	push, ok := cmd().(router.PushScreenMsg)
	if !ok || push.Screen.Title() != "Your Case" {
		t.Fatalf("expected the case input screen, got %#v", push)
	}
}

func TestHome_ShowsBlueprint(t *testing.T) {
	b := &fakeBackend{summary: &engine.BlueprintSummary{
		Blueprint:           &quiz.Blueprint{ID: "bp1"},
		QuestionCount:       16,
		QuestionsByCategory: map[string]int{"insight": 6, "knowledge": 10},
		Degraded:            true,
	}}
	h := New(screen.Deps{Backend: b, UserID: "u1"})
	load(h, h.Init())

	view := h.View(100, 30)
	for _, want := range []string{"16 questions ready", "insight", "general question bank", "Submit a new case text"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	push, ok := cmd().(router.PushScreenMsg)
	if !ok || push.Screen.Title() != "Practice" {
		t.Fatalf("expected the practice screen, got %#v", push)
	}
}

func TestHome_ResumeReloads(t *testing.T) {
	b := &fakeBackend{err: errors.New("database is locked")}
	h := New(screen.Deps{Backend: b, UserID: "u1"})
	load(h, h.Init())
	if h.errMsg == "" {
		t.Fatal("expected a load error")
	}

	b.err = nil
	b.summary = &engine.BlueprintSummary{Blueprint: &quiz.Blueprint{ID: "bp1"}, QuestionCount: 3}
	load(h, h.Resume())

	if b.loads != 2 || h.errMsg != "" || h.menu.Items[0].Disabled {
		t.Errorf("loads=%d err=%q practiceDisabled=%v", b.loads, h.errMsg, h.menu.Items[0].Disabled)
	}
}
