package practice

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/router"
	"github.com/abhisek/casequiz/internal/screen"
)

// fakeBackend implements screen.Backend for testing.
type fakeBackend struct {
	started     *engine.StartedSession
	startErr    error
	submissions []engine.Submission
	submitErr   error
	finished    int
}

func (f *fakeBackend) Ingest(context.Context, string, string) (*engine.IngestResult, error) {
	return nil, nil
}

func (f *fakeBackend) Blueprint(context.Context, string) (*engine.BlueprintSummary, error) {
	return nil, engine.ErrNoBlueprintFound
}

func (f *fakeBackend) StartSession(_ context.Context, _ string, _ int) (*engine.StartedSession, error) {
	return f.started, f.startErr
}

func (f *fakeBackend) Submit(_ context.Context, _, _ string, sub engine.Submission) (*quiz.Feedback, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submissions = append(f.submissions, sub)
	fb := &quiz.Feedback{QuestionID: sub.QuestionID}
	if sub.QuestionID == "q1" {
		ok := len(sub.Answer.Keys) == 1 && sub.Answer.Keys[0] == "b"
		fb.Type = quiz.TypeMCQ
		fb.IsCorrect = &ok
		fb.CorrectAnswer = []string{"b"}
		fb.Rationales = map[string]string{"a": "too high", "b": "the legal limit"}
		if ok {
			fb.Score = 1
		}
		return fb, nil
	}
	fb.Type = quiz.TypeScenario
	fb.Score = 0.25
	fb.Feedback = "Be more specific."
	fb.JudgeUnavailable = true
	return fb, nil
}

func (f *fakeBackend) Finish(context.Context, string, string) (*quiz.Outcome, error) {
	f.finished++
	return &quiz.Outcome{SessionID: "s1", Score: 63, CompetencyScores: map[string]int{"knowledge": 100, "insight": 25}}, nil
}

func testSession() *engine.StartedSession {
	return &engine.StartedSession{
		Session: &quiz.Session{ID: "s1", UserID: "u1"},
		Questions: []quiz.QuestionView{
			{ID: "q1", Type: quiz.TypeMCQ, Category: "knowledge", Difficulty: 1, Prompt: "Which limit applies?",
				Choices: []quiz.Choice{{Key: "a", Text: "0.8"}, {Key: "b", Text: "0.5"}}},
			{ID: "q2", Type: quiz.TypeScenario, Category: "insight", Difficulty: 2, Prompt: "What would you do differently?"},
		},
	}
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func ctrl(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

// run feeds msg to the screen and then executes the returned command
// chain until it yields no further screen message.
func run(t *testing.T, p *PracticeScreen, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := p.Update(msg)
	for cmd != nil {
		out := cmd()
		switch out.(type) {
		case sessionStartedMsg, answerScoredMsg, sessionFinishedMsg:
			_, cmd = p.Update(out)
		default:
			return out
		}
	}
	return nil
}

func newScreen(t *testing.T, b *fakeBackend) (*PracticeScreen, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	p := New(screen.Deps{Backend: b, UserID: "u1"})
	p.now = c.Now
	p.Update(p.Init()())
	return p, c
}

func TestPracticeScreen_FullSession(t *testing.T) {
	b := &fakeBackend{started: testSession()}
	p, c := newScreen(t, b)

	if p.phase != phaseAnswering || p.current().ID != "q1" {
		t.Fatalf("expected to be answering q1, got phase %d question %q", p.phase, p.current().ID)
	}
	if !p.CapturesEscape() {
		t.Error("Esc should be captured while answering")
	}

	// Choose b via the number key and submit.
	p.Update(keyPress('2'))
	c.now = c.now.Add(12 * time.Second)
	run(t, p, specialKey(tea.KeyEnter))

	if p.phase != phaseFeedback {
		t.Fatalf("expected feedback phase, got %d", p.phase)
	}
	if got := b.submissions[0]; got.TimeSpentSec != 12 || strings.Join(got.Answer.Keys, ",") != "b" {
		t.Errorf("unexpected submission %+v", got)
	}
	view := p.View(100, 30)
	if !strings.Contains(view, "Correct!") || !strings.Contains(view, "the legal limit") {
		t.Errorf("feedback view missing verdict or rationale:\n%s", view)
	}

	// Continue to the free-form question.
	run(t, p, keyPress('x'))
	if p.current().ID != "q2" || p.phase != phaseAnswering {
		t.Fatalf("expected q2, got %q in phase %d", p.current().ID, p.phase)
	}

	for _, r := range "Take a taxi" {
		p.Update(keyPress(r))
	}
	// Enter inserts a newline instead of submitting free-form answers.
	p.Update(specialKey(tea.KeyEnter))
	if p.phase != phaseAnswering {
		t.Fatal("enter must not submit a free-form answer")
	}
	run(t, p, ctrl('s'))

	if got := b.submissions[1].Answer.Text; got != "Take a taxi" {
		t.Errorf("submitted text = %q", got)
	}
	view = p.View(100, 30)
	if !strings.Contains(view, "Score: 25%") || !strings.Contains(view, "estimate") {
		t.Errorf("free-form feedback view:\n%s", view)
	}

	out := run(t, p, keyPress('x'))
	replace, ok := out.(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", out)
	}
	if replace.Screen.Title() != "Session Summary" {
		t.Errorf("replacement screen = %q", replace.Screen.Title())
	}
	if b.finished != 1 {
		t.Errorf("Finish called %d times, want 1", b.finished)
	}
}

func TestPracticeScreen_QuitConfirm(t *testing.T) {
	b := &fakeBackend{started: testSession()}
	p, _ := newScreen(t, b)

	p.Update(specialKey(tea.KeyEscape))
	if !p.confirmQuit {
		t.Fatal("expected quit confirmation")
	}
	if !strings.Contains(p.View(100, 30), "2 unanswered questions") {
		t.Error("confirmation should mention the unanswered questions")
	}

	p.Update(keyPress('n'))
	if p.confirmQuit || p.phase != phaseAnswering {
		t.Fatal("N should return to the question")
	}

	p.Update(specialKey(tea.KeyEscape))
	out := run(t, p, keyPress('y'))
	if _, ok := out.(router.ReplaceScreenMsg); !ok {
		t.Fatalf("expected summary after ending early, got %T", out)
	}
	if len(b.submissions) != 0 || b.finished != 1 {
		t.Errorf("submissions=%d finished=%d", len(b.submissions), b.finished)
	}
}

func TestPracticeScreen_StartError(t *testing.T) {
	b := &fakeBackend{startErr: engine.ErrNoBlueprintFound}
	p, _ := newScreen(t, b)

	if p.phase != phaseError {
		t.Fatalf("expected error phase, got %d", p.phase)
	}
	if p.CapturesEscape() {
		t.Error("Esc should pop the screen in the error phase")
	}
	if !strings.Contains(p.View(100, 30), "submit case data first") {
		t.Errorf("error view should show the engine message:\n%s", p.View(100, 30))
	}
	if out := run(t, p, keyPress('x')); out == nil {
		t.Fatal("expected a pop command")
	} else if _, ok := out.(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", out)
	}
}

func TestPracticeScreen_SubmitError(t *testing.T) {
	b := &fakeBackend{started: testSession(), submitErr: engine.ErrSessionClosed}
	p, _ := newScreen(t, b)

	run(t, p, specialKey(tea.KeyEnter))
	if p.phase != phaseError || p.errMsg != engine.ErrSessionClosed.Message {
		t.Errorf("phase=%d err=%q", p.phase, p.errMsg)
	}
}

func TestPracticeScreen_KeyHints(t *testing.T) {
	b := &fakeBackend{started: testSession()}
	p, _ := newScreen(t, b)

	hints := p.KeyHints()
	if len(hints) != 4 || hints[2].Key != "Enter" {
		t.Errorf("multiple choice hints = %+v", hints)
	}

	p.Update(specialKey(tea.KeyEscape))
	if hints := p.KeyHints(); hints[0].Key != "Y" {
		t.Errorf("confirm hints = %+v", hints)
	}
}
