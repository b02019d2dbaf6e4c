// Package practice runs one assessment session in the terminal.
package practice

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/router"
	"github.com/abhisek/casequiz/internal/screen"
	"github.com/abhisek/casequiz/internal/screens/summary"
	"github.com/abhisek/casequiz/internal/ui/components"
	"github.com/abhisek/casequiz/internal/ui/layout"
)

// maxAnswerRunes bounds free-form answers.
const maxAnswerRunes = 4000

type phase int

const (
	phaseStarting phase = iota
	phaseAnswering
	phaseSubmitting
	phaseFeedback
	phaseFinishing
	phaseError
)

// PracticeScreen walks the user through a session question by question.
type PracticeScreen struct {
	deps screen.Deps
	now  func() time.Time

	started  *engine.StartedSession
	index    int
	phase    phase
	choices  components.ChoiceList
	editor   components.Editor
	feedback *quiz.Feedback
	shownAt  time.Time
	answered int

	confirmQuit bool
	errMsg      string
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)
var _ screen.EscapeCapturer = (*PracticeScreen)(nil)

func New(deps screen.Deps) *PracticeScreen {
	return &PracticeScreen{deps: deps, now: time.Now}
}

func (p *PracticeScreen) Init() tea.Cmd {
	deps := p.deps
	return func() tea.Msg {
		started, err := deps.Backend.StartSession(context.Background(), deps.UserID, deps.Count)
		return sessionStartedMsg{Started: started, Err: err}
	}
}

func (p *PracticeScreen) Title() string {
	return "Practice"
}

// CapturesEscape keeps Esc for the quit confirmation while a session runs.
func (p *PracticeScreen) CapturesEscape() bool {
	return p.phase == phaseAnswering || p.phase == phaseFeedback
}

func (p *PracticeScreen) KeyHints() []layout.KeyHint {
	if p.confirmQuit {
		return []layout.KeyHint{
			{Key: "Y", Description: "End session"},
			{Key: "N", Description: "Keep going"},
		}
	}
	switch p.phase {
	case phaseAnswering:
		if p.current().Type.FreeForm() {
			return []layout.KeyHint{
				{Key: "Ctrl+S", Description: "Submit"},
				{Key: "Esc", Description: "End session"},
			}
		}
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Move"},
			{Key: "Space/1-9", Description: "Toggle"},
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "End session"},
		}
	case phaseFeedback:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case phaseError:
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	}
	return nil
}

func (p *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionStartedMsg:
		return p.handleStarted(msg)
	case answerScoredMsg:
		return p.handleScored(msg)
	case sessionFinishedMsg:
		return p.handleFinished(msg)
	case tea.KeyPressMsg:
		return p.handleKey(msg)
	}

	if p.phase == phaseAnswering && !p.confirmQuit && p.current().Type.FreeForm() {
		var cmd tea.Cmd
		p.editor, cmd = p.editor.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *PracticeScreen) handleStarted(msg sessionStartedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		return p.fail(msg.Err)
	}
	p.started = msg.Started
	p.index = 0
	return p, p.showQuestion()
}

func (p *PracticeScreen) handleScored(msg answerScoredMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		return p.fail(msg.Err)
	}
	p.answered++
	p.feedback = msg.Feedback
	if !p.current().Type.FreeForm() {
		p.choices.Reveal(msg.Feedback.CorrectAnswer)
	}
	p.phase = phaseFeedback
	return p, nil
}

func (p *PracticeScreen) handleFinished(msg sessionFinishedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		return p.fail(msg.Err)
	}
	sum := summary.New(*msg.Outcome, p.answered, len(p.started.Questions))
	return p, func() tea.Msg { return router.ReplaceScreenMsg{Screen: sum} }
}

func (p *PracticeScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if p.confirmQuit {
		switch key {
		case "y", "Y":
			p.confirmQuit = false
			return p.finish()
		case "n", "N", "esc":
			p.confirmQuit = false
		}
		return p, nil
	}

	switch p.phase {
	case phaseError:
		return p, func() tea.Msg { return router.PopScreenMsg{} }

	case phaseFeedback:
		if key == "esc" {
			p.confirmQuit = true
			return p, nil
		}
		return p.next()

	case phaseAnswering:
		q := p.current()
		switch {
		case key == "esc":
			p.confirmQuit = true
			return p, nil
		case q.Type.FreeForm() && key == "ctrl+s":
			return p.submit(quiz.TextAnswer(p.editor.Value()))
		case !q.Type.FreeForm() && key == "enter":
			return p.submit(quiz.ChoiceAnswer(p.choices.Keys()...))
		}

		var cmd tea.Cmd
		if q.Type.FreeForm() {
			p.editor, cmd = p.editor.Update(msg)
		} else {
			p.choices, cmd = p.choices.Update(msg)
		}
		return p, cmd
	}
	return p, nil
}

func (p *PracticeScreen) current() quiz.QuestionView {
	if p.started == nil || p.index >= len(p.started.Questions) {
		return quiz.QuestionView{}
	}
	return p.started.Questions[p.index]
}

func (p *PracticeScreen) showQuestion() tea.Cmd {
	q := p.current()
	p.phase = phaseAnswering
	p.feedback = nil
	p.shownAt = p.now()
	if q.Type.FreeForm() {
		p.editor = components.NewEditor("Your answer...", layout.ReadableWidth, 6, maxAnswerRunes)
		return p.editor.Init()
	}
	p.choices = components.NewChoiceList(q.Choices)
	return nil
}

func (p *PracticeScreen) submit(answer quiz.Answer) (screen.Screen, tea.Cmd) {
	p.phase = phaseSubmitting

	deps := p.deps
	sid := p.started.Session.ID
	sub := engine.Submission{
		QuestionID:   p.current().ID,
		Answer:       answer,
		TimeSpentSec: max(0, int(p.now().Sub(p.shownAt)/time.Second)),
	}
	return p, func() tea.Msg {
		fb, err := deps.Backend.Submit(context.Background(), deps.UserID, sid, sub)
		return answerScoredMsg{Feedback: fb, Err: err}
	}
}

func (p *PracticeScreen) next() (screen.Screen, tea.Cmd) {
	if p.index+1 >= len(p.started.Questions) {
		return p.finish()
	}
	p.index++
	return p, p.showQuestion()
}

func (p *PracticeScreen) finish() (screen.Screen, tea.Cmd) {
	p.phase = phaseFinishing

	deps := p.deps
	sid := p.started.Session.ID
	return p, func() tea.Msg {
		out, err := deps.Backend.Finish(context.Background(), deps.UserID, sid)
		return sessionFinishedMsg{Outcome: out, Err: err}
	}
}

func (p *PracticeScreen) fail(err error) (screen.Screen, tea.Cmd) {
	p.phase = phaseError
	p.errMsg = err.Error()
	var e *engine.Error
	if errors.As(err, &e) {
		p.errMsg = e.Message
	}
	return p, nil
}
