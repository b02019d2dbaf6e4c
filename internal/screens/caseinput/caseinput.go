// Package caseinput is the screen where users paste their case narrative.
package caseinput

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/router"
	"github.com/abhisek/casequiz/internal/screen"
	"github.com/abhisek/casequiz/internal/ui/components"
	"github.com/abhisek/casequiz/internal/ui/layout"
	"github.com/abhisek/casequiz/internal/ui/theme"
)

// maxCaseRunes bounds pasted case text.
const maxCaseRunes = 100_000

type ingestedMsg struct {
	Result *engine.IngestResult
	Err    error
}

type phase int

const (
	phaseEditing phase = iota
	phaseSubmitting
	phaseDone
)

// CaseInputScreen collects case text and builds the question bank for it.
type CaseInputScreen struct {
	deps   screen.Deps
	editor components.Editor
	phase  phase
	result *engine.IngestResult
	errMsg string
}

var _ screen.Screen = (*CaseInputScreen)(nil)
var _ screen.KeyHintProvider = (*CaseInputScreen)(nil)

func New(deps screen.Deps) *CaseInputScreen {
	return &CaseInputScreen{
		deps:   deps,
		editor: components.NewEditor("What happened, when, and what the authority noted...", layout.ReadableWidth, 12, maxCaseRunes),
	}
}

func (c *CaseInputScreen) Init() tea.Cmd {
	return c.editor.Init()
}

func (c *CaseInputScreen) Title() string {
	return "Your Case"
}

func (c *CaseInputScreen) KeyHints() []layout.KeyHint {
	switch c.phase {
	case phaseSubmitting:
		return nil
	case phaseDone:
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	}
	return []layout.KeyHint{
		{Key: "Ctrl+S", Description: "Submit"},
		{Key: "Esc", Description: "Cancel"},
	}
}

func (c *CaseInputScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case ingestedMsg:
		if msg.Err != nil {
			c.phase = phaseEditing
			c.errMsg = msg.Err.Error()
			if e, ok := asEngineError(msg.Err); ok {
				c.errMsg = e.Message
			}
			return c, nil
		}
		c.phase = phaseDone
		c.result = msg.Result
		return c, nil

	case tea.KeyPressMsg:
		switch c.phase {
		case phaseSubmitting:
			return c, nil
		case phaseDone:
			return c, func() tea.Msg { return router.PopScreenMsg{} }
		}
		if msg.String() == "ctrl+s" {
			return c.submit()
		}
	}

	if c.phase != phaseEditing {
		return c, nil
	}
	var cmd tea.Cmd
	c.editor, cmd = c.editor.Update(msg)
	return c, cmd
}

func (c *CaseInputScreen) submit() (screen.Screen, tea.Cmd) {
	if c.editor.Blank() {
		c.errMsg = "Please describe your case first."
		return c, nil
	}
	c.phase = phaseSubmitting
	c.errMsg = ""

	deps := c.deps
	text := c.editor.Value()
	return c, func() tea.Msg {
		res, err := deps.Backend.Ingest(context.Background(), deps.UserID, text)
		return ingestedMsg{Result: res, Err: err}
	}
}

func (c *CaseInputScreen) View(width, height int) string {
	bw := layout.BlockWidth(width)

	var b strings.Builder
	b.WriteString("\n")

	switch c.phase {
	case phaseSubmitting:
		b.WriteString(theme.Centered(theme.Hint, width, "\n\nPreparing questions for your case..."))
		return b.String()
	case phaseDone:
		b.WriteString(renderResult(c.result, width))
		return b.String()
	}

	b.WriteString(theme.Centered(theme.Subtitle, width,
		"Describe your case in your own words. Names and dates are not needed."))
	b.WriteString("\n\n")

	c.editor.SetWidth(bw)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, c.editor.View()))

	if c.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Centered(theme.Incorrect, width, c.errMsg))
	}
	return b.String()
}

func renderResult(res *engine.IngestResult, width int) string {
	if res == nil {
		return ""
	}
	var b strings.Builder
	headline := "Your questions are ready."
	if !res.Created {
		headline = "This case is already on file."
	}
	b.WriteString(theme.Centered(theme.Correct, width, headline))
	b.WriteString("\n\n")
	b.WriteString(theme.Centered(theme.Body, width,
		fmt.Sprintf("%d questions across %d competency areas.",
			res.Blueprint.QuestionCount, len(res.Blueprint.QuestionsByCategory))))
	if res.Blueprint.Degraded {
		b.WriteString("\n\n")
		b.WriteString(theme.Centered(theme.Warning, width,
			"Personalised questions were unavailable, so the general bank is used."))
	}
	if len(res.Profile.RiskFlags) > 0 {
		b.WriteString("\n\n")
		b.WriteString(theme.Centered(theme.Hint, width,
			"Topics detected: "+strings.Join(res.Profile.RiskFlags, ", ")))
	}
	return b.String()
}

func asEngineError(err error) (*engine.Error, bool) {
	var e *engine.Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
