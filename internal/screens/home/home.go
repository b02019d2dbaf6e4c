package home

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/router"
	"github.com/abhisek/casequiz/internal/screen"
	"github.com/abhisek/casequiz/internal/screens/caseinput"
	"github.com/abhisek/casequiz/internal/screens/practice"
	"github.com/abhisek/casequiz/internal/ui/components"
	"github.com/abhisek/casequiz/internal/ui/layout"
	"github.com/abhisek/casequiz/internal/ui/theme"
)

type blueprintLoadedMsg struct {
	Summary *engine.BlueprintSummary
	Err     error
}

// HomeScreen shows the current blueprint and the main menu.
type HomeScreen struct {
	deps    screen.Deps
	summary *engine.BlueprintSummary
	loaded  bool
	errMsg  string
	menu    components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps screen.Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	h.menu = components.NewMenu(h.menuItems())
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.load()
}

// Resume reloads the blueprint after a case was submitted or a session ended.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.load()
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) load() tea.Cmd {
	deps := h.deps
	return func() tea.Msg {
		sum, err := deps.Backend.Blueprint(context.Background(), deps.UserID)
		return blueprintLoadedMsg{Summary: sum, Err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(blueprintLoadedMsg); ok {
		h.loaded = true
		h.errMsg = ""
		h.summary = msg.Summary
		if msg.Err != nil {
			h.summary = nil
			if !errors.Is(msg.Err, engine.ErrNoBlueprintFound) {
				h.errMsg = msg.Err.Error()
			}
		}
		h.menu = components.NewMenu(h.menuItems())
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) menuItems() []components.MenuItem {
	deps := h.deps
	ready := h.summary != nil && h.summary.QuestionCount > 0

	practiceHint := ""
	if !ready {
		practiceHint = "submit your case first"
	}
	caseLabel := "Submit case text"
	if h.summary != nil {
		caseLabel = "Submit a new case text"
	}

	return []components.MenuItem{
		{Label: "Start practice", Shortcut: "p", Hint: practiceHint, Disabled: !ready, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: practice.New(deps)}
			}
		}},
		{Label: caseLabel, Shortcut: "c", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: caseinput.New(deps)}
			}
		}},
		{Label: "Quit", Shortcut: "q", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
}

func (h *HomeScreen) View(width, height int) string {
	var sections []string
	sections = append(sections, theme.Centered(theme.Title, width, "Prepare for your assessment interview"))

	switch {
	case !h.loaded:
		sections = append(sections, theme.Centered(theme.Hint, width, "Loading..."))
	case h.errMsg != "":
		sections = append(sections, theme.Centered(theme.Incorrect, width, "Error: "+h.errMsg))
	case h.summary == nil:
		sections = append(sections, theme.Centered(theme.Subtitle, width,
			"No case on file yet. Paste the details of your case to get\nquestions tailored to it."))
	default:
		card := theme.Card.Width(layout.BlockWidth(width)).Render(renderBlueprint(h.summary))
		sections = append(sections, lipgloss.PlaceHorizontal(width, lipgloss.Center, card))
	}

	sections = append(sections, lipgloss.PlaceHorizontal(width, lipgloss.Center, h.menu.View()))
	return "\n" + strings.Join(sections, "\n\n")
}

func renderBlueprint(sum *engine.BlueprintSummary) string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render(fmt.Sprintf("%d questions ready", sum.QuestionCount)))
	b.WriteString("\n\n")

	cats := make([]string, 0, len(sum.QuestionsByCategory))
	for k := range sum.QuestionsByCategory {
		cats = append(cats, k)
	}
	slices.Sort(cats)
	for _, k := range cats {
		b.WriteString(theme.Body.Render(fmt.Sprintf("  %-24s %3d", k, sum.QuestionsByCategory[k])))
		b.WriteString("\n")
	}

	if sum.Degraded {
		b.WriteString("\n")
		b.WriteString(theme.Warning.Render("Using the general question bank; personalised questions were unavailable."))
	}
	return strings.TrimRight(b.String(), "\n")
}
