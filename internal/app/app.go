// Package app hosts the terminal practice UI.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/casequiz/internal/router"
	"github.com/abhisek/casequiz/internal/screen"
	"github.com/abhisek/casequiz/internal/screens/home"
	"github.com/abhisek/casequiz/internal/ui/layout"
)

var quitHint = layout.KeyHint{Key: "Ctrl+C", Description: "Quit"}

// AppModel is the root Bubble Tea model. It owns the window size and the
// screen stack and draws the header and footer around the active screen.
type AppModel struct {
	router *router.Router
	user   string
	width  int
	height int
}

func newAppModel(deps screen.Deps) AppModel {
	return AppModel{
		router: router.New(home.New(deps)),
		user:   deps.UserID,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyPressMsg:
		if cmd, handled := m.globalKey(msg.String()); handled {
			return m, cmd
		}
	}
	return m, m.router.Update(msg)
}

// globalKey handles the keys that work on every screen. Esc goes to the
// active screen when it captures it, for instance while an answer is
// being typed.
func (m AppModel) globalKey(key string) (tea.Cmd, bool) {
	switch key {
	case "ctrl+c":
		return tea.Quit, true
	case "esc":
		if c, ok := m.router.Active().(screen.EscapeCapturer); ok && c.CapturesEscape() {
			return nil, false
		}
		if m.router.Depth() == 1 {
			return nil, true
		}
		return func() tea.Msg { return router.PopScreenMsg{} }, true
	}
	return nil, false
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	switch {
	case m.width == 0 || m.height == 0:
		return v
	case layout.IsTooSmall(m.width, m.height):
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	header := layout.RenderHeader(m.headerTitle(), m.user, m.width)
	footer := layout.RenderFooter(m.footerHints(m.router.Active()), m.width)
	body := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	v.SetContent(layout.RenderFrame(header, m.router.View(m.width, body), footer, m.width, m.height))
	return v
}

// headerTitle shows the path below home, e.g. "Practice › Session Summary".
func (m AppModel) headerTitle() string {
	trail := m.router.Trail()
	if len(trail) > 1 {
		trail = trail[1:]
	}
	return strings.Join(trail, " › ")
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		if hints := p.KeyHints(); hints != nil {
			return append(hints, quitHint)
		}
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}, quitHint}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		quitHint,
	}
}

// Run starts the practice UI and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, deps screen.Deps) error {
	if deps.Backend == nil || deps.UserID == "" {
		return errors.New("app: backend and user are required")
	}
	p := tea.NewProgram(newAppModel(deps), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	return nil
}
