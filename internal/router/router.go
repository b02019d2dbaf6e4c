// Package router keeps the practice UI's screen stack. Home sits at the
// bottom; case entry, practice and the summary are stacked above it.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/casequiz/internal/screen"
)

// PushScreenMsg opens Screen above the active one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg closes the active screen.
type PopScreenMsg struct{}

// ReplaceScreenMsg swaps the active screen for Screen. A finished practice
// run replaces itself with its summary so Esc from the summary lands home.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// HomeMsg closes every screen above the bottom one.
type HomeMsg struct{}

type Router struct {
	stack []screen.Screen
}

func New(home screen.Screen) *Router {
	return &Router{stack: []screen.Screen{home}}
}

func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop never removes the bottom screen.
func (r *Router) Pop() tea.Cmd {
	return r.truncate(len(r.stack) - 1)
}

func (r *Router) Home() tea.Cmd {
	return r.truncate(1)
}

// truncate shrinks the stack to n screens, at least one, and resumes the
// screen left on top.
func (r *Router) truncate(n int) tea.Cmd {
	n = max(n, 1)
	if n >= len(r.stack) {
		return nil
	}
	clear(r.stack[n:])
	r.stack = r.stack[:n]
	if res, ok := r.Active().(screen.Resumer); ok {
		return res.Resume()
	}
	return nil
}

func (r *Router) Replace(s screen.Screen) tea.Cmd {
	r.stack[len(r.stack)-1] = s
	return s.Init()
}

func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

func (r *Router) Depth() int {
	return len(r.stack)
}

// Trail lists the screen titles from the bottom of the stack up.
func (r *Router) Trail() []string {
	titles := make([]string, len(r.stack))
	for i, s := range r.stack {
		titles[i] = s.Title()
	}
	return titles
}

// Update applies navigation messages and hands everything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	case HomeMsg:
		return r.Home()
	}

	active := r.Active()
	if active == nil {
		return nil
	}
	next, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = next
	return cmd
}

func (r *Router) View(width, height int) string {
	if active := r.Active(); active != nil {
		return active.View(width, height)
	}
	return ""
}
