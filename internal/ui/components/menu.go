package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/casequiz/internal/ui/theme"
)

// MenuItem is one entry. Shortcut, when set, runs the item from anywhere
// in the menu.
type MenuItem struct {
	Label    string
	Hint     string
	Shortcut string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list; the cursor wraps and skips disabled items.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.move(1)
	return m
}

func (m Menu) Init() tea.Cmd {
	return nil
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		m.move(-1)
		return m, nil
	case "down", "j", "tab":
		m.move(1)
		return m, nil
	case "enter":
		return m, m.run(m.Selected)
	}

	for i, item := range m.Items {
		if item.Shortcut != "" && item.Shortcut == key {
			if !item.Disabled {
				m.Selected = i
			}
			return m, m.run(i)
		}
	}
	return m, nil
}

// move steps the cursor by dir to the next enabled item. It stays put
// when every other item is disabled.
func (m *Menu) move(dir int) {
	n := len(m.Items)
	for step := 1; step <= n; step++ {
		i := ((m.Selected+dir*step)%n + n) % n
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
}

func (m Menu) run(i int) tea.Cmd {
	if i < 0 || i >= len(m.Items) {
		return nil
	}
	item := m.Items[i]
	if item.Disabled || item.Action == nil {
		return nil
	}
	return item.Action()
}

func (m Menu) View() string {
	dim := lipgloss.NewStyle().Foreground(theme.Border)
	var b strings.Builder
	for i, item := range m.Items {
		key := "   "
		if item.Shortcut != "" {
			key = "[" + item.Shortcut + "]"
		}

		switch {
		case item.Disabled:
			b.WriteString(dim.Render("  " + key + " " + item.Label))
		case i == m.Selected:
			b.WriteString(theme.Selected.Render("▸ " + key + " " + item.Label))
		default:
			b.WriteString(theme.Unselected.Render("  " + key + " " + item.Label))
		}
		if item.Hint != "" {
			b.WriteString("  " + theme.Hint.Render(item.Hint))
		}
		b.WriteString("\n")
	}
	return b.String()
}
