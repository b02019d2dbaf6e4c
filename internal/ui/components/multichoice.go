package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/ui/theme"
)

// ChoiceList is a multiple-choice selector where any number of options
// can be checked. Number keys jump to and toggle an option.
type ChoiceList struct {
	Choices []quiz.Choice
	Cursor  int
	checked map[string]bool

	// Set once the answer is graded.
	revealed bool
	correct  map[string]bool
}

// NewChoiceList creates a selector over choices.
func NewChoiceList(choices []quiz.Choice) ChoiceList {
	return ChoiceList{
		Choices: choices,
		checked: make(map[string]bool),
	}
}

// Init returns nil.
func (c ChoiceList) Init() tea.Cmd {
	return nil
}

// Update handles navigation and toggling. It ignores input once revealed.
func (c ChoiceList) Update(msg tea.Msg) (ChoiceList, tea.Cmd) {
	if c.revealed {
		return c, nil
	}
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return c, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Choices)-1 {
			c.Cursor++
		}
	case "space", " ", "x":
		c.toggle(c.Cursor)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(c.Choices) {
				c.Cursor = i
				c.toggle(i)
			}
		}
	}
	return c, nil
}

func (c *ChoiceList) toggle(i int) {
	if i < 0 || i >= len(c.Choices) {
		return
	}
	k := c.Choices[i].Key
	c.checked[k] = !c.checked[k]
}

// Keys returns the checked keys in display order.
func (c ChoiceList) Keys() []string {
	keys := []string{}
	for _, ch := range c.Choices {
		if c.checked[ch.Key] {
			keys = append(keys, ch.Key)
		}
	}
	return keys
}

// Reveal marks the correct keys; later renders color every option.
func (c *ChoiceList) Reveal(correct []string) {
	c.revealed = true
	c.correct = make(map[string]bool, len(correct))
	for _, k := range correct {
		c.correct[strings.ToLower(strings.TrimSpace(k))] = true
	}
}

// View renders the options.
func (c ChoiceList) View() string {
	var b strings.Builder
	for i, ch := range c.Choices {
		box := "[ ]"
		if c.checked[ch.Key] {
			box = "[x]"
		}
		prefix := "  "
		if i == c.Cursor && !c.revealed {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s %d) %s", prefix, box, i+1, ch.Text)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case c.revealed && c.isCorrect(ch.Key):
			style = theme.Correct
		case c.revealed && c.checked[ch.Key]:
			style = theme.Incorrect
		case c.revealed:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == c.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (c ChoiceList) isCorrect(key string) bool {
	return c.correct[strings.ToLower(strings.TrimSpace(key))]
}

// Checked reports whether key is checked.
func (c ChoiceList) Checked(key string) bool {
	return c.checked[key]
}
