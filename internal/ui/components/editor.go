package components

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/casequiz/internal/ui/theme"
)

// Editor wraps bubbles/textarea for multi-line answers and case text.
type Editor struct {
	Model textarea.Model
}

// NewEditor creates a focused editor. limit caps the number of runes;
// 0 means unlimited.
func NewEditor(placeholder string, width, height, limit int) Editor {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.Prompt = "│ "
	ta.CharLimit = limit
	ta.SetWidth(width)
	ta.SetHeight(height)

	styles := ta.Styles()
	styles.Focused.Prompt = lipgloss.NewStyle().Foreground(theme.Primary)
	styles.Focused.Placeholder = lipgloss.NewStyle().Foreground(theme.TextDim)
	ta.SetStyles(styles)

	ta.Focus()
	return Editor{Model: ta}
}

// Init returns the focus command.
func (e Editor) Init() tea.Cmd {
	return e.Model.Focus()
}

// Update forwards messages to the textarea.
func (e Editor) Update(msg tea.Msg) (Editor, tea.Cmd) {
	var cmd tea.Cmd
	e.Model, cmd = e.Model.Update(msg)
	return e, cmd
}

// SetWidth resizes the editor.
func (e *Editor) SetWidth(w int) {
	e.Model.SetWidth(w)
}

// View renders the editor.
func (e Editor) View() string {
	return e.Model.View()
}

// Value returns the text with surrounding whitespace trimmed.
func (e Editor) Value() string {
	return strings.TrimSpace(e.Model.Value())
}

// Blank reports whether nothing but whitespace was typed.
func (e Editor) Blank() bool {
	return e.Value() == ""
}
