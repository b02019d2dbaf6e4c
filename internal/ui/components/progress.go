package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/casequiz/internal/ui/theme"
)

// ProgressBar displays a horizontal bar for a 0-100 score, colored by
// score band.
type ProgressBar struct {
	Label      string
	LabelWidth int
	Value      int
	Width      int
}

// NewProgressBar creates a progress bar. labelWidth pads the label so
// bars in a column line up.
func NewProgressBar(label string, labelWidth, value, width int) ProgressBar {
	return ProgressBar{
		Label:      label,
		LabelWidth: labelWidth,
		Value:      value,
		Width:      width,
	}
}

// View renders the bar followed by the value as a percentage.
func (p ProgressBar) View() string {
	label := p.Label
	if pad := p.LabelWidth - lipgloss.Width(label); pad > 0 {
		label += strings.Repeat(" ", pad)
	}
	result := lipgloss.NewStyle().Foreground(theme.Text).Render(label) + "  "

	const percentWidth = 6 // "  100%"
	barWidth := max(p.Width-lipgloss.Width(result)-percentWidth, 4)

	value := min(max(p.Value, 0), 100)
	filled := barWidth * value / 100
	empty := barWidth - filled

	fill := lipgloss.NewStyle().Background(theme.BandColor(value))
	result += fill.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", empty))

	result += lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("  %3d%%", value))

	return result
}
