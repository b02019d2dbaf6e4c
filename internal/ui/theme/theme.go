// Package theme holds the practice UI's palette and shared styles. Red is
// reserved for wrong answers and errors so it never reads as decoration.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

var (
	Primary   = lipgloss.Color("#60A5FA")
	Secondary = lipgloss.Color("#2DD4BF")
	Accent    = lipgloss.Color("#FBBF24")
	Success   = lipgloss.Color("#4ADE80")
	Error     = lipgloss.Color("#F87171")
	Text      = lipgloss.Color("#F1F5F9")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

var (
	Title    = lipgloss.NewStyle().Bold(true).Foreground(Primary).Align(lipgloss.Center)
	Subtitle = lipgloss.NewStyle().Foreground(TextDim).Align(lipgloss.Center)
	Body     = lipgloss.NewStyle().Foreground(Text)
	Hint     = lipgloss.NewStyle().Foreground(TextDim).Italic(true)
	Warning  = lipgloss.NewStyle().Foreground(Accent)

	Card = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Border).Padding(1, 2)

	Selected   = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Unselected = lipgloss.NewStyle().Foreground(Text)
	Correct    = lipgloss.NewStyle().Foreground(Success).Bold(true)
	Incorrect  = lipgloss.NewStyle().Foreground(Error).Bold(true)

	ProgressEmpty = lipgloss.NewStyle().Background(Border)
)

// Score bands, in percent.
const (
	PassMark       = 75
	BorderlineMark = 50
)

// BandColor is green at PassMark and above, amber from BorderlineMark,
// red below.
func BandColor(score int) color.Color {
	switch {
	case score >= PassMark:
		return Success
	case score >= BorderlineMark:
		return Accent
	}
	return Error
}

// Band is the bold text style for a percentage score.
func Band(score int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(BandColor(score)).Bold(true)
}

// Verdict renders the headline for an auto-graded answer.
func Verdict(correct bool) string {
	if correct {
		return Correct.Render("Correct!")
	}
	return Incorrect.Render("Not quite")
}

func Centered(style lipgloss.Style, width int, s string) string {
	return style.Width(width).Align(lipgloss.Center).Render(s)
}
