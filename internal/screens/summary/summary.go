package summary

import (
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/router"
	"github.com/abhisek/casequiz/internal/screen"
	"github.com/abhisek/casequiz/internal/ui/components"
	"github.com/abhisek/casequiz/internal/ui/layout"
	"github.com/abhisek/casequiz/internal/ui/theme"
)

// SummaryScreen displays the outcome of a finished session.
type SummaryScreen struct {
	outcome  quiz.Outcome
	answered int
	total    int
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(outcome quiz.Outcome, answered, total int) *SummaryScreen {
	return &SummaryScreen{outcome: outcome, answered: answered, total: total}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.HomeMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	bw := layout.BlockWidth(width)
	out := s.outcome

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Centered(theme.Title, width, "Session complete"))
	b.WriteString("\n\n")

	b.WriteString(theme.Centered(theme.Band(out.Score), width, fmt.Sprintf("%d%%", out.Score)))
	b.WriteString("\n\n")

	b.WriteString(theme.Centered(theme.Subtitle, width,
		fmt.Sprintf("Answered %d of %d    Duration %s", s.answered, s.total, formatDuration(out.DurationSec))))
	b.WriteString("\n\n")

	if len(out.CompetencyScores) == 0 {
		return b.String()
	}

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("Competencies")))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", bw))))
	b.WriteString("\n\n")

	keys := make([]string, 0, len(out.CompetencyScores))
	labelWidth := 0
	for k := range out.CompetencyScores {
		keys = append(keys, k)
		labelWidth = max(labelWidth, lipgloss.Width(k))
	}
	slices.Sort(keys)

	for _, k := range keys {
		bar := components.NewProgressBar(k, labelWidth, out.CompetencyScores[k], bw)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
		b.WriteString("\n")
	}

	if weakest := weakestArea(out.CompetencyScores, keys); weakest != "" {
		b.WriteString("\n")
		b.WriteString(theme.Centered(theme.Hint, width, "Focus next on: "+weakest))
	}
	return b.String()
}

// weakestArea returns the lowest scoring competency below the pass mark,
// or "".
func weakestArea(scores map[string]int, sorted []string) string {
	best, low := "", theme.PassMark
	for _, k := range sorted {
		if scores[k] < low {
			best, low = k, scores[k]
		}
	}
	return best
}

func formatDuration(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
