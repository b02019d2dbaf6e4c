package practice

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/ui/layout"
	"github.com/abhisek/casequiz/internal/ui/theme"
)

func (p *PracticeScreen) View(width, height int) string {
	switch {
	case p.phase == phaseError:
		return theme.Centered(theme.Incorrect, width,
			fmt.Sprintf("\n\n\nError: %s\n\nPress any key to go back.", p.errMsg))
	case p.phase == phaseStarting:
		return theme.Centered(theme.Hint, width, "\n\n\nPreparing your session...")
	case p.phase == phaseFinishing:
		return theme.Centered(theme.Hint, width, "\n\n\nScoring your session...")
	case p.confirmQuit:
		return renderQuitConfirm(width, len(p.started.Questions)-p.answered)
	}

	bw := layout.BlockWidth(width)
	q := p.current()

	var b strings.Builder
	b.WriteString(p.renderInfoLine(width, q))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	block := func(s string) {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s))
		b.WriteString("\n")
	}

	block(theme.Body.Bold(true).Width(bw).Render(q.Prompt))
	b.WriteString("\n")

	if q.Type.FreeForm() {
		if p.phase == phaseFeedback {
			block(theme.Hint.Width(bw).Render(p.editor.Value()))
		} else {
			p.editor.SetWidth(bw)
			block(p.editor.View())
		}
	} else {
		block(lipgloss.NewStyle().Width(bw).Render(p.choices.View()))
	}

	switch p.phase {
	case phaseSubmitting:
		b.WriteString("\n")
		b.WriteString(theme.Centered(theme.Hint, width, "Checking your answer..."))
	case phaseFeedback:
		b.WriteString("\n")
		block(renderFeedback(p.feedback, q, bw))
	}
	return b.String()
}

func (p *PracticeScreen) renderInfoLine(width int, q quiz.QuestionView) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render("  " + q.Category)

	right := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Q %d/%d  %s  %s",
			p.index+1, len(p.started.Questions), typeLabel(q.Type), difficultyDots(q.Difficulty)))

	line := left
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 4; pad > 0 {
		line += strings.Repeat(" ", pad) + right
	}
	return line
}

func renderFeedback(fb *quiz.Feedback, q quiz.QuestionView, width int) string {
	if fb == nil {
		return ""
	}
	var b strings.Builder

	if fb.IsCorrect != nil {
		b.WriteString(theme.Verdict(*fb.IsCorrect))
	} else {
		pct := int(math.Round(fb.Score * 100))
		b.WriteString(theme.Band(pct).Render(fmt.Sprintf("Score: %d%%", pct)))
	}
	b.WriteString("\n\n")

	if fb.Feedback != "" {
		b.WriteString(theme.Body.Width(width).Render(fb.Feedback))
		b.WriteString("\n\n")
	}

	if len(fb.Rationales) > 0 {
		for _, c := range q.Choices {
			r, ok := fb.Rationales[c.Key]
			if !ok || !slices.Contains(fb.CorrectAnswer, c.Key) {
				continue
			}
			b.WriteString(theme.Body.Width(width).Render(fmt.Sprintf("%s: %s", c.Text, r)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if fb.JudgeUnavailable {
		b.WriteString(theme.Warning.Width(width).Render(
			"The reviewer was unavailable, so this score is an estimate. Aim for a specific, complete answer."))
		b.WriteString("\n\n")
	}

	b.WriteString(theme.Hint.Render("Press any key to continue..."))
	return b.String()
}

func renderQuitConfirm(width, remaining int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(theme.Centered(theme.Body.Bold(true), width, "End session now?"))
	b.WriteString("\n")
	if remaining > 0 {
		b.WriteString(theme.Centered(theme.Subtitle, width,
			fmt.Sprintf("%d unanswered questions will count as zero.", remaining)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(theme.Centered(lipgloss.NewStyle().Foreground(theme.Success), width, "[Y] Yes, end session"))
	b.WriteString("\n")
	b.WriteString(theme.Centered(lipgloss.NewStyle().Foreground(theme.Primary), width, "[N] No, keep going"))
	return b.String()
}

func typeLabel(t quiz.QuestionType) string {
	switch t {
	case quiz.TypeMCQ:
		return "multiple choice"
	case quiz.TypeShort:
		return "short answer"
	case quiz.TypeScenario:
		return "scenario"
	}
	return string(t)
}

func difficultyDots(d int) string {
	d = min(max(d, quiz.MinDifficulty), quiz.MaxDifficulty)
	return strings.Repeat("●", d) + strings.Repeat("○", quiz.MaxDifficulty-d)
}
