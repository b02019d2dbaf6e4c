package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/casequiz/internal/ui/theme"
)

const (
	MinWidth  = 72
	MinHeight = 20

	// ReadableWidth caps the width of prose blocks.
	ReadableWidth = 76
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// BlockWidth returns the width for a text block inside a content area.
func BlockWidth(width int) int {
	return max(20, min(width-6, ReadableWidth))
}

// RenderMinSizeMessage asks for a larger terminal.
func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("The practice view needs at least %dx%d.\nThis terminal is %dx%d.\n\nEnlarge the window to continue.",
		MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Text).Align(lipgloss.Center).Render(msg))
}

var bar = lipgloss.NewStyle().
	Background(theme.BgCard).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(theme.Border)

// RenderHeader shows the product name, the screen title centered and
// status text on the right. The title wins when space runs out.
func RenderHeader(title, status string, width int) string {
	inner := max(width-4, 0)
	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(" casequiz")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := lipgloss.NewStyle().Foreground(theme.TextDim).Render(status + " ")

	if lipgloss.Width(left)+lipgloss.Width(center)+lipgloss.Width(right)+2 > inner {
		right = ""
	}

	side := max((inner-lipgloss.Width(center))/2, lipgloss.Width(left)+1)
	row := lipgloss.PlaceHorizontal(side, lipgloss.Left, left) + center
	row += lipgloss.PlaceHorizontal(max(inner-lipgloss.Width(row), 0), lipgloss.Right, right)

	return bar.Width(width).Render(row)
}

// RenderFooter lists key hints, dropping trailing ones that do not fit.
func RenderFooter(hints []KeyHint, width int) string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	avail := max(width-6, 0)
	var line string
	for _, h := range hints {
		part := keyStyle.Render(h.Key) + " " + descStyle.Render(h.Description)
		if line != "" {
			part = "   " + part
		}
		if lipgloss.Width(line+part) > avail {
			break
		}
		line += part
	}
	return bar.Width(width).Render("  " + line)
}

// RenderFrame stacks header, content and footer. Content taller than the
// space between them is cut at the bottom so the footer stays visible.
func RenderFrame(header, content, footer string, width, height int) string {
	rows := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	lines := strings.Split(content, "\n")
	if len(lines) > rows {
		lines = lines[:rows]
	}
	body := lipgloss.NewStyle().Width(width).Height(rows).Render(strings.Join(lines, "\n"))

	return header + "\n" + body + "\n" + footer
}
