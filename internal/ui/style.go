package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders text segments on a fixed background so joined segments
// never leave transparent gaps.
type BgStyle struct {
	bg lipgloss.Color
}

// NewBgStyle returns a BgStyle for the hex color.
func NewBgStyle(color string) BgStyle {
	return BgStyle{bg: lipgloss.Color(color)}
}

// Render applies style with the background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	return style.Background(b.bg).Render(text)
}

// Space returns one background-filled space.
func (b BgStyle) Space() string {
	return b.Spaces(1)
}

// Spaces returns n background-filled spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Sep renders a separator glyph on the background.
func (b BgStyle) Sep(s string) string {
	return lipgloss.NewStyle().Background(b.bg).Render(s)
}

// Join joins parts with sep.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, sep)
}

// FillLine pads line with background spaces to width.
func (b BgStyle) FillLine(line string, width int) string {
	if pad := width - lipgloss.Width(line); pad > 0 {
		return line + b.Spaces(pad)
	}
	return line
}

// renderTitledBox draws a bordered box with a title on the top border.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor := m.theme.Border
	if focused {
		borderColor = m.theme.BorderFocus
	}
	bg := m.theme.Surface
	if focused {
		bg = m.theme.FocusBg
	}

	innerWidth := max(width-2, 0)
	innerHeight := max(height-2, 0)

	border := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor)).Background(lipgloss.Color(bg))
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Background(lipgloss.Color(bg)).Bold(true)

	label := truncate(" "+title+" ", max(innerWidth-2, 0))
	topFill := max(innerWidth-1-lipgloss.Width(label), 0)
	top := border.Render("╭─") + titleStyle.Render(label) + border.Render(strings.Repeat("─", topFill)+"╮")

	fill := NewBgStyle(bg)
	lines := strings.Split(content, "\n")
	body := make([]string, 0, innerHeight)
	for i := 0; i < innerHeight; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		if lipgloss.Width(line) > innerWidth {
			line = lipgloss.NewStyle().MaxWidth(innerWidth).Render(line)
		}
		body = append(body, border.Render("│")+fill.FillLine(line, innerWidth)+border.Render("│"))
	}
	bottom := border.Render("╰" + strings.Repeat("─", innerWidth) + "╯")

	out := []string{top}
	out = append(out, body...)
	out = append(out, bottom)
	return strings.Join(out, "\n")
}

// window returns the slice of lines of length height that keeps cursor visible.
func window(lines []string, cursor, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// truncateMiddle truncates a string in the middle, preserving start and end.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 5 {
		return s[:max]
	}
	// Keep more of the end (file name) than the start
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return s[:startLen] + "..." + s[len(s)-endLen:]
}
