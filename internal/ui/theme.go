package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette.
type Theme struct {
	Name string

	Background string // behind badges
	Surface    string // header, command bar, unfocused boxes
	FocusBg    string // focused box

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StatusColors are badge colors keyed by assignment badge, completion
	// state, connection state or embed mode.
	StatusColors map[string]string
}

// Styles are the theme's text styles rendered on one background.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	badges     map[string]string
	badgeInk   string
	badgeMuted string
}

// On returns the styles with bg filled in, so joined segments never show
// the terminal's own background.
func (t Theme) On(bg string) Styles {
	base := lipgloss.NewStyle().Background(lipgloss.Color(bg))
	fg := func(color string) lipgloss.Style {
		return base.Foreground(lipgloss.Color(color))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header:   fg(t.Text).Padding(0, 1),
		Footer:   fg(t.Muted).Padding(0, 1),
		Logo:     fg(t.Warning).Bold(true),
		Selected: lipgloss.NewStyle().Background(lipgloss.Color(t.SelectionBg)).Foreground(lipgloss.Color(t.SelectionText)),

		badges:     t.StatusColors,
		badgeInk:   t.Background,
		badgeMuted: t.Muted,
	}
}

// StatusStyle returns a badge style for status. Unknown statuses use the
// muted color.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color, ok := s.badges[status]
	if !ok {
		color = s.badgeMuted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.badgeInk)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

var themeOrder = []string{"Dracula", "Slate", "Moodle"}

var themes = map[string]func() Theme{
	"Dracula": draculaTheme,
	"Slate":   slateTheme,
	"Moodle":  moodleTheme,
}

// GetTheme returns a theme by name, Dracula when unknown.
func GetTheme(name string) Theme {
	if build, ok := themes[name]; ok {
		return build()
	}
	return draculaTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names in cycle order.
func ThemeNames() []string {
	return append([]string(nil), themeOrder...)
}

// https://draculatheme.com
func draculaTheme() Theme {
	return Theme{
		Name:          "Dracula",
		Background:    "#191A21",
		Surface:       "#282A36",
		FocusBg:       "#343746",
		SelectionBg:   "#44475A",
		SelectionText: "#F8F8F2",
		Border:        "#44475A",
		BorderFocus:   "#BD93F9",
		Text:          "#F8F8F2",
		Muted:         "#6272A4",
		Faint:         "#44475A",
		Accent:        "#BD93F9",
		Success:       "#50FA7B",
		Warning:       "#FFB86C",
		Danger:        "#FF5555",
		Info:          "#8BE9FD",
		StatusColors: map[string]string{
			"pending":    "#6272A4",
			"submitted":  "#8BE9FD",
			"graded":     "#50FA7B",
			"overdue":    "#FF5555",
			"complete":   "#50FA7B",
			"incomplete": "#44475A",
			"online":     "#50FA7B",
			"offline":    "#FF5555",
			"embedded":   "#BD93F9",
			"external":   "#FFB86C",
		},
	}
}

// Tailwind slate with sky accents.
func slateTheme() Theme {
	return Theme{
		Name:          "Slate",
		Background:    "#020617",
		Surface:       "#0f172a",
		FocusBg:       "#1e293b",
		SelectionBg:   "#0284c7",
		SelectionText: "#f8fafc",
		Border:        "#334155",
		BorderFocus:   "#38bdf8",
		Text:          "#f1f5f9",
		Muted:         "#94a3b8",
		Faint:         "#64748b",
		Accent:        "#38bdf8",
		Success:       "#22c55e",
		Warning:       "#f59e0b",
		Danger:        "#ef4444",
		Info:          "#06b6d4",
		StatusColors: map[string]string{
			"pending":    "#64748b",
			"submitted":  "#38bdf8",
			"graded":     "#22c55e",
			"overdue":    "#dc2626",
			"complete":   "#16a34a",
			"incomplete": "#334155",
			"online":     "#22c55e",
			"offline":    "#dc2626",
			"embedded":   "#8b5cf6",
			"external":   "#f59e0b",
		},
	}
}

// Charcoal with the Moodle orange as accent.
func moodleTheme() Theme {
	return Theme{
		Name:          "Moodle",
		Background:    "#121212",
		Surface:       "#1d1d1f",
		FocusBg:       "#27272a",
		SelectionBg:   "#f98012",
		SelectionText: "#121212",
		Border:        "#3f3f46",
		BorderFocus:   "#f98012",
		Text:          "#ededed",
		Muted:         "#a1a1aa",
		Faint:         "#52525b",
		Accent:        "#f98012",
		Success:       "#4ade80",
		Warning:       "#facc15",
		Danger:        "#f87171",
		Info:          "#60a5fa",
		StatusColors: map[string]string{
			"pending":    "#71717a",
			"submitted":  "#60a5fa",
			"graded":     "#4ade80",
			"overdue":    "#f87171",
			"complete":   "#22c55e",
			"incomplete": "#3f3f46",
			"online":     "#4ade80",
			"offline":    "#ef4444",
			"embedded":   "#c084fc",
			"external":   "#f98012",
		},
	}
}
