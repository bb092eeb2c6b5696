package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lectern/internal/content"
	"github.com/five82/lectern/internal/moodle"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.On(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	if !m.snapshot.HasSiteInfo {
		parts := []string{bg.Render("lectern", styles.Logo)}
		if m.snapshot.LastError != nil {
			parts = append(parts,
				bg.Render(classifyConnectionError(m.snapshot.LastError), styles.DangerText.Bold(true)),
				bg.Render("Retrying...", styles.WarningText.Bold(true)),
			)
			if m.opts.LogPath != "" {
				parts = append(parts, bg.Render("logs", styles.FaintText)+bg.Space()+
					bg.Render(truncateMiddle(m.opts.LogPath, 50), styles.MutedText))
			}
		} else {
			parts = append(parts, bg.Render("Not connected", styles.WarningText.Bold(true)))
		}
		return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
	}

	compact := m.width < 100
	info := m.snapshot.SiteInfo
	parts := []string{bg.Render("lectern", styles.Logo)}

	if m.snapshot.IsOffline() {
		parts = append(parts, bg.Render("● OFFLINE", styles.StatusStyle("offline")))
	} else {
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	site := info.SiteName
	if compact {
		site = truncate(site, 20)
	}
	parts = append(parts, bg.Render(site, styles.Text))
	if info.FullName != "" && !compact {
		parts = append(parts, bg.Render(info.FullName, styles.MutedText))
	}

	parts = append(parts,
		bg.Render("Courses:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", len(m.snapshot.Courses)), styles.Text))

	if ts := m.formatTimestamp(); ts != "" {
		tsStyle := styles.MutedText
		if m.snapshot.Stale() {
			tsStyle = styles.WarningText
			ts += " stale"
		}
		parts = append(parts, bg.Render(ts, tsStyle))
	}

	if m.snapshot.LastError != nil {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(m.snapshot.LastError.Error(), maxErr), styles.DangerText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, sep))
}

// formatTimestamp formats the last update time with a relative indicator.
func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}
	since := time.Since(m.lastUpdated)
	ts := m.lastUpdated.Format("15:04:05")
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var remote *moodle.RemoteError
	if errors.As(err, &remote) {
		return "SITE ERROR"
	}
	if errors.Is(err, moodle.ErrNotConfigured) {
		return "NOT CONFIGURED"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

type command struct{ key, desc string }

func (m Model) commands() []command {
	if m.editing {
		return []command{{"Enter", "Save draft"}, {"ctrl+s", "Submit"}, {"Esc", "Cancel"}}
	}
	switch m.currentView {
	case ViewContents:
		return []command{
			{"j/k", "Navigate"},
			{"Enter", "Open"},
			{"c", "Complete"},
			{"r", "Refresh"},
			{"Esc", "Courses"},
			{"L", "Logs"},
			{"q", "Quit"},
		}
	case ViewDirective:
		cmds := []command{{"n/p", "Next/Prev"}, {"o", "Browser"}, {"c", "Complete"}}
		if m.directive.Delegate == content.DelegateAssignment {
			cmds = append(cmds, command{"s", "Draft"})
		}
		if m.directive.Delegate == content.DelegateQuiz {
			cmds = append(cmds, command{"e", "Embed"})
		}
		return append(cmds, command{"r", "Reload"}, command{"Esc", "Contents"}, command{"q", "Quit"})
	case ViewLogs:
		return []command{
			{"v", "Level " + m.logLevel.String()},
			{"g/G", "Top/Bottom"},
			{"Esc", "Back"},
			{"q", "Quit"},
		}
	default:
		return []command{
			{"j/k", "Navigate"},
			{"Enter", "Open"},
			{"f", "Filter " + m.prefs.Classification},
			{"r", "Refresh"},
			{"T", "Theme"},
			{"L", "Logs"},
			{"q", "Quit"},
		}
	}
}

// renderCommandBar renders the key hints and the last status message.
func (m Model) renderCommandBar() string {
	styles := m.theme.On(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var parts []string
	for _, c := range m.commands() {
		parts = append(parts, bg.Render("<"+c.key+">", styles.AccentText)+bg.Space()+bg.Render(c.desc, styles.MutedText))
	}
	line := bg.Join(parts, bg.Spaces(2))
	if m.status != "" {
		room := m.width - lipgloss.Width(line) - 4
		if room > 10 {
			line += bg.Spaces(2) + bg.Render(truncate(m.status, room), styles.WarningText)
		}
	}
	return styles.Footer.Width(m.width).Render(bg.FillLine(line, max(m.width-2, 0)))
}
