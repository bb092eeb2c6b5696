package ui

import (
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lectern/internal/logtail"
)

var logLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

func nextLevel(current slog.Level) slog.Level {
	for i, level := range logLevels {
		if level == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return slog.LevelInfo
}

// readLogs tails the log file off the UI goroutine.
func (m Model) readLogs() tea.Cmd {
	path := m.opts.LogPath
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		lines, err := logtail.Read(path, logTailLines)
		return logsMsg{lines: lines, err: err}
	}
}

func (m *Model) updateLogViewport() {
	atBottom := m.logViewport.AtBottom() || m.logViewport.TotalLineCount() == 0
	lines := logtail.Filter(m.logLines, m.logLevel)
	rendered := make([]string, 0, len(lines))
	width := max(m.logViewport.Width, 10)
	for _, line := range lines {
		rendered = append(rendered, m.formatLogLine(line, width))
	}
	m.logViewport.SetContent(strings.Join(rendered, "\n"))
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

func (m Model) formatLogLine(line string, width int) string {
	styles := m.theme.On(m.theme.FocusBg)
	entry := logtail.Parse(line)
	if !entry.HasLevel {
		return styles.FaintText.Render(truncate(line, width))
	}

	levelStyle := styles.InfoText
	switch {
	case entry.Level >= slog.LevelError:
		levelStyle = styles.DangerText
	case entry.Level >= slog.LevelWarn:
		levelStyle = styles.WarningText
	case entry.Level < slog.LevelInfo:
		levelStyle = styles.FaintText
	}

	ts := entry.Time
	if len(ts) >= 19 {
		ts = ts[11:19]
	}
	out := styles.MutedText.Render(ts) + " " +
		levelStyle.Render(padRight(entry.Level.String(), 5)) + " " +
		styles.Text.Render(entry.Message)
	if entry.Attrs != "" {
		out += " " + styles.FaintText.Render(entry.Attrs)
	}
	if lipgloss.Width(out) > width {
		out = lipgloss.NewStyle().MaxWidth(width).Render(out)
	}
	return out
}

func (m Model) renderLogs(height int) string {
	content := m.logViewport.View()
	if m.opts.LogPath == "" {
		content = "No log file configured"
	} else if len(m.logLines) == 0 {
		content = "No log entries in " + truncateMiddle(m.opts.LogPath, max(m.width-30, 20))
	}
	return m.renderTitledBox("Logs · "+m.logLevel.String()+"+", content, m.width, height, true)
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
