package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lectern/internal/content"
	"github.com/five82/lectern/internal/courses"
	"github.com/five82/lectern/internal/markup"
	"github.com/five82/lectern/internal/moodle"
	"github.com/five82/lectern/internal/viewer"
)

func (m Model) renderCourses(height int) string {
	styles := m.theme.On(m.theme.FocusBg)
	inner := max(height-2, 1)
	width := max(m.width-2, 10)

	var lines []string
	switch {
	case m.loading && len(m.courseList) == 0:
		lines = []string{m.spinner.View() + " Loading courses..."}
	case m.err != nil:
		lines = []string{styles.DangerText.Render(m.describeError(m.err))}
	case len(m.courseList) == 0:
		lines = []string{styles.MutedText.Render("No courses for filter " + m.prefs.Classification)}
	default:
		for i, course := range m.courseList {
			lines = append(lines, m.courseLine(course, i == m.courseCursor, width-4))
		}
		lines = window(lines, m.courseCursor, inner)
	}

	title := fmt.Sprintf("Courses · %s (%d)", m.prefs.Classification, len(m.courseList))
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, height, true)
}

func (m Model) courseLine(course moodle.Course, selected bool, width int) string {
	styles := m.theme.On(m.theme.FocusBg)
	progress := ""
	if course.Progress != nil {
		progress = fmt.Sprintf("%3.0f%%", *course.Progress)
	}
	short := truncate(course.ShortName, 14)
	name := truncate(course.Title(), max(width-len(progress)-18, 8))
	line := fmt.Sprintf("%-14s  %s", short, name)
	if pad := width - lipgloss.Width(line) - len(progress); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	line += progress
	if selected {
		return styles.Selected.Render(line)
	}
	return styles.Text.Render(line)
}

func (m Model) renderContents(height int) string {
	styles := m.theme.On(m.theme.FocusBg)
	inner := max(height-2, 1)
	width := max(m.width-6, 10)

	var lines []string
	cursorLine := 0
	switch {
	case m.loading && len(m.sections) == 0:
		lines = []string{m.spinner.View() + " Loading course..."}
	case m.err != nil:
		lines = []string{styles.DangerText.Render(m.describeError(m.err))}
	default:
		for _, news := range m.announcements {
			lines = append(lines, styles.InfoText.Render("📣 "+truncate(news.Subject, width-3)))
		}
		if len(m.announcements) > 0 {
			lines = append(lines, "")
		}
		index := 0
		for _, section := range m.sections {
			if len(section.Modules) == 0 {
				continue
			}
			name := section.Name
			if name == "" {
				name = fmt.Sprintf("Section %d", section.Section)
			}
			lines = append(lines, styles.AccentText.Bold(true).Render(truncate(name, width)))
			for _, mod := range section.Modules {
				if index == m.moduleCursor {
					cursorLine = len(lines)
				}
				lines = append(lines, m.moduleLine(mod, index == m.moduleCursor, width))
				index++
			}
		}
		if len(lines) == 0 {
			lines = []string{styles.MutedText.Render("This course has no modules")}
		}
		lines = window(lines, cursorLine, inner)
	}

	title := m.course.Title()
	if len(m.sections) > 0 {
		p := courses.CourseProgress(m.sections)
		title = fmt.Sprintf("%s · %d/%d (%d%%)", title, p.Completed, p.Total, p.Percent)
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, height, true)
}

func (m Model) moduleLine(mod moodle.Module, selected bool, width int) string {
	styles := m.theme.On(m.theme.FocusBg)
	marker := "  "
	switch {
	case mod.Completed():
		marker = "✓ "
	case courses.CanToggleCompletion(mod):
		marker = "○ "
	}
	kind := fmt.Sprintf("%-8s", truncate(mod.ModName, 8))
	line := "  " + marker + kind + " " + truncate(mod.Name, max(width-14, 8))
	if selected {
		return styles.Selected.Render(line)
	}
	if mod.ModName == "label" {
		return styles.FaintText.Render(line)
	}
	if mod.Completed() {
		return styles.SuccessText.UnsetBold().Render(line)
	}
	return styles.Text.Render(line)
}

func (m Model) renderDirective(height int) string {
	body := m.body.View()
	if !m.hasDirective {
		body = m.spinner.View() + " Loading " + m.module.Name + "..."
	}
	if m.editing {
		body += "\n\n" + m.draft.View()
	}
	title := m.module.Name
	if m.hasDirective {
		title = fmt.Sprintf("%s · %s", title, m.directiveLabel())
	}
	return m.renderTitledBox(title, body, m.width, height, true)
}

func (m Model) directiveLabel() string {
	if m.directive.Delegate != "" {
		return string(m.directive.Delegate)
	}
	return string(m.directive.Kind)
}

// updateBody renders the directive into the body viewport.
func (m *Model) updateBody() {
	if !m.hasDirective {
		return
	}
	width := max(m.body.Width, 10)
	m.body.SetContent(wrap(m.directiveBody(), width))
}

func (m Model) directiveBody() string {
	styles := m.theme.On(m.theme.FocusBg)
	d := m.directive
	var b strings.Builder
	status := "incomplete"
	if m.module.Completed() {
		status = "complete"
	}
	if courses.CanToggleCompletion(m.module) || m.module.Completed() {
		b.WriteString(styles.StatusStyle(status).Render(status) + "\n\n")
	}

	switch {
	case d.Delegate == content.DelegateAssignment:
		b.WriteString(m.assignmentBody())
	case d.Delegate == content.DelegateQuiz:
		b.WriteString(m.quizBody())
	case d.Kind == content.KindHTML:
		b.WriteString(markup.PlainText(d.HTML))
	case d.Kind == content.KindPDF:
		b.WriteString(styles.AccentText.Render("PDF document") + "\n" + d.URL)
	case d.Kind == content.KindVideo:
		b.WriteString(styles.AccentText.Render("Video") + "\n" + d.URL)
	case d.Kind == content.KindIframe:
		b.WriteString(styles.StatusStyle("embedded").Render("embedded") + "\n" + d.URL)
	case d.Kind == content.KindExternal:
		b.WriteString(styles.StatusStyle("external").Render("external") + "\n" + d.URL)
	case d.OpenURL != "":
		b.WriteString(styles.MutedText.Render("Opened outside lectern") + "\n" + d.OpenURL)
	case d.Diagnostic != "":
		b.WriteString(styles.WarningText.Render(d.Diagnostic))
	default:
		b.WriteString(styles.MutedText.Render("Nothing to show"))
	}
	return b.String()
}

func (m Model) assignmentBody() string {
	styles := m.theme.On(m.theme.FocusBg)
	panel := m.assignment
	if panel == nil {
		return ""
	}
	if panel.err != nil && panel.assignment.ID == 0 {
		return styles.DangerText.Render(m.describeError(panel.err))
	}

	a := panel.assignment
	badge := viewer.BadgeFor(a, panel.status, time.Now())
	var b strings.Builder
	b.WriteString(styles.StatusStyle(string(badge)).Render(string(badge)))
	if a.DueDate > 0 {
		b.WriteString("  " + styles.MutedText.Render("due "+time.Unix(a.DueDate, 0).Format("Mon 2 Jan 15:04")))
	}
	if panel.status.Feedback != nil && panel.status.Feedback.GradeForDisplay != "" {
		b.WriteString("  " + styles.SuccessText.Render("grade "+panel.status.Feedback.GradeForDisplay))
	}
	b.WriteString("\n\n")
	if intro := m.plain(a.Intro); intro != "" {
		b.WriteString(intro + "\n\n")
	}
	if panel.err != nil {
		b.WriteString(styles.DangerText.Render(m.describeError(panel.err)) + "\n")
	}
	if text := m.plain(panel.status.OnlineText()); text != "" {
		b.WriteString(styles.AccentText.Render("Your submission") + "\n" + text)
	}
	return b.String()
}

func (m Model) quizBody() string {
	styles := m.theme.On(m.theme.FocusBg)
	if m.quizErr != nil {
		return styles.DangerText.Render(m.describeError(m.quizErr))
	}
	if m.quiz == nil {
		return ""
	}
	q := m.quiz.Quiz
	var b strings.Builder
	if q.TimeOpen > 0 {
		b.WriteString(styles.MutedText.Render("opens  ") + time.Unix(q.TimeOpen, 0).Format("Mon 2 Jan 15:04") + "\n")
	}
	if q.TimeClose > 0 {
		b.WriteString(styles.MutedText.Render("closes ") + time.Unix(q.TimeClose, 0).Format("Mon 2 Jan 15:04") + "\n")
	}
	if q.TimeLimit > 0 {
		b.WriteString(styles.MutedText.Render("limit  ") + (time.Duration(q.TimeLimit) * time.Second).String() + "\n")
	}
	if q.Attempts > 0 {
		b.WriteString(styles.MutedText.Render("tries  ") + fmt.Sprintf("%d", q.Attempts) + "\n")
	}
	if intro := m.plain(q.Intro); intro != "" {
		b.WriteString("\n" + intro + "\n")
	}
	b.WriteString("\n" + styles.AccentText.Render("Attempt in browser (o) or embed (e)") + "\n" + m.quiz.OpenURL)
	return b.String()
}

// plain runs server HTML through the markup pipeline and flattens it.
func (m Model) plain(fragment string) string {
	p := markup.Pipeline{}
	if m.opts.Session != nil {
		if cfg, ok := m.opts.Session.Current(); ok {
			p = markup.Pipeline{BaseURL: cfg.URL, Token: cfg.Token}
		}
	}
	return markup.PlainText(p.Process(fragment))
}

func (m Model) describeError(err error) string {
	switch classifyConnectionError(err) {
	case "NOT CONFIGURED":
		return "Not connected. Run `lectern login` first."
	case "SITE ERROR":
		return "Site says: " + err.Error()
	}
	return err.Error()
}

func wrap(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(text)
}
