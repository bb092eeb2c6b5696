package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/lectern/internal/content"
	"github.com/five82/lectern/internal/courses"
	"github.com/five82/lectern/internal/moodle"
	"github.com/five82/lectern/internal/prefs"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.editing {
		return m.handleDraftKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.updateBody()
		return m, m.savePrefs()
	case "L":
		if m.currentView == ViewLogs {
			m.currentView = m.returnView
			return m, nil
		}
		m.returnView = m.currentView
		m.currentView = ViewLogs
		return m, m.readLogs()
	}

	switch m.currentView {
	case ViewContents:
		return m.handleContentsKey(msg)
	case ViewDirective:
		return m.handleDirectiveKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleCoursesKey(msg)
	}
}

// handleCoursesKey processes keyboard input for the course list.
func (m Model) handleCoursesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.courseCursor = clamp(m.courseCursor+1, len(m.courseList))
	case "k", "up":
		m.courseCursor = clamp(m.courseCursor-1, len(m.courseList))
	case "g", "home":
		m.courseCursor = 0
	case "G", "end":
		m.courseCursor = clamp(len(m.courseList)-1, len(m.courseList))
	case "r":
		m.loading = true
		return m, m.loadCourses(true)
	case "f":
		m.prefs.Classification = prefs.NextClassification(m.prefs.Classification)
		m.courseCursor = 0
		m.loading = true
		return m, tea.Batch(m.loadCourses(false), m.savePrefs())
	case "enter":
		if len(m.courseList) == 0 {
			return m, nil
		}
		return m.openCourse(m.courseList[m.courseCursor])
	}
	return m, nil
}

// handleContentsKey processes keyboard input for the course outline.
func (m Model) handleContentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.moduleCursor = clamp(m.moduleCursor+1, len(m.modules))
	case "k", "up":
		m.moduleCursor = clamp(m.moduleCursor-1, len(m.modules))
	case "g", "home":
		m.moduleCursor = 0
	case "G", "end":
		m.moduleCursor = clamp(len(m.modules)-1, len(m.modules))
	case "esc", "backspace":
		m.currentView = ViewCourses
		m.err = nil
	case "r":
		m.loading = true
		return m, m.loadContents(m.course.ID, true)
	case "c":
		if len(m.modules) == 0 {
			return m, nil
		}
		return m, m.toggleCompletion(m.modules[m.moduleCursor])
	case "enter":
		if len(m.modules) == 0 {
			return m, nil
		}
		return m.selectModule(m.modules[m.moduleCursor])
	}
	return m, nil
}

// handleDirectiveKey processes keyboard input while a module is shown.
func (m Model) handleDirectiveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.currentView = ViewContents
		m.opts.Selector.Reset()
		m.directiveSeq++
		m.hasDirective = false
		return m, nil
	case "n":
		_, next := courses.Neighbors(m.sections, m.module.ID)
		if next == nil {
			m.status = "last module"
			return m, nil
		}
		return m.selectModule(*next)
	case "p":
		prev, _ := courses.Neighbors(m.sections, m.module.ID)
		if prev == nil {
			m.status = "first module"
			return m, nil
		}
		return m.selectModule(*prev)
	case "r":
		return m.selectModule(m.module)
	case "c":
		return m, m.toggleCompletion(m.module)
	case "o":
		target := m.browserURL()
		if target == "" {
			m.status = "nothing to open"
			return m, nil
		}
		return m, m.openURL(target)
	case "e":
		if m.directive.Delegate != content.DelegateQuiz || m.opts.Engine == nil {
			return m, nil
		}
		m.opts.Engine.ForceEmbed(m.module.ID)
		return m.selectModule(m.module)
	case "s":
		if m.assignment == nil || m.assignment.err != nil {
			return m, nil
		}
		m.editing = true
		m.draft.SetValue(m.assignment.status.OnlineText())
		m.draft.CursorEnd()
		return m, m.draft.Focus()
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

// handleDraftKey edits the assignment draft.
func (m Model) handleDraftKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.draft.Blur()
		return m, nil
	case "enter":
		return m, m.saveSubmission(false)
	case "ctrl+s":
		return m, m.saveSubmission(true)
	}
	var cmd tea.Cmd
	m.draft, cmd = m.draft.Update(msg)
	return m, cmd
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.currentView = m.returnView
		return m, nil
	case "v":
		m.logLevel = nextLevel(m.logLevel)
		m.updateLogViewport()
		return m, nil
	case "g", "home":
		m.logViewport.GotoTop()
		return m, nil
	case "G", "end":
		m.logViewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m Model) openCourse(course moodle.Course) (tea.Model, tea.Cmd) {
	if course.ID != m.course.ID {
		m.sections = nil
		m.modules = nil
		m.announcements = nil
		m.moduleCursor = 0
	}
	m.course = course
	m.currentView = ViewContents
	m.loading = true
	m.err = nil
	return m, m.loadContents(course.ID, false)
}

// selectModule starts resolving mod. Only the newest selection's result is
// shown; older ones are dropped in Update by sequence number.
func (m Model) selectModule(mod moodle.Module) (tea.Model, tea.Cmd) {
	m.directiveSeq++
	seq := m.directiveSeq
	m.module = mod
	m.currentView = ViewDirective
	m.hasDirective = false
	m.assignment = nil
	m.quiz = nil
	m.quizErr = nil
	m.editing = false
	m.loading = true
	m.body.SetContent("")
	m.body.GotoTop()
	for i, candidate := range m.modules {
		if candidate.ID == mod.ID {
			m.moduleCursor = i
		}
	}

	ctx, opts, courseID := m.ctx, m.opts, m.course.ID
	return m, func() tea.Msg {
		return resolveModule(ctx, opts, seq, courseID, mod)
	}
}

func resolveModule(ctx context.Context, opts Options, seq uint64, courseID int, mod moodle.Module) tea.Msg {
	directive, _ := opts.Selector.Select(ctx, content.Selection{CourseID: courseID, Module: mod})
	msg := directiveMsg{seq: seq, directive: directive}
	switch directive.Delegate {
	case content.DelegateAssignment:
		panel := &assignmentPanel{}
		if opts.Assignments == nil {
			panel.err = errors.New("assignments unavailable")
		} else if assign, err := opts.Assignments.Find(ctx, courseID, mod.ID); err != nil {
			panel.err = err
		} else {
			panel.assignment = assign
			panel.status, panel.err = opts.Assignments.Status(ctx, assign.ID)
		}
		msg.assignment = panel
	case content.DelegateQuiz:
		if opts.Quizzes == nil {
			msg.quizErr = errors.New("quizzes unavailable")
			break
		}
		summary, err := opts.Quizzes.Summary(ctx, courseID, mod)
		if err != nil {
			msg.quizErr = err
		} else {
			msg.quiz = &summary
		}
	}
	return msg
}

func (m Model) loadCourses(force bool) tea.Cmd {
	ctx, svc, classification := m.ctx, m.opts.Courses, m.prefs.Classification
	return func() tea.Msg {
		list, err := svc.Courses(ctx, classification, force)
		return coursesMsg{classification: classification, courses: list, err: err}
	}
}

func (m Model) loadContents(courseID int, force bool) tea.Cmd {
	ctx, svc, logger := m.ctx, m.opts.Courses, m.logger
	return func() tea.Msg {
		sections, err := svc.Contents(ctx, courseID, force)
		if err != nil {
			return contentsMsg{courseID: courseID, err: err}
		}
		news, err := svc.Announcements(ctx, courseID)
		if err != nil {
			logger.Debug("announcements unavailable", "course_id", courseID, "error", err)
		}
		return contentsMsg{courseID: courseID, sections: sections, announcements: news}
	}
}

func (m Model) toggleCompletion(mod moodle.Module) tea.Cmd {
	if !courses.CanToggleCompletion(mod) {
		return func() tea.Msg { return statusMsg("completion is not manual for " + mod.Name) }
	}
	ctx, svc, courseID := m.ctx, m.opts.Courses, m.course.ID
	return func() tea.Msg {
		completed, err := svc.ToggleCompletion(ctx, courseID, mod)
		return completionMsg{courseID: courseID, moduleID: mod.ID, completed: completed, err: err}
	}
}

func (m Model) saveSubmission(final bool) tea.Cmd {
	if m.assignment == nil || m.opts.Assignments == nil {
		return nil
	}
	ctx, viewer := m.ctx, m.opts.Assignments
	assignID, text := m.assignment.assignment.ID, m.draft.Value()
	return func() tea.Msg {
		var err error
		if final {
			err = viewer.Submit(ctx, assignID, text)
		} else {
			err = viewer.SaveDraft(ctx, assignID, text)
		}
		return submissionMsg{final: final, err: err}
	}
}

func (m Model) savePrefs() tea.Cmd {
	if m.opts.PrefsPath == "" {
		return nil
	}
	path, p, logger := m.opts.PrefsPath, m.prefs, m.logger
	return func() tea.Msg {
		if err := prefs.Save(path, p); err != nil {
			logger.Warn("failed to save prefs", "error", err)
			return statusMsg("prefs: " + err.Error())
		}
		return nil
	}
}

func (m Model) openURL(target string) tea.Cmd {
	if m.opts.Opener == nil {
		return func() tea.Msg { return statusMsg(target) }
	}
	ctx, opener := m.ctx, m.opts.Opener
	return func() tea.Msg {
		if err := opener.Open(ctx, target); err != nil {
			return statusMsg(fmt.Sprintf("open failed: %v", err))
		}
		return statusMsg("opened " + target)
	}
}

// browserURL picks the best link for the current module.
func (m Model) browserURL() string {
	switch {
	case m.quiz != nil && m.quiz.OpenURL != "":
		return m.quiz.OpenURL
	case m.directive.OpenURL != "":
		return m.directive.OpenURL
	case m.directive.URL != "" && m.directive.Kind != content.KindNone:
		return m.directive.URL
	}
	if m.opts.Session != nil {
		if cfg, ok := m.opts.Session.Current(); ok {
			return content.ViewURL(cfg.URL, m.module)
		}
	}
	return strings.TrimSpace(m.module.URL)
}
