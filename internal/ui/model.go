package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lectern/internal/content"
	"github.com/five82/lectern/internal/courses"
	"github.com/five82/lectern/internal/moodle"
	"github.com/five82/lectern/internal/prefs"
	"github.com/five82/lectern/internal/session"
	"github.com/five82/lectern/internal/state"
	"github.com/five82/lectern/internal/viewer"
)

// View identifies the active screen.
type View int

const (
	ViewCourses View = iota
	ViewContents
	ViewDirective
	ViewLogs
)

// CourseService is what the UI needs from the course service.
type CourseService interface {
	Courses(ctx context.Context, classification string, force bool) ([]moodle.Course, error)
	Contents(ctx context.Context, courseID int, force bool) ([]moodle.Section, error)
	Announcements(ctx context.Context, courseID int) ([]moodle.Discussion, error)
	ToggleCompletion(ctx context.Context, courseID int, m moodle.Module) (bool, error)
}

// Selector resolves the selected module.
type Selector interface {
	Select(ctx context.Context, sel content.Selection) (content.Directive, bool)
	Reset()
}

// Embedder switches a module to embedded presentation.
type Embedder interface {
	ForceEmbed(cmid int)
}

// AssignmentViewer backs the assignment panel.
type AssignmentViewer interface {
	Find(ctx context.Context, courseID, id int) (moodle.Assignment, error)
	Status(ctx context.Context, assignID int) (moodle.SubmissionStatus, error)
	SaveDraft(ctx context.Context, assignID int, text string) error
	Submit(ctx context.Context, assignID int, text string) error
}

// QuizViewer backs the quiz panel.
type QuizViewer interface {
	Summary(ctx context.Context, courseID int, m moodle.Module) (viewer.QuizSummary, error)
}

// SessionSource supplies the active endpoint.
type SessionSource interface {
	Current() (session.Config, bool)
}

// Options configure the TUI.
type Options struct {
	Courses     CourseService
	Selector    Selector
	Engine      Embedder
	Assignments AssignmentViewer
	Quizzes     QuizViewer
	Session     SessionSource
	State       *state.Store
	Opener      content.Opener
	Prefs       prefs.Prefs
	PrefsPath   string
	LogPath     string
	Logger      *slog.Logger
}

const (
	snapshotInterval = time.Second
	logsInterval     = 2 * time.Second
	logTailLines     = 400
)

type assignmentPanel struct {
	assignment moodle.Assignment
	status     moodle.SubmissionStatus
	err        error
}

// Model is the bubbletea model for lectern.
type Model struct {
	ctx    context.Context
	opts   Options
	logger *slog.Logger
	theme  Theme
	prefs  prefs.Prefs

	width, height int
	currentView   View
	returnView    View

	snapshot    state.Snapshot
	lastUpdated time.Time

	courseList   []moodle.Course
	courseCursor int
	loading      bool

	course        moodle.Course
	sections      []moodle.Section
	modules       []moodle.Module
	moduleCursor  int
	announcements []moodle.Discussion

	module       moodle.Module
	directive    content.Directive
	hasDirective bool
	directiveSeq uint64
	assignment   *assignmentPanel
	quiz         *viewer.QuizSummary
	quizErr      error
	body         viewport.Model

	draft   textinput.Model
	editing bool

	logViewport viewport.Model
	logLevel    slog.Level
	logLines    []string

	spinner spinner.Model
	status  string
	err     error
}

// Messages

type snapshotTickMsg time.Time

type coursesMsg struct {
	classification string
	courses        []moodle.Course
	err            error
}

type contentsMsg struct {
	courseID      int
	sections      []moodle.Section
	announcements []moodle.Discussion
	err           error
}

type directiveMsg struct {
	seq        uint64
	directive  content.Directive
	assignment *assignmentPanel
	quiz       *viewer.QuizSummary
	quizErr    error
}

type completionMsg struct {
	courseID  int
	moduleID  int
	completed bool
	err       error
}

type submissionMsg struct {
	final bool
	err   error
}

type logsTickMsg time.Time

type logsMsg struct {
	lines []string
	err   error
}

type statusMsg string

// NewModel builds the initial model.
func NewModel(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := opts.Prefs
	if p.Theme == "" || p.Classification == "" {
		p = prefs.Defaults()
	}

	draft := textinput.New()
	draft.Placeholder = "Markdown submission text"
	draft.Prompt = "› "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:         ctx,
		opts:        opts,
		logger:      logger.With("component", "ui"),
		theme:       GetTheme(p.Theme),
		prefs:       p,
		draft:       draft,
		spinner:     sp,
		loading:     true,
		logLevel:    slog.LevelInfo,
		body:        viewport.New(0, 0),
		logViewport: viewport.New(0, 0),
	}
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	program := tea.NewProgram(NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// Init starts the first course load and the refresh ticks.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCourses(false), tickSnapshot(), m.spinner.Tick)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotTickMsg:
		if m.opts.State != nil {
			m.snapshot = m.opts.State.Snapshot()
			m.lastUpdated = m.snapshot.LastSuccess
		}
		return m, tickSnapshot()

	case coursesMsg:
		if msg.classification != m.prefs.Classification {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.courseList = msg.courses
			m.courseCursor = clamp(m.courseCursor, len(m.courseList))
		}
		return m, nil

	case contentsMsg:
		if msg.courseID != m.course.ID {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.sections = msg.sections
			m.modules = courses.Modules(msg.sections)
			m.announcements = msg.announcements
			m.moduleCursor = clamp(m.moduleCursor, len(m.modules))
		}
		return m, nil

	case directiveMsg:
		if msg.seq != m.directiveSeq {
			return m, nil
		}
		m.loading = false
		m.directive = msg.directive
		m.hasDirective = true
		m.assignment = msg.assignment
		m.quiz = msg.quiz
		m.quizErr = msg.quizErr
		m.updateBody()
		return m, nil

	case completionMsg:
		if msg.err != nil {
			m.status = "completion: " + msg.err.Error()
			return m, nil
		}
		if msg.courseID == m.course.ID {
			setCompletion(m.sections, msg.moduleID, msg.completed)
			m.modules = courses.Modules(m.sections)
		}
		if m.module.ID == msg.moduleID {
			m.module = withCompletion(m.module, msg.completed)
			m.updateBody()
		}
		if msg.completed {
			m.status = "marked complete"
		} else {
			m.status = "marked incomplete"
		}
		return m, nil

	case submissionMsg:
		switch {
		case msg.err != nil:
			m.status = msg.err.Error()
		case msg.final:
			m.status = "submitted for grading"
			m.editing = false
			m.draft.Blur()
		default:
			m.status = "draft saved"
			m.editing = false
			m.draft.Blur()
		}
		if msg.err == nil {
			return m.selectModule(m.module)
		}
		return m, nil

	case logsTickMsg:
		if m.currentView != ViewLogs {
			return m, nil
		}
		return m, m.readLogs()

	case logsMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		m.logLines = msg.lines
		m.updateLogViewport()
		return m, tickLogs()

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}
	header := m.renderHeader()
	bar := m.renderCommandBar()
	height := max(m.height-2, 3)

	var body string
	switch m.currentView {
	case ViewContents:
		body = m.renderContents(height)
	case ViewDirective:
		body = m.renderDirective(height)
	case ViewLogs:
		body = m.renderLogs(height)
	default:
		body = m.renderCourses(height)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, bar)
}

func (m *Model) resize() {
	w := max(m.width-4, 10)
	h := max(m.height-6, 3)
	m.body.Width, m.body.Height = w, h
	m.logViewport.Width, m.logViewport.Height = w, h
	m.draft.Width = max(w-4, 10)
	m.updateBody()
	m.updateLogViewport()
}

func tickSnapshot() tea.Cmd {
	return tea.Tick(snapshotInterval, func(t time.Time) tea.Msg { return snapshotTickMsg(t) })
}

func tickLogs() tea.Cmd {
	return tea.Tick(logsInterval, func(t time.Time) tea.Msg { return logsTickMsg(t) })
}

func clamp(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

func setCompletion(sections []moodle.Section, moduleID int, completed bool) {
	for i := range sections {
		for j := range sections[i].Modules {
			if sections[i].Modules[j].ID == moduleID {
				sections[i].Modules[j] = withCompletion(sections[i].Modules[j], completed)
			}
		}
	}
}

func withCompletion(mod moodle.Module, completed bool) moodle.Module {
	data := moodle.CompletionData{}
	if mod.CompletionData != nil {
		data = *mod.CompletionData
	}
	data.State = moodle.StateIncomplete
	if completed {
		data.State = moodle.StateComplete
		data.TimeCompleted = time.Now().Unix()
	}
	mod.CompletionData = &data
	return mod
}
