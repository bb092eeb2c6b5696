package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/lectern/internal/moodle"
	"github.com/five82/lectern/internal/state"
)

const (
	defaultMonitorInterval = 30 * time.Second
	maxBackoff             = 5 * time.Minute
)

type siteProber interface {
	SiteInfo(ctx context.Context) (moodle.SiteInfo, error)
}

type courseLister interface {
	Courses(ctx context.Context, classification string, force bool) ([]moodle.Course, error)
}

type sessionState interface {
	Connected() bool
	SetCapabilities(names []string) error
}

// Monitor keeps the connection snapshot fresh while the TUI runs.
type Monitor struct {
	Store          *state.Store
	Site           siteProber
	Courses        courseLister
	Session        sessionState
	Classification string
	Interval       time.Duration
	Logger         *slog.Logger

	capabilitiesSaved bool
}

// Start launches a background goroutine that refreshes the store, backing
// off while the site is unreachable. It returns immediately.
func (m *Monitor) Start(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	go func() {
		for {
			m.refresh(ctx)
			wait := calculateBackoff(m.Store.Snapshot().ConsecutiveFailures, interval)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func (m *Monitor) refresh(ctx context.Context) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !m.Session.Connected() {
		m.Store.Reset()
		m.capabilitiesSaved = false
		return
	}

	info, err := m.Site.SiteInfo(ctx)
	if err != nil {
		m.Store.Fail(err)
		logger.Warn("site probe failed", "error", err)
		return
	}
	if !m.capabilitiesSaved {
		if err := m.Session.SetCapabilities(info.FunctionNames()); err != nil {
			logger.Warn("save capabilities failed", "error", err)
		} else {
			m.capabilitiesSaved = true
		}
	}

	courses, err := m.Courses.Courses(ctx, m.Classification, false)
	if err != nil {
		m.Store.Fail(err)
		logger.Warn("course poll failed", "error", err)
		return
	}
	if courses == nil {
		courses = []moodle.Course{}
	}
	m.Store.Succeed(info, courses)
}
