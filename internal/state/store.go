package state

import (
	"slices"
	"sync"
	"time"

	"github.com/five82/lectern/internal/moodle"
)

// offlineAfter is the failure streak at which the site counts as unreachable.
const offlineAfter = 2

// Snapshot is what the UI knows about the connection at one instant.
type Snapshot struct {
	SiteInfo    moodle.SiteInfo
	HasSiteInfo bool
	Courses     []moodle.Course

	// LastUpdated is the time of the last probe, successful or not.
	LastUpdated time.Time
	// LastSuccess is the time the data above was fetched.
	LastSuccess         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline reports a failure streak long enough to show the offline banner.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= offlineAfter
}

// Stale reports whether the data shown is older than the last probe.
func (s Snapshot) Stale() bool {
	return s.LastError != nil && s.HasSiteInfo
}

// Store guards the snapshot shared by the monitor and the UI.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

// Succeed records fresh site info. A nil courses slice keeps the course list
// already held, so a login can record the site before courses are fetched.
func (s *Store) Succeed(info moodle.SiteInfo, courses []moodle.Course) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.SiteInfo = info
	s.snap.HasSiteInfo = true
	if courses != nil {
		s.snap.Courses = slices.Clone(courses)
	}
	s.snap.LastUpdated = now
	s.snap.LastSuccess = now
	s.snap.LastError = nil
	s.snap.ConsecutiveFailures = 0
}

// Fail records a failed probe and keeps the last good data.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastError = err
	s.snap.LastUpdated = time.Now()
	s.snap.ConsecutiveFailures++
}

// Reset forgets everything, as after logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{}
}

// Snapshot returns a copy the caller may keep.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	snap.Courses = slices.Clone(s.snap.Courses)
	return snap
}
